package genie

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDisplay plays the display side of the link. It parses what the host writes
// and queues ACK, NAK or report frames for the host to read.
type fakeDisplay struct {
	mu      sync.Mutex
	rx      []byte
	written []byte
	pending []byte
	values  map[[2]byte]uint16
	closed  bool

	nak     bool // reject every command
	silent  bool // never answer
	corrupt bool // flip the checksum of report frames
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{values: make(map[[2]byte]uint16)}
}

func (f *fakeDisplay) Read(b []byte) (int, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if len(f.rx) == 0 {
		f.mu.Unlock()
		time.Sleep(100 * time.Microsecond)
		return 0, nil
	}
	n := copy(b, f.rx)
	f.rx = f.rx[n:]
	f.mu.Unlock()
	return n, nil
}

func (f *fakeDisplay) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.ErrClosedPipe
	}
	f.written = append(f.written, b...)
	f.pending = append(f.pending, b...)
	f.process()
	return len(b), nil
}

func (f *fakeDisplay) process() {
	for len(f.pending) > 0 {
		if f.pending[0] == syncByte {
			f.pending = f.pending[1:]
			f.reply(NAK)
			continue
		}
		req, n, err := ParseCommand(f.pending)
		if errors.Is(err, ErrShortFrame) {
			return
		}
		if n == 0 {
			n = 1
		}
		f.pending = f.pending[n:]
		if err != nil {
			f.reply(NAK)
			continue
		}
		f.handle(req)
	}
}

func (f *fakeDisplay) handle(req Request) {
	if f.nak {
		f.reply(NAK)
		return
	}
	switch req.Command {
	case ReadObject:
		b := Frame{
			Command: ReportObject,
			Object:  req.Object,
			Index:   req.Index,
			Data:    f.values[[2]byte{byte(req.Object), req.Index}],
		}.Encode()
		if f.corrupt {
			b[len(b)-1] ^= 0xff
		}
		f.reply(b...)
	case WriteObject:
		f.values[[2]byte{byte(req.Object), req.Index}] = req.Data
		f.reply(ACK)
	default:
		f.reply(ACK)
	}
}

func (f *fakeDisplay) reply(b ...byte) {
	if f.silent {
		return
	}
	f.rx = append(f.rx, b...)
}

// inject queues bytes as if the display sent them on its own
func (f *fakeDisplay) inject(b ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, b...)
}

func (f *fakeDisplay) set(fn func(f *fakeDisplay)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeDisplay) log() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written...)
}

func (f *fakeDisplay) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = f.rx[:0]
	return nil
}

func (f *fakeDisplay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// testOptions skip the link sync so the written log only holds commands
func testOptions() Options {
	opts := DefaultOptions()
	opts.SyncAttempts = 0
	return opts
}

func startDevice(t *testing.T, fd *fakeDisplay, opts Options) *Device {
	t.Helper()
	dev := NewDevice(opts)
	require.NoError(t, dev.Start(fd))
	t.Cleanup(func() { dev.Close() })
	return dev
}
