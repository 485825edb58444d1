package genie

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options tune the timing of a Device. Zero values are replaced by defaults.
type Options struct {
	// ReadTimeout bounds ReadObj; most replies arrive within a few byte times
	ReadTimeout time.Duration
	// WriteTimeout bounds every write waiting for ACK or NAK
	WriteTimeout time.Duration
	// PollInterval is the granularity of all waiting loops
	PollInterval time.Duration
	// ByteTimeout is the longest gap tolerated between two bytes of one frame
	ByteTimeout time.Duration
	// SyncAttempts is the number of sync bytes sent on open while waiting for a NAK
	SyncAttempts int
	// RealtimePriority asks the OS to schedule the listener with elevated priority
	RealtimePriority bool
	Clock            Clock
}

// DefaultOptions returns the timing used when nothing else is configured
func DefaultOptions() Options {
	return Options{
		ReadTimeout:  50 * time.Millisecond,
		WriteTimeout: time.Second,
		PollInterval: 100 * time.Microsecond,
		ByteTimeout:  5 * time.Millisecond,
		SyncAttempts: 10,
	}
}

func (opts Options) withDefaults() Options {
	d := DefaultOptions()
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = d.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = d.WriteTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = d.PollInterval
	}
	if opts.ByteTimeout <= 0 {
		opts.ByteTimeout = d.ByteTimeout
	}
	if opts.SyncAttempts < 0 {
		opts.SyncAttempts = 0
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return opts
}

// Device is a connection to a Genie display. A background listener decodes
// everything the display sends; the command methods serialise transactions so
// only one command is outstanding on the half-duplex link at any time.
type Device struct {
	opts Options
	poll poller

	mu         sync.Mutex
	conn       Transport
	link       string
	baud       int
	done       chan struct{}
	listenDone chan struct{}

	// txn holds a token while a transaction owns the wire
	txn chan struct{}

	replies Mailbox[Frame]
	magic   Mailbox[MagicFrame]
	sig     signals
	stats   counters

	// Widgets names objects on the display for ReadWidget and WriteWidget
	Widgets WidgetList
}

// NewDevice is the factory method to create a new, unconnected Device
func NewDevice(opts Options) *Device {
	opts = opts.withDefaults()
	return &Device{
		opts:    opts,
		poll:    poller{clock: opts.Clock, interval: opts.PollInterval},
		txn:     make(chan struct{}, 1),
		Widgets: make(WidgetList),
	}
}

// Open connects to the display named by link (see OpenLink) and starts the listener.
// Failing to open the transport is reported here, never from the background.
func (o *Device) Open(link string, baud int) error {
	conn, err := OpenLink(link, baud)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.link, o.baud = link, baud
	o.mu.Unlock()
	if err := o.Start(conn); err != nil {
		conn.Close()
		return err
	}
	log.Infof("Connected to display at %s (%d baud)", link, baud)
	return nil
}

// Start takes ownership of an already opened transport: input is flushed, the link
// is synchronised and the listener started. A transport failing during the sync
// is reported as a *TransportError and leaves the device closed; the caller still
// owns conn then.
func (o *Device) Start(conn Transport) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conn != nil {
		return &TransportError{Op: "start", Link: o.link, Err: ErrAlreadyOpen}
	}
	if err := conn.Flush(); err != nil {
		return &TransportError{Op: "flush", Link: o.link, Err: err}
	}

	o.replies.Drain()
	o.magic.Drain()
	o.sig.reset()

	done := make(chan struct{})
	rx := make(chan byte, 512)
	go o.pump(conn, rx, done)

	synced, err := o.syncLink(conn, rx, done)
	if err != nil {
		close(done)
		return &TransportError{Op: "sync", Link: o.link, Err: err}
	}
	if !synced && o.opts.SyncAttempts > 0 {
		log.Warnf("No NAK received after %d sync bytes, display may be out of step", o.opts.SyncAttempts)
	}

	o.conn = conn
	o.done = done
	o.listenDone = make(chan struct{})
	go o.listen(rx, done, o.listenDone)
	return nil
}

// Close stops the listener and closes the transport
func (o *Device) Close() error {
	o.mu.Lock()
	conn, done, listenDone := o.conn, o.done, o.listenDone
	o.conn = nil
	o.mu.Unlock()

	if conn == nil {
		return ErrClosed
	}
	close(done)
	err := conn.Close()
	<-listenDone
	return err
}

// Reconnect closes the device and opens the link it was opened with again
func (o *Device) Reconnect() error {
	o.mu.Lock()
	link, baud := o.link, o.baud
	o.mu.Unlock()
	if link == "" {
		return &TransportError{Op: "reconnect", Link: link, Err: ErrBadLink}
	}
	o.Close()
	return o.Open(link, baud)
}

// Done is closed when the listener stops, either because the device was closed or
// because the transport failed. It is nil before the first Start.
func (o *Device) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.listenDone
}

func (o *Device) transport() (Transport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conn == nil {
		return nil, ErrClosed
	}
	return o.conn, nil
}

// ReplyAvail reports whether a fixed report from the display is waiting
func (o *Device) ReplyAvail() bool {
	return o.replies.Available()
}

// GetReply returns the next fixed report, waiting for one to arrive
func (o *Device) GetReply(ctx context.Context) (Frame, error) {
	return waitPop(ctx, &o.replies, o.opts.Clock)
}

// TryGetReply returns the next fixed report if one is waiting, without blocking
func (o *Device) TryGetReply() (Frame, bool) {
	return o.replies.TryPop()
}

// MagicReplyAvail reports whether a variable length report is waiting
func (o *Device) MagicReplyAvail() bool {
	return o.magic.Available()
}

// GetMagicReply returns the next variable length report, waiting for one to arrive
func (o *Device) GetMagicReply(ctx context.Context) (MagicFrame, error) {
	return waitPop(ctx, &o.magic, o.opts.Clock)
}

// TryGetMagicReply returns the next variable length report if one is waiting
func (o *Device) TryGetMagicReply() (MagicFrame, bool) {
	return o.magic.TryPop()
}

// waitPop polls m every millisecond until an item arrives or ctx ends
func waitPop[T any](ctx context.Context, m *Mailbox[T], clock Clock) (T, error) {
	for {
		if item, ok := m.TryPop(); ok {
			return item, nil
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		clock.Sleep(time.Millisecond)
	}
}

// Stats returns a snapshot of the link diagnostics
func (o *Device) Stats() Stats {
	return Stats{
		ChecksumErrors:  o.stats.checksumErrors.Load(),
		FrameTimeouts:   o.stats.timeouts.Load(),
		Frames:          o.stats.frames.Load(),
		MagicFrames:     o.stats.magicFrames.Load(),
		Dropped:         o.replies.Dropped(),
		MagicDropped:    o.magic.Dropped(),
		RequestTimeouts: o.stats.requestTimeout.Load(),
		Naks:            o.stats.naks.Load(),
	}
}
