package genie

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsolicitedReportsOverflow(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())

	for i := 0; i < MailboxSize+1; i++ {
		fd.inject(Frame{Command: ReportEvent, Object: ObjWinButton, Index: byte(i), Data: 1}.Encode()...)
	}
	require.Eventually(t, func() bool { return dev.Stats().Frames == MailboxSize+1 }, time.Second, time.Millisecond)

	s := dev.Stats()
	assert.Equal(t, uint64(1), s.Dropped)
	for i := 0; i < MailboxSize; i++ {
		require.True(t, dev.ReplyAvail())
		f, err := dev.GetReply(context.Background())
		require.NoError(t, err)
		assert.Equal(t, byte(i), f.Index)
		assert.Equal(t, ReportEvent, f.Command)
	}
	assert.False(t, dev.ReplyAvail())
}

func TestGetReplyWaits(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())

	go func() {
		time.Sleep(5 * time.Millisecond)
		fd.inject(Frame{Command: ReportEvent, Object: ObjKnob, Index: 1, Data: 512}.Encode()...)
	}()
	f, err := dev.GetReply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Frame{Command: ReportEvent, Object: ObjKnob, Index: 1, Data: 512}, f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = dev.GetReply(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMagicReply(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())

	b, err := MagicFrame{Command: ReportMagicBytes, Index: 2, Payload: Payload{1, 2, 3}}.Encode()
	require.NoError(t, err)
	fd.inject(b...)

	require.Eventually(t, dev.MagicReplyAvail, time.Second, time.Millisecond)
	m, err := dev.GetMagicReply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(2), m.Index)
	assert.Equal(t, byte(3), m.Length)
	assert.Equal(t, Payload{1, 2, 3}, m.Payload)
	assert.False(t, dev.ReplyAvail())
	assert.Equal(t, uint64(1), dev.Stats().MagicFrames)
}

func TestFrameTimeoutResynchronises(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())

	fd.inject(5, 14)
	require.Eventually(t, func() bool { return dev.Stats().FrameTimeouts == 1 }, time.Second, time.Millisecond)

	fd.inject(Frame{Command: ReportEvent, Object: ObjLed, Index: 0, Data: 1}.Encode()...)
	f, err := dev.GetReply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ObjLed, f.Object)
	assert.Equal(t, uint64(0), dev.Stats().ChecksumErrors)
}

func TestStartSynchronisesLink(t *testing.T) {
	fd := newFakeDisplay()
	opts := testOptions()
	opts.SyncAttempts = 3
	opts.ByteTimeout = 100 * time.Millisecond
	startDevice(t, fd, opts)
	assert.Equal(t, []byte{syncByte}, fd.log())
}

func TestStartWithoutSyncAnswer(t *testing.T) {
	fd := newFakeDisplay()
	fd.silent = true
	opts := testOptions()
	opts.SyncAttempts = 3
	opts.ByteTimeout = 100 * time.Millisecond
	startDevice(t, fd, opts)
	assert.Equal(t, []byte{syncByte, syncByte, syncByte}, fd.log())
}

func TestStartTwice(t *testing.T) {
	dev := startDevice(t, newFakeDisplay(), testOptions())
	err := dev.Start(newFakeDisplay())
	assert.ErrorIs(t, err, ErrAlreadyOpen)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestDoneOnTransportFailure(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())

	fd.Close()
	select {
	case <-dev.Done():
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestOpenLinkErrors(t *testing.T) {
	_, err := OpenLink("ftp://example.com", 9600)
	assert.ErrorIs(t, err, ErrBadLink)

	_, err = OpenSerial("/dev/null", 12345)
	assert.ErrorIs(t, err, ErrBaudRate)

	dev := NewDevice(Options{})
	assert.ErrorIs(t, dev.Reconnect(), ErrBadLink)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{WriteTimeout: 3 * time.Second, SyncAttempts: -1}.withDefaults()
	assert.Equal(t, 3*time.Second, opts.WriteTimeout)
	assert.Equal(t, 50*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, 5*time.Millisecond, opts.ByteTimeout)
	assert.Equal(t, 0, opts.SyncAttempts)
	assert.NotNil(t, opts.Clock)
}

func TestStartDiscardsLateSyncAnswers(t *testing.T) {
	fd := newFakeDisplay()
	fd.silent = true
	opts := testOptions()
	opts.SyncAttempts = 3
	opts.ByteTimeout = 20 * time.Millisecond

	go func() {
		time.Sleep(30 * time.Millisecond)
		fd.inject(NAK, NAK)
	}()
	dev := startDevice(t, fd, opts)
	fd.set(func(f *fakeDisplay) { f.silent = false })

	require.NoError(t, dev.WriteObj(context.Background(), ObjLed, 0, 1))
	assert.Equal(t, uint64(0), dev.Stats().Naks)
}

func TestStartReportsTransportFailureDuringSync(t *testing.T) {
	fd := newFakeDisplay()
	fd.Close()
	opts := testOptions()
	opts.SyncAttempts = 3

	dev := NewDevice(opts)
	err := dev.Start(fd)
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "sync", te.Op)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Nil(t, dev.Done(), "no listener was started")

	_, err = dev.ReadObj(context.Background(), ObjLed, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTryGetReply(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())

	_, ok := dev.TryGetReply()
	assert.False(t, ok)
	_, ok = dev.TryGetMagicReply()
	assert.False(t, ok)

	fd.inject(Frame{Command: ReportEvent, Object: ObjKnob, Index: 4, Data: 9}.Encode()...)
	b, err := MagicFrame{Command: ReportMagicBytes, Index: 1, Payload: Payload{7}}.Encode()
	require.NoError(t, err)
	fd.inject(b...)
	require.Eventually(t, func() bool { return dev.ReplyAvail() && dev.MagicReplyAvail() }, time.Second, time.Millisecond)

	f, ok := dev.TryGetReply()
	require.True(t, ok)
	assert.Equal(t, byte(4), f.Index)
	m, ok := dev.TryGetMagicReply()
	require.True(t, ok)
	assert.Equal(t, Payload{7}, m.Payload)

	_, ok = dev.TryGetReply()
	assert.False(t, ok)
}
