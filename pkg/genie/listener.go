package genie

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// pump copies bytes from the transport into rx until done is closed or a read
// fails. rx is closed on return, which stops the listener.
func (o *Device) pump(conn Transport, rx chan<- byte, done <-chan struct{}) {
	defer close(rx)
	b := make([]byte, 64)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := conn.Read(b)
		if err != nil {
			select {
			case <-done:
			default:
				log.Errorf("Read failed, stopping listener: %v", err)
			}
			return
		}
		if n == 0 {
			time.Sleep(o.opts.PollInterval)
			continue
		}
		log.Debugf("Read b='% x'", b[:n])
		for _, c := range b[:n] {
			select {
			case rx <- c:
			case <-done:
				return
			}
		}
	}
}

// syncLink sends dummy bytes until the display answers with a NAK. Serial ports
// that emit a garbage byte when opened leave the display's parser mid-frame; the
// NAK shows it is back at a frame boundary. Answers to sync bytes that arrive
// late are discarded until the line has been quiet for one ByteTimeout, so they
// never reach the listener. An error means the transport failed.
func (o *Device) syncLink(conn Transport, rx <-chan byte, done <-chan struct{}) (bool, error) {
	if o.opts.SyncAttempts <= 0 {
		return false, nil
	}

	synced := false
	for i := 0; i < o.opts.SyncAttempts && !synced; i++ {
		if _, err := conn.Write([]byte{syncByte}); err != nil {
			return false, err
		}
		select {
		case b, ok := <-rx:
			if !ok {
				return false, ErrClosed
			}
			if b == NAK {
				log.Debugf("Link synchronised after %d sync bytes", i+1)
				synced = true
			}
		case <-time.After(o.opts.ByteTimeout):
		case <-done:
			return false, ErrClosed
		}
	}

	for {
		select {
		case b, ok := <-rx:
			if !ok {
				return synced, ErrClosed
			}
			if b == NAK {
				synced = true
			}
			log.Debugf("Discarded late sync answer b='%02x'", b)
		case <-time.After(o.opts.ByteTimeout):
			return synced, nil
		case <-done:
			return synced, ErrClosed
		}
	}
}

// listen runs the decoder over everything the display sends. It is the only
// writer of the mailboxes and the ACK/NAK signals.
func (o *Device) listen(rx <-chan byte, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	defer log.Debugf("Exiting listener")

	if o.opts.RealtimePriority {
		if err := raisePriority(); err != nil {
			log.Warnf("Could not raise listener priority: %v", err)
		}
	}

	var d Decoder
	for {
		var c byte
		var ok bool
		if !d.InFrame() {
			select {
			case c, ok = <-rx:
				if !ok {
					return
				}
			case <-done:
				return
			}
		} else {
			select {
			case c, ok = <-rx:
				if !ok {
					return
				}
			case <-time.After(o.opts.ByteTimeout):
				// Never resume a frame after a gap, the next byte starts a new one
				o.stats.timeouts.Add(1)
				log.Warnf("%v (%v), resynchronising", ErrFrameTimeout, d.cmd)
				d.Reset()
				continue
			case <-done:
				return
			}
		}

		ev, err := d.Feed(c)
		if err != nil {
			o.stats.checksumErrors.Add(1)
			log.Warnf("Dropped %v frame: %v", d.cmd, err)
			continue
		}
		o.publish(ev)
	}
}

func (o *Device) publish(ev Event) {
	switch ev.Kind {
	case EventAck:
		o.sig.ack.Store(true)
	case EventNak:
		o.sig.nak.Store(true)
	case EventFrame:
		o.stats.frames.Add(1)
		if !o.replies.Push(ev.Frame) {
			log.Warnf("Reply queue full, dropped %+v", ev.Frame)
		}
	case EventMagic:
		o.stats.magicFrames.Add(1)
		if !o.magic.Push(ev.Magic) {
			log.Warnf("Magic reply queue full, dropped %v frame for index %d", ev.Magic.Command, ev.Magic.Index)
		}
	}
}
