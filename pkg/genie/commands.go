package genie

import (
	"context"
	"unicode/utf16"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// acquire waits for exclusive use of the wire, giving up when ctx ends
func (o *Device) acquire(ctx context.Context) error {
	select {
	case o.txn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Device) release() {
	<-o.txn
}

// transact runs one request/response exchange: the frame is encoded (and
// validated) before anything is sent, then transmitted while holding the wire.
func (o *Device) transact(ctx context.Context, req Request) (uint16, error) {
	b, err := EncodeRequest(req)
	if err != nil {
		return 0, err
	}

	if err := o.acquire(ctx); err != nil {
		return 0, err
	}
	defer o.release()
	return o.exchange(ctx, req, b)
}

// exchange sends the encoded frame b for req and waits for its outcome. The
// caller must hold the wire.
func (o *Device) exchange(ctx context.Context, req Request, b []byte) (uint16, error) {
	conn, err := o.transport()
	if err != nil {
		return 0, err
	}

	l := log.WithFields(log.Fields{"txn": uuid.New(), "cmd": req.Command})
	isRead := req.Command == ReadObject
	if isRead {
		if n := o.replies.Drain(); n > 0 {
			l.Debugf("Discarded %d stale replies", n)
		}
	}

	o.sig.reset()
	if _, err := conn.Write(b); err != nil {
		l.Errorf("Write failed: %v", err)
		return 0, err
	}
	l.Debugf("Write b='% x'", b)

	budget := o.opts.WriteTimeout
	if isRead {
		budget = o.opts.ReadTimeout
	}

	var value uint16
	err = o.poll.until(ctx, budget, func() (bool, error) {
		if o.sig.nak.Load() {
			return false, ErrNak
		}
		if !isRead {
			return o.sig.ack.Load(), nil
		}
		for {
			f, ok := o.replies.TryPop()
			if !ok {
				return false, nil
			}
			if f.Command == ReportObject && f.Object == req.Object && f.Index == req.Index {
				value = f.Data
				return true, nil
			}
			l.Debugf("Skipped unrelated reply %+v", f)
		}
	})

	switch err {
	case nil:
	case ErrNak:
		o.stats.naks.Add(1)
		l.Warnf("Display rejected command")
	case ErrTimeout:
		o.stats.requestTimeout.Add(1)
		l.Warnf("No reply within %v", budget)
	default:
		l.Debugf("Abandoned wait: %v", err)
	}
	return value, err
}

// ReadObj asks the display for the current value of an object
func (o *Device) ReadObj(ctx context.Context, object ObjectType, index byte) (uint16, error) {
	return o.transact(ctx, Request{Command: ReadObject, Object: object, Index: index})
}

// WriteObj sets the value of an object and waits for the display to acknowledge it
func (o *Device) WriteObj(ctx context.Context, object ObjectType, index byte, data uint16) error {
	_, err := o.transact(ctx, Request{Command: WriteObject, Object: object, Index: index, Data: data})
	return err
}

// WriteContrast sets the display contrast (backlight level)
func (o *Device) WriteContrast(ctx context.Context, value byte) error {
	_, err := o.transact(ctx, Request{Command: WriteContrast, Data: uint16(value)})
	return err
}

// WriteStr writes an ASCII string of at most 255 bytes to a strings object
func (o *Device) WriteStr(ctx context.Context, index byte, s string) error {
	p := make(Payload, len(s))
	for i := 0; i < len(s); i++ {
		p[i] = uint16(s[i])
	}
	_, err := o.transact(ctx, Request{Command: WriteString, Index: index, Payload: p})
	return err
}

// WriteStrU writes s as UTF-16 code units, at most 255 of them
func (o *Device) WriteStrU(ctx context.Context, index byte, s string) error {
	_, err := o.transact(ctx, Request{Command: WriteStringUnicode, Index: index, Payload: utf16.Encode([]rune(s))})
	return err
}

// WriteMagicBytes sends up to 255 raw bytes to a magic object
func (o *Device) WriteMagicBytes(ctx context.Context, index byte, data []byte) error {
	p := make(Payload, len(data))
	for i, b := range data {
		p[i] = uint16(b)
	}
	_, err := o.transact(ctx, Request{Command: MagicBytes, Index: index, Payload: p})
	return err
}

// WriteDoubleBytes sends up to 255 16 bit values to a magic object
func (o *Device) WriteDoubleBytes(ctx context.Context, index byte, data []uint16) error {
	_, err := o.transact(ctx, Request{Command: DoubleBytes, Index: index, Payload: Payload(data)})
	return err
}
