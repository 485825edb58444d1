package genie

// decodeState is the position of the Decoder within a frame
type decodeState byte

const (
	awaitCommand decodeState = iota
	awaitObject
	awaitIndex
	awaitPayload
	awaitMSB
	awaitLSB
	awaitChecksum
)

// EventKind tells which field of an Event is valid
type EventKind byte

const (
	EventNone EventKind = iota
	EventAck
	EventNak
	EventFrame
	EventMagic
)

// Event is the outcome of feeding a byte into the Decoder
type Event struct {
	Kind  EventKind
	Frame Frame
	Magic MagicFrame
}

// Decoder turns the byte stream coming from the display into events. ACK and NAK
// are only recognised between frames; every other frame is checksum verified and
// only emitted as a whole.
type Decoder struct {
	state  decodeState
	cmd    Command
	object byte
	index  byte
	msb    byte
	lsb    byte
	csum   byte
	want   int
	buf    []byte
}

// InFrame reports whether a frame has been started but not completed
func (d *Decoder) InFrame() bool {
	return d.state != awaitCommand
}

// Reset abandons a partially received frame
func (d *Decoder) Reset() {
	d.state = awaitCommand
	d.buf = d.buf[:0]
}

// Feed advances the state machine by one byte. A completed frame is returned as an
// Event; a frame failing its checksum is dropped and ErrChecksum returned.
func (d *Decoder) Feed(b byte) (Event, error) {
	switch d.state {
	case awaitCommand:
		switch b {
		case ACK:
			return Event{Kind: EventAck}, nil
		case NAK:
			return Event{Kind: EventNak}, nil
		}
		d.cmd = Command(b)
		d.csum = b
		d.state = awaitObject
	case awaitObject:
		d.object = b
		d.csum ^= b
		d.state = awaitIndex
	case awaitIndex:
		d.index = b
		d.csum ^= b
		if !d.cmd.isVariable() {
			d.state = awaitMSB
			break
		}
		d.want = int(b)
		if d.cmd.isDouble() {
			d.want *= 2
		}
		d.buf = d.buf[:0]
		if d.want == 0 {
			d.state = awaitChecksum
		} else {
			d.state = awaitPayload
		}
	case awaitPayload:
		d.buf = append(d.buf, b)
		d.csum ^= b
		if len(d.buf) == d.want {
			d.state = awaitChecksum
		}
	case awaitMSB:
		d.msb = b
		d.csum ^= b
		d.state = awaitLSB
	case awaitLSB:
		d.lsb = b
		d.csum ^= b
		d.state = awaitChecksum
	case awaitChecksum:
		d.state = awaitCommand
		if b != d.csum {
			return Event{}, ErrChecksum
		}
		return d.emit(), nil
	}
	return Event{}, nil
}

func (d *Decoder) emit() Event {
	if !d.cmd.isVariable() {
		return Event{Kind: EventFrame, Frame: Frame{
			Command: d.cmd,
			Object:  ObjectType(d.object),
			Index:   d.index,
			Data:    uint16(d.msb)<<8 | uint16(d.lsb),
		}}
	}

	m := MagicFrame{Command: d.cmd, Index: d.object, Length: d.index, Payload: make(Payload, d.index)}
	for i := range m.Payload {
		if d.cmd.isDouble() {
			m.Payload[i] = uint16(d.buf[2*i])<<8 | uint16(d.buf[2*i+1])
		} else {
			m.Payload[i] = uint16(d.buf[i])
		}
	}
	return Event{Kind: EventMagic, Magic: m}
}
