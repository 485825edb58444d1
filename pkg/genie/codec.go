package genie

import (
	"errors"
	"fmt"
)

// ErrValueRange is returned when a single byte payload element exceeds 0xff
var ErrValueRange = errors.New("genie: value does not fit into a byte")

// Payload is the variable part of string and magic frames. Each element is one
// byte on the wire, or two bytes (high byte first) for unicode strings and double bytes.
type Payload []uint16

// Validate checks the length limit imposed by the single length byte
func (p Payload) Validate(double bool) error {
	if len(p) > MaxPayload {
		return ErrTooLong
	}
	if double {
		return nil
	}
	for _, v := range p {
		if v > 0xff {
			return ErrValueRange
		}
	}
	return nil
}

func (p Payload) wire(double bool) []byte {
	if !double {
		b := make([]byte, len(p))
		for i, v := range p {
			b[i] = byte(v)
		}
		return b
	}
	b := make([]byte, 0, 2*len(p))
	for _, v := range p {
		b = append(b, byte(v>>8), byte(v))
	}
	return b
}

// Frame is a fixed size report from the display (ReportObject, ReportEvent)
type Frame struct {
	Command Command    `json:"cmd"`
	Object  ObjectType `json:"object"`
	Index   byte       `json:"index"`
	Data    uint16     `json:"data"`
}

// MagicFrame is a variable length report (magic bytes or double bytes)
type MagicFrame struct {
	Command Command `json:"cmd"`
	Index   byte    `json:"index"`
	Length  byte    `json:"length"` // declared element count, equals len(Payload)
	Payload Payload `json:"payload"`
}

// Checksum computes the XOR over b. A frame is valid when the checksum of all
// bytes but the last equals the last byte.
func Checksum(b []byte) byte {
	var c byte
	for _, x := range b {
		c ^= x
	}
	return c
}

func seal(b []byte) []byte {
	return append(b, Checksum(b))
}

// Encode returns the wire representation of a fixed report
func (f Frame) Encode() []byte {
	return seal([]byte{byte(f.Command), byte(f.Object), f.Index, byte(f.Data >> 8), byte(f.Data)})
}

// Encode returns the wire representation of a variable length report. The length
// byte is taken from len(Payload).
func (m MagicFrame) Encode() ([]byte, error) {
	if !m.Command.isVariable() {
		return nil, fmt.Errorf("genie: %v is not a variable length frame", m.Command)
	}
	double := m.Command.isDouble()
	if err := m.Payload.Validate(double); err != nil {
		return nil, err
	}
	b := []byte{byte(m.Command), m.Index, byte(len(m.Payload))}
	return seal(append(b, m.Payload.wire(double)...)), nil
}

// Request is a command as sent by the host
type Request struct {
	Command Command
	Object  ObjectType
	Index   byte
	Data    uint16  // WriteObject value or WriteContrast level
	Payload Payload // string characters or magic values
}

// EncodeRequest builds the frame for r, checksum included. Oversized payloads are
// rejected before anything is produced.
func EncodeRequest(r Request) ([]byte, error) {
	switch r.Command {
	case ReadObject:
		return seal([]byte{byte(r.Command), byte(r.Object), r.Index}), nil
	case WriteObject:
		return seal([]byte{byte(r.Command), byte(r.Object), r.Index, byte(r.Data >> 8), byte(r.Data)}), nil
	case WriteContrast:
		if r.Data > 0xff {
			return nil, ErrValueRange
		}
		return seal([]byte{byte(r.Command), byte(r.Data)}), nil
	case WriteString, WriteStringUnicode, MagicBytes, DoubleBytes:
		double := r.Command == WriteStringUnicode || r.Command.isDouble()
		if err := r.Payload.Validate(double); err != nil {
			return nil, err
		}
		b := []byte{byte(r.Command), r.Index, byte(len(r.Payload))}
		return seal(append(b, r.Payload.wire(double)...)), nil
	}
	return nil, fmt.Errorf("genie: can not encode %v as a host command", r.Command)
}

// ParseCommand decodes one host command from the start of b and returns it along
// with the number of bytes consumed. It is the display's view of the wire and is
// used by simulators and tests.
func ParseCommand(b []byte) (Request, int, error) {
	if len(b) == 0 {
		return Request{}, 0, ErrShortFrame
	}
	r := Request{Command: Command(b[0])}
	var n int
	switch r.Command {
	case ReadObject:
		n = 4
	case WriteObject:
		n = 6
	case WriteContrast:
		n = 3
	case WriteString, MagicBytes:
		if len(b) < 3 {
			return Request{}, 0, ErrShortFrame
		}
		n = 4 + int(b[2])
	case WriteStringUnicode, DoubleBytes:
		if len(b) < 3 {
			return Request{}, 0, ErrShortFrame
		}
		n = 4 + 2*int(b[2])
	default:
		return Request{}, 0, fmt.Errorf("genie: unknown host command %v", r.Command)
	}
	if len(b) < n {
		return Request{}, 0, ErrShortFrame
	}
	if Checksum(b[:n-1]) != b[n-1] {
		return Request{}, n, ErrChecksum
	}

	switch r.Command {
	case ReadObject:
		r.Object, r.Index = ObjectType(b[1]), b[2]
	case WriteObject:
		r.Object, r.Index = ObjectType(b[1]), b[2]
		r.Data = uint16(b[3])<<8 | uint16(b[4])
	case WriteContrast:
		r.Data = uint16(b[1])
	default:
		r.Index = b[1]
		l := int(b[2])
		r.Payload = make(Payload, l)
		body := b[3 : n-1]
		for i := 0; i < l; i++ {
			if r.Command == WriteStringUnicode || r.Command == DoubleBytes {
				r.Payload[i] = uint16(body[2*i])<<8 | uint16(body[2*i+1])
			} else {
				r.Payload[i] = uint16(body[i])
			}
		}
	}
	return r, n, nil
}
