package genie

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout      = errors.New("genie: no reply within timeout")
	ErrNak          = errors.New("genie: display answered NAK")
	ErrTooLong      = errors.New("genie: payload longer than 255 elements")
	ErrBadBase      = errors.New("genie: number base must be within 2..36")
	ErrChecksum     = errors.New("genie: checksum mismatch")
	ErrFrameTimeout = errors.New("genie: timed out inside a frame")
	ErrClosed       = errors.New("genie: device closed")
	ErrBadLink      = errors.New("genie: unsupported link")
	ErrBaudRate     = errors.New("genie: unsupported baud rate")
	ErrShortFrame   = errors.New("genie: frame too short")
	ErrAlreadyOpen  = errors.New("genie: device already open")
)

// TransportError reports a failure to open or configure the link to the display
type TransportError struct {
	Op   string
	Link string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("genie: %s %s: %v", e.Op, e.Link, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
