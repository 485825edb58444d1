package genie

import "sync/atomic"

// signals holds the ACK/NAK flags set by the listener and consumed by the
// transaction in flight
type signals struct {
	ack atomic.Bool
	nak atomic.Bool
}

// reset clears both flags; done right before a command is transmitted
func (s *signals) reset() {
	s.ack.Store(false)
	s.nak.Store(false)
}

// counters are monotonic diagnostics shared between the listener and callers
type counters struct {
	checksumErrors atomic.Uint64
	timeouts       atomic.Uint64
	frames         atomic.Uint64
	magicFrames    atomic.Uint64
	requestTimeout atomic.Uint64
	naks           atomic.Uint64
}

// Stats is a snapshot of the link diagnostics
type Stats struct {
	ChecksumErrors  uint64 `json:"checksum_errors"`
	FrameTimeouts   uint64 `json:"frame_timeouts"`
	Frames          uint64 `json:"frames"`
	MagicFrames     uint64 `json:"magic_frames"`
	Dropped         uint64 `json:"dropped"`
	MagicDropped    uint64 `json:"magic_dropped"`
	RequestTimeouts uint64 `json:"request_timeouts"`
	Naks            uint64 `json:"naks"`
}
