package genie

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// FormatBase renders n in the given base with upper case digits and a leading
// minus sign for negative numbers
func FormatBase(n int64, base int) (string, error) {
	if base < 2 || base > 36 {
		return "", ErrBadBase
	}
	return strings.ToUpper(strconv.FormatInt(n, base)), nil
}

// FormatFloat renders f with precision significant digits, switching to exponent
// notation for very large or small values. precision <= 0 selects the shortest
// representation that reads back to the same float32.
func FormatFloat(f float32, precision int) string {
	if precision <= 0 {
		precision = -1
	}
	return strconv.FormatFloat(float64(f), 'g', precision, 32)
}

// WriteStrBase writes n formatted in base (2..36) to a strings object
func (o *Device) WriteStrBase(ctx context.Context, index byte, n int64, base int) error {
	s, err := FormatBase(n, base)
	if err != nil {
		return err
	}
	return o.WriteStr(ctx, index, s)
}

// WriteStrHex writes n as a hexadecimal string
func (o *Device) WriteStrHex(ctx context.Context, index byte, n int64) error {
	return o.WriteStrBase(ctx, index, n, 16)
}

// WriteStrDec writes n as a decimal string
func (o *Device) WriteStrDec(ctx context.Context, index byte, n int64) error {
	return o.WriteStrBase(ctx, index, n, 10)
}

// WriteStrOct writes n as an octal string
func (o *Device) WriteStrOct(ctx context.Context, index byte, n int64) error {
	return o.WriteStrBase(ctx, index, n, 8)
}

// WriteStrBin writes n as a binary string
func (o *Device) WriteStrBin(ctx context.Context, index byte, n int64) error {
	return o.WriteStrBase(ctx, index, n, 2)
}

// WriteStrFloat writes f with the given number of significant digits
func (o *Device) WriteStrFloat(ctx context.Context, index byte, f float32, precision int) error {
	return o.WriteStr(ctx, index, FormatFloat(f, precision))
}

// WriteShortToIntLedDigits writes a 16 bit value to an internal LED digits widget
func (o *Device) WriteShortToIntLedDigits(ctx context.Context, index byte, v int16) error {
	return o.WriteObj(ctx, ObjILedDigitsL, index, uint16(v))
}

// WriteLongToIntLedDigits writes a 32 bit value as two words, high word first.
// Other commands wait until both words are acknowledged.
func (o *Device) WriteLongToIntLedDigits(ctx context.Context, index byte, v int32) error {
	return o.writeWords(ctx, index, uint32(v))
}

// WriteFloatToIntLedDigits writes the IEEE 754 bits of v as two words, high word first
func (o *Device) WriteFloatToIntLedDigits(ctx context.Context, index byte, v float32) error {
	return o.writeWords(ctx, index, math.Float32bits(v))
}

// writeWords sends both halves of v in one hold of the wire, so no other command
// can reach the display between them
func (o *Device) writeWords(ctx context.Context, index byte, v uint32) error {
	reqs := [2]Request{
		{Command: WriteObject, Object: ObjILedDigitsH, Index: index, Data: uint16(v >> 16)},
		{Command: WriteObject, Object: ObjILedDigitsL, Index: index, Data: uint16(v)},
	}
	var frames [2][]byte
	for i, req := range reqs {
		b, err := EncodeRequest(req)
		if err != nil {
			return err
		}
		frames[i] = b
	}

	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()
	for i, req := range reqs {
		if _, err := o.exchange(ctx, req, frames[i]); err != nil {
			return err
		}
	}
	return nil
}
