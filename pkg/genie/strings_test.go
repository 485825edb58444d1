package genie

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBase(t *testing.T) {
	tests := []struct {
		n    int64
		base int
		want string
	}{
		{255, 16, "FF"},
		{-255, 16, "-FF"},
		{10, 2, "1010"},
		{8, 8, "10"},
		{0, 10, "0"},
		{35, 36, "Z"},
	}
	for _, tt := range tests {
		got, err := FormatBase(tt.n, tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := FormatBase(1, 1)
	assert.ErrorIs(t, err, ErrBadBase)
	_, err = FormatBase(1, 37)
	assert.ErrorIs(t, err, ErrBadBase)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "3.14", FormatFloat(3.14159, 3))
	assert.Equal(t, "1.5", FormatFloat(1.5, 0))
	assert.Equal(t, "1e+10", FormatFloat(1e10, 3))
	assert.Equal(t, "-0.25", FormatFloat(-0.25, 4))
}

func TestWriteStrHelpers(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())
	ctx := context.Background()

	require.NoError(t, dev.WriteStrHex(ctx, 1, 0xabc))
	assert.ErrorIs(t, dev.WriteStrBase(ctx, 1, 5, 40), ErrBadBase)
	require.NoError(t, dev.WriteStrFloat(ctx, 2, 2.5, 2))

	b := fd.log()
	req, n, err := ParseCommand(b)
	require.NoError(t, err)
	assert.Equal(t, Payload{'A', 'B', 'C'}, req.Payload)

	req, _, err = ParseCommand(b[n:])
	require.NoError(t, err)
	assert.Equal(t, byte(2), req.Index)
	assert.Equal(t, Payload{'2', '.', '5'}, req.Payload)
}

func TestIntLedDigits(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())
	ctx := context.Background()

	require.NoError(t, dev.WriteLongToIntLedDigits(ctx, 4, 0x12345678))
	assert.Equal(t, uint16(0x1234), fd.values[[2]byte{byte(ObjILedDigitsH), 4}])
	assert.Equal(t, uint16(0x5678), fd.values[[2]byte{byte(ObjILedDigitsL), 4}])

	b := fd.log()
	req, n, err := ParseCommand(b)
	require.NoError(t, err)
	assert.Equal(t, ObjILedDigitsH, req.Object, "high word goes first")
	req, _, err = ParseCommand(b[n:])
	require.NoError(t, err)
	assert.Equal(t, ObjILedDigitsL, req.Object)

	require.NoError(t, dev.WriteFloatToIntLedDigits(ctx, 5, 1.0))
	assert.Equal(t, uint16(0x3f80), fd.values[[2]byte{byte(ObjILedDigitsH), 5}])
	assert.Equal(t, uint16(0), fd.values[[2]byte{byte(ObjILedDigitsL), 5}])

	require.NoError(t, dev.WriteShortToIntLedDigits(ctx, 6, -1))
	assert.Equal(t, uint16(0xffff), fd.values[[2]byte{byte(ObjILedDigitsL), 6}])
}
