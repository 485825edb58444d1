package genie

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidgetScaling(t *testing.T) {
	w := &Widget{Name: "boiler", Factor: 0.1, Offset: -40, Unit: "°C"}
	assert.InDelta(t, 10.0, w.Decode(500), 1e-9)

	raw, err := w.Encode(10)
	require.NoError(t, err)
	assert.Equal(t, uint16(500), raw)

	_, err = w.Encode(-50)
	assert.ErrorIs(t, err, ErrValueRange)
}

func TestWidgetClampsToBorders(t *testing.T) {
	w := &Widget{Name: "level", LowerBorder: 0, UpperBorder: 100}
	raw, err := w.Encode(150)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), raw)

	raw, err = w.Encode(-3)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), raw)
}

func TestReadWriteWidget(t *testing.T) {
	fd := newFakeDisplay()
	dev := startDevice(t, fd, testOptions())
	dev.Widgets["boiler"] = &Widget{Name: "boiler", Object: ObjThermometer, Index: 1, Factor: 0.5}
	ctx := context.Background()

	require.NoError(t, dev.WriteWidget(ctx, "boiler", 21))
	assert.Equal(t, uint16(42), fd.values[[2]byte{byte(ObjThermometer), 1}])

	v, err := dev.ReadWidget(ctx, "boiler")
	require.NoError(t, err)
	assert.InDelta(t, 21.0, v, 1e-9)

	_, err = dev.ReadWidget(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownWidget)
	assert.ErrorIs(t, dev.WriteWidget(ctx, "nope", 1), ErrUnknownWidget)
}
