package genie

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownWidget is returned when a widget name is not in the catalog
var ErrUnknownWidget = errors.New("genie: unknown widget")

// Widget names one object on the display and describes how its raw 16 bit value
// maps to an engineering value: value = raw*Factor + Offset
type Widget struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Object      ObjectType `json:"object"`
	Index       byte       `json:"index"`

	Factor      float64 `json:"factor,omitempty"`
	Offset      float64 `json:"offset,omitempty"`
	LowerBorder float64 `json:"lower_border,omitempty"`
	UpperBorder float64 `json:"upper_border,omitempty"`
	Unit        string  `json:"unit,omitempty"`

	Value interface{} `json:"value,omitempty"`
}

// WidgetList is the catalog of named widgets
type WidgetList map[string]*Widget

func (w *Widget) factor() float64 {
	if w.Factor == 0 {
		return 1
	}
	return w.Factor
}

// Decode converts a raw object value to an engineering value
func (w *Widget) Decode(raw uint16) float64 {
	return float64(raw)*w.factor() + w.Offset
}

// Encode converts v back to a raw object value. Values are clamped to the borders
// when those differ; a result outside 0..65535 is an error.
func (w *Widget) Encode(v float64) (uint16, error) {
	if w.LowerBorder != w.UpperBorder {
		v = math.Max(w.LowerBorder, math.Min(w.UpperBorder, v))
	}
	raw := math.Round((v - w.Offset) / w.factor())
	if math.IsNaN(raw) || raw < 0 || raw > math.MaxUint16 {
		return 0, fmt.Errorf("genie: %v %s does not fit widget %s: %w", v, w.Unit, w.Name, ErrValueRange)
	}
	return uint16(raw), nil
}

func (e WidgetList) get(name string) (*Widget, error) {
	w, ok := e[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownWidget, name)
	}
	return w, nil
}

// ReadWidget reads a widget by name and returns its engineering value
func (o *Device) ReadWidget(ctx context.Context, name string) (float64, error) {
	w, err := o.Widgets.get(name)
	if err != nil {
		return 0, err
	}
	raw, err := o.ReadObj(ctx, w.Object, w.Index)
	if err != nil {
		return 0, err
	}
	return w.Decode(raw), nil
}

// WriteWidget sets a widget by name from an engineering value
func (o *Device) WriteWidget(ctx context.Context, name string, v float64) error {
	w, err := o.Widgets.get(name)
	if err != nil {
		return err
	}
	raw, err := w.Encode(v)
	if err != nil {
		return err
	}
	return o.WriteObj(ctx, w.Object, w.Index, raw)
}
