package model

import (
	"riskcalc/internal/types"

	"github.com/shopspring/decimal"
)

// Position is an immutable, sparse set of position parameters. A field that
// was neither supplied nor derived is absent rather than zero.
type Position struct {
	values map[types.PositionField]float64
}

// NewPosition copies values into a new Position. Keys that are not position
// fields are dropped.
func NewPosition(values map[types.PositionField]float64) Position {
	p := Position{values: make(map[types.PositionField]float64, len(values))}
	for f, v := range values {
		if f.Valid() {
			p.values[f] = v
		}
	}
	return p
}

func (p Position) Get(f types.PositionField) (float64, bool) {
	v, ok := p.values[f]
	return v, ok
}

func (p Position) Has(f types.PositionField) bool {
	_, ok := p.values[f]
	return ok
}

func (p Position) Len() int {
	return len(p.values)
}

// Fields returns the present fields in canonical order.
func (p Position) Fields() []types.PositionField {
	out := make([]types.PositionField, 0, len(p.values))
	for _, f := range types.PositionFields {
		if _, ok := p.values[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Map returns a copy keyed by wire name, ready for JSON encoding.
func (p Position) Map() map[string]float64 {
	out := make(map[string]float64, len(p.values))
	for f, v := range p.values {
		out[f.String()] = v
	}
	return out
}

// Round returns a copy with every value rounded half away from zero to the
// given number of decimal places. A negative precision returns p unchanged.
// Values must be finite.
func (p Position) Round(places int32) Position {
	if places < 0 {
		return p
	}
	out := Position{values: make(map[types.PositionField]float64, len(p.values))}
	for f, v := range p.values {
		out.values[f] = decimal.NewFromFloat(v).Round(places).InexactFloat64()
	}
	return out
}

// Builder starts a mutable copy of p.
func (p Position) Builder() *PositionBuilder {
	b := &PositionBuilder{values: make(map[types.PositionField]float64, len(types.PositionFields))}
	for f, v := range p.values {
		b.values[f] = v
	}
	return b
}

// PositionBuilder accumulates derived values before they are frozen into a
// Position. It is not safe for concurrent use.
type PositionBuilder struct {
	values map[types.PositionField]float64
}

func (b *PositionBuilder) Get(f types.PositionField) (float64, bool) {
	v, ok := b.values[f]
	return v, ok
}

func (b *PositionBuilder) Has(f types.PositionField) bool {
	_, ok := b.values[f]
	return ok
}

// HasAll reports whether every field in fs is present.
func (b *PositionBuilder) HasAll(fs ...types.PositionField) bool {
	for _, f := range fs {
		if _, ok := b.values[f]; !ok {
			return false
		}
	}
	return true
}

// Value returns the field value or zero when absent. Callers check presence
// with HasAll first.
func (b *PositionBuilder) Value(f types.PositionField) float64 {
	return b.values[f]
}

func (b *PositionBuilder) Set(f types.PositionField, v float64) {
	b.values[f] = v
}

// Build freezes the current values into a new Position. The builder stays
// usable afterwards.
func (b *PositionBuilder) Build() Position {
	return NewPosition(b.values)
}
