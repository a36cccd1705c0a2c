package calculator

import (
	"fmt"
	"math"

	"riskcalc/internal/model"
	"riskcalc/internal/types"

	"github.com/shopspring/decimal"
)

// fieldRange is an open lower bound with an optional upper bound.
type fieldRange struct {
	min          float64
	max          float64
	hasMax       bool
	maxInclusive bool
}

func (r fieldRange) contains(v float64) bool {
	if v <= r.min {
		return false
	}
	if !r.hasMax {
		return true
	}
	if r.maxInclusive {
		return v <= r.max
	}
	return v < r.max
}

func (r fieldRange) describe(f types.PositionField) string {
	if !r.hasMax {
		return fmt.Sprintf("%s must be a number greater than %s", f, formatBound(r.min))
	}
	return fmt.Sprintf("%s must be a number between %s and %s", f, formatBound(r.min), formatBound(r.max))
}

func formatBound(v float64) string {
	return decimal.NewFromFloat(v).String()
}

var positive = fieldRange{min: 0}

var fieldRanges = map[types.PositionField]fieldRange{
	types.FieldAccountValue:      positive,
	types.FieldUnits:             positive,
	types.FieldEntryPrice:        positive,
	types.FieldStopLossPrice:     positive,
	types.FieldStopLossPercent:   {min: 0, max: 100, hasMax: true},
	types.FieldTakeProfitPrice:   positive,
	types.FieldTakeProfitPercent: positive,
	types.FieldRiskCurrency:      positive,
	types.FieldRiskPercent:       {min: 0, max: 100, hasMax: true, maxInclusive: true},
}

// Validate checks every present field against its range, in canonical order,
// and then the stop/target relations to the entry price. It stops at the
// first violation and never modifies p.
func Validate(p model.Position) error {
	for _, f := range p.Fields() {
		v, _ := p.Get(f)
		if msg, ok := checkRange(f, v); !ok {
			return &ValidationError{Field: f, Message: msg}
		}
	}
	if f, msg, ok := checkRelations(p, nil); !ok {
		return &ValidationError{Field: f, Message: msg}
	}
	return nil
}

func checkRange(f types.PositionField, v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%s must be a finite number", f), false
	}
	rng := fieldRanges[f]
	if !rng.contains(v) {
		return rng.describe(f), false
	}
	return "", true
}

// checkRelations verifies stop < entry < target. When only is non-nil, a
// relation is checked only if its stop or target field is in only.
func checkRelations(p model.Position, only map[types.PositionField]bool) (types.PositionField, string, bool) {
	entry, hasEntry := p.Get(types.FieldEntryPrice)
	if !hasEntry {
		return "", "", true
	}
	considered := func(f types.PositionField) bool { return only == nil || only[f] }
	if stop, ok := p.Get(types.FieldStopLossPrice); ok && considered(types.FieldStopLossPrice) && stop >= entry {
		return types.FieldStopLossPrice, "stop loss must be less than entry price", false
	}
	if target, ok := p.Get(types.FieldTakeProfitPrice); ok && considered(types.FieldTakeProfitPrice) && target <= entry {
		return types.FieldTakeProfitPrice, "take profit price must be greater than entry price", false
	}
	return "", "", true
}
