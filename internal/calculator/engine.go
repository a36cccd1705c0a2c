package calculator

import (
	"math"

	"riskcalc/internal/model"
	"riskcalc/internal/types"
)

type stepMode int

const (
	// refresh overwrites the target with the first ready rule.
	refresh stepMode = iota
	// fill only writes a target that is still absent.
	fill
)

type step struct {
	mode  stepMode
	rules []rule
}

func refreshStep(rules ...rule) step { return step{mode: refresh, rules: rules} }

func fillStep(rules ...rule) step { return step{mode: fill, rules: rules} }

// plans lists, per edited field, the dependents to recompute in dependency
// order. Fields not reached here are left to the sweep.
var plans = map[types.PositionField][]step{
	types.FieldAccountValue: {
		fillStep(ruleStopPriceFromPercent),
		fillStep(ruleRiskFromStop),
		refreshStep(ruleRiskPercent),
	},
	types.FieldUnits: {
		fillStep(ruleStopPriceFromPercent),
		refreshStep(ruleRiskFromStop),
		refreshStep(ruleRiskPercent),
	},
	types.FieldEntryPrice: {
		refreshStep(ruleStopPriceFromPercent),
		refreshStep(ruleStopPercentFromPrice),
		refreshStep(ruleTargetPriceFromPercent),
		refreshStep(ruleTargetPercentFromPrice),
		refreshStep(ruleRiskFromStop),
		refreshStep(ruleRiskPercent),
	},
	types.FieldStopLossPrice: {
		refreshStep(ruleStopPercentFromPrice),
		refreshStep(ruleRiskFromStop),
		refreshStep(ruleRiskPercent),
	},
	types.FieldStopLossPercent: {
		refreshStep(ruleStopPriceFromPercent),
		refreshStep(ruleRiskFromStop),
		refreshStep(ruleRiskPercent),
	},
	types.FieldTakeProfitPrice: {
		refreshStep(ruleTargetPercentFromPrice),
	},
	types.FieldTakeProfitPercent: {
		refreshStep(ruleTargetPriceFromPercent),
	},
	types.FieldRiskCurrency: {
		refreshStep(ruleRiskPercent),
		fillStep(ruleStopPriceFromPercent),
		refreshStep(ruleUnitsFromRiskCurrency, ruleUnitsFromAccountRisk),
	},
	types.FieldRiskPercent: {
		refreshStep(ruleRiskFromAccount),
		fillStep(ruleStopPriceFromPercent),
		refreshStep(ruleUnitsFromRiskCurrency, ruleUnitsFromAccountRisk),
	},
}

// sweep is applied fill-only after the plan until nothing changes.
var sweep = []rule{
	ruleStopPriceFromPercent,
	ruleStopPercentFromPrice,
	ruleTargetPriceFromPercent,
	ruleTargetPercentFromPrice,
	ruleRiskFromStop,
	ruleRiskFromAccount,
	ruleRiskPercent,
	ruleUnitsFromRiskCurrency,
	ruleStopPriceFromRisk,
}

// Recalculation is the outcome of one engine run.
type Recalculation struct {
	Position model.Position
	// Applied names the rules that wrote a value, in order.
	Applied []string
}

// Recalculate derives every computable field of in. changed names the field
// the caller edited; its plan runs first and may overwrite stale dependents.
// An empty changed skips the plan. in is never modified.
func Recalculate(in model.Position, changed types.PositionField) (Recalculation, error) {
	var plan []step
	if changed != "" {
		p, ok := plans[changed]
		if !ok {
			return Recalculation{}, &UnknownFieldError{Name: string(changed)}
		}
		plan = p
	}

	b := in.Builder()
	var applied []string
	derived := make(map[types.PositionField]bool)

	for _, st := range plan {
		target := st.rules[0].target
		if st.mode == fill && b.Has(target) {
			continue
		}
		for _, r := range st.rules {
			if !r.ready(b) {
				continue
			}
			b.Set(r.target, r.eval(b))
			applied = append(applied, r.name)
			derived[r.target] = true
			break
		}
	}

	for pass := 0; pass <= len(sweep); pass++ {
		progressed := false
		for _, r := range sweep {
			if b.Has(r.target) || !r.ready(b) {
				continue
			}
			b.Set(r.target, r.eval(b))
			applied = append(applied, r.name)
			derived[r.target] = true
			progressed = true
		}
		if !progressed {
			break
		}
	}

	out := b.Build()
	if err := checkDerived(out, derived); err != nil {
		return Recalculation{}, err
	}
	return Recalculation{Position: out, Applied: applied}, nil
}

// checkDerived holds every written value to the same rules as input, so a
// successful result always validates when sent back. Non-finite values are
// reported before range violations.
func checkDerived(out model.Position, derived map[types.PositionField]bool) error {
	fields := out.Fields()
	for _, f := range fields {
		v, _ := out.Get(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DerivationError{Field: f, Value: v}
		}
	}
	for _, f := range fields {
		if !derived[f] {
			continue
		}
		v, _ := out.Get(f)
		if msg, ok := checkRange(f, v); !ok {
			return &DerivationError{Field: f, Value: v, Reason: msg}
		}
	}
	if f, msg, ok := checkRelations(out, derived); !ok {
		v, _ := out.Get(f)
		return &DerivationError{Field: f, Value: v, Reason: msg}
	}
	return nil
}
