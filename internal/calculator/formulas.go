package calculator

import (
	"riskcalc/internal/model"
	"riskcalc/internal/types"
)

// rule derives target from inputs. eval is only called once every input is
// present in the builder.
type rule struct {
	name   string
	target types.PositionField
	inputs []types.PositionField
	eval   func(b *model.PositionBuilder) float64
}

func (r rule) ready(b *model.PositionBuilder) bool {
	return b.HasAll(r.inputs...)
}

func StopLossPercentFromPrice(entry, stop float64) float64 {
	return (1 - stop/entry) * 100
}

func StopLossPriceFromPercent(entry, stopPercent float64) float64 {
	return entry * (1 - stopPercent/100)
}

// StopLossPriceFromRisk places the stop so that a position of the given size
// loses exactly riskCurrency. riskCurrency/units equals
// accountValue*(riskPercent/100)/units once the risk amount is known.
func StopLossPriceFromRisk(entry, riskCurrency, units float64) float64 {
	return entry - riskCurrency/units
}

func UnitsFromRisk(account, riskPercent, entry, stop float64) float64 {
	return (riskPercent / 100 * account) / (entry - stop)
}

func UnitsFromRiskCurrency(riskCurrency, entry, stop float64) float64 {
	return riskCurrency / (entry - stop)
}

func TakeProfitPercentFromPrice(entry, target float64) float64 {
	return (target/entry - 1) * 100
}

func TakeProfitPriceFromPercent(entry, targetPercent float64) float64 {
	return entry * (1 + targetPercent/100)
}

func RiskCurrencyFromStop(entry, stop, units float64) float64 {
	return (entry - stop) * units
}

func RiskCurrencyFromPercent(account, riskPercent float64) float64 {
	return account * (riskPercent / 100)
}

func RiskPercentFromCurrency(riskCurrency, account float64) float64 {
	return riskCurrency / account * 100
}

var (
	ruleStopPriceFromPercent = rule{
		name:   "stop price from percent",
		target: types.FieldStopLossPrice,
		inputs: []types.PositionField{types.FieldEntryPrice, types.FieldStopLossPercent},
		eval: func(b *model.PositionBuilder) float64 {
			return StopLossPriceFromPercent(b.Value(types.FieldEntryPrice), b.Value(types.FieldStopLossPercent))
		},
	}
	ruleStopPercentFromPrice = rule{
		name:   "stop percent from price",
		target: types.FieldStopLossPercent,
		inputs: []types.PositionField{types.FieldEntryPrice, types.FieldStopLossPrice},
		eval: func(b *model.PositionBuilder) float64 {
			return StopLossPercentFromPrice(b.Value(types.FieldEntryPrice), b.Value(types.FieldStopLossPrice))
		},
	}
	ruleStopPriceFromRisk = rule{
		name:   "stop price from risk",
		target: types.FieldStopLossPrice,
		inputs: []types.PositionField{types.FieldEntryPrice, types.FieldRiskCurrency, types.FieldUnits},
		eval: func(b *model.PositionBuilder) float64 {
			return StopLossPriceFromRisk(b.Value(types.FieldEntryPrice), b.Value(types.FieldRiskCurrency), b.Value(types.FieldUnits))
		},
	}
	ruleTargetPriceFromPercent = rule{
		name:   "take profit price from percent",
		target: types.FieldTakeProfitPrice,
		inputs: []types.PositionField{types.FieldEntryPrice, types.FieldTakeProfitPercent},
		eval: func(b *model.PositionBuilder) float64 {
			return TakeProfitPriceFromPercent(b.Value(types.FieldEntryPrice), b.Value(types.FieldTakeProfitPercent))
		},
	}
	ruleTargetPercentFromPrice = rule{
		name:   "take profit percent from price",
		target: types.FieldTakeProfitPercent,
		inputs: []types.PositionField{types.FieldEntryPrice, types.FieldTakeProfitPrice},
		eval: func(b *model.PositionBuilder) float64 {
			return TakeProfitPercentFromPrice(b.Value(types.FieldEntryPrice), b.Value(types.FieldTakeProfitPrice))
		},
	}
	ruleRiskFromStop = rule{
		name:   "risk currency from stop",
		target: types.FieldRiskCurrency,
		inputs: []types.PositionField{types.FieldEntryPrice, types.FieldStopLossPrice, types.FieldUnits},
		eval: func(b *model.PositionBuilder) float64 {
			return RiskCurrencyFromStop(b.Value(types.FieldEntryPrice), b.Value(types.FieldStopLossPrice), b.Value(types.FieldUnits))
		},
	}
	ruleRiskFromAccount = rule{
		name:   "risk currency from account",
		target: types.FieldRiskCurrency,
		inputs: []types.PositionField{types.FieldAccountValue, types.FieldRiskPercent},
		eval: func(b *model.PositionBuilder) float64 {
			return RiskCurrencyFromPercent(b.Value(types.FieldAccountValue), b.Value(types.FieldRiskPercent))
		},
	}
	ruleRiskPercent = rule{
		name:   "risk percent",
		target: types.FieldRiskPercent,
		inputs: []types.PositionField{types.FieldRiskCurrency, types.FieldAccountValue},
		eval: func(b *model.PositionBuilder) float64 {
			return RiskPercentFromCurrency(b.Value(types.FieldRiskCurrency), b.Value(types.FieldAccountValue))
		},
	}
	ruleUnitsFromRiskCurrency = rule{
		name:   "units from risk currency",
		target: types.FieldUnits,
		inputs: []types.PositionField{types.FieldRiskCurrency, types.FieldEntryPrice, types.FieldStopLossPrice},
		eval: func(b *model.PositionBuilder) float64 {
			return UnitsFromRiskCurrency(b.Value(types.FieldRiskCurrency), b.Value(types.FieldEntryPrice), b.Value(types.FieldStopLossPrice))
		},
	}
	ruleUnitsFromAccountRisk = rule{
		name:   "units from account risk",
		target: types.FieldUnits,
		inputs: []types.PositionField{types.FieldAccountValue, types.FieldRiskPercent, types.FieldEntryPrice, types.FieldStopLossPrice},
		eval: func(b *model.PositionBuilder) float64 {
			return UnitsFromRisk(b.Value(types.FieldAccountValue), b.Value(types.FieldRiskPercent), b.Value(types.FieldEntryPrice), b.Value(types.FieldStopLossPrice))
		},
	}
)
