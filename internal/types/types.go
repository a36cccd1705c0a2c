package types

type PositionField string

const (
	FieldAccountValue      PositionField = "accountValue"
	FieldUnits             PositionField = "units"
	FieldEntryPrice        PositionField = "entryPrice"
	FieldStopLossPrice     PositionField = "stopLossPrice"
	FieldStopLossPercent   PositionField = "stopLossPercent"
	FieldTakeProfitPrice   PositionField = "takeProfitPrice"
	FieldTakeProfitPercent PositionField = "takeProfitPercent"
	FieldRiskCurrency      PositionField = "riskCurrency"
	FieldRiskPercent       PositionField = "riskPercent"
)

// FieldToUpdateKey is the payload key carrying the edited-field hint.
const FieldToUpdateKey = "fieldToUpdate"

// PositionFields lists every numeric field in canonical order. Validation and
// serialisation walk the record in this order.
var PositionFields = []PositionField{
	FieldAccountValue,
	FieldUnits,
	FieldEntryPrice,
	FieldStopLossPrice,
	FieldStopLossPercent,
	FieldTakeProfitPrice,
	FieldTakeProfitPercent,
	FieldRiskCurrency,
	FieldRiskPercent,
}

func (f PositionField) String() string {
	return string(f)
}

// Valid reports whether f names one of the numeric position fields.
func (f PositionField) Valid() bool {
	for _, known := range PositionFields {
		if f == known {
			return true
		}
	}
	return false
}

// ParsePositionField matches a field name exactly; names are case sensitive.
func ParsePositionField(name string) (PositionField, bool) {
	f := PositionField(name)
	if !f.Valid() {
		return "", false
	}
	return f, true
}
