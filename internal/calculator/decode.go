package calculator

import (
	"fmt"
	"strconv"
	"strings"

	"riskcalc/internal/httputil"
	"riskcalc/internal/model"
	"riskcalc/internal/types"
)

// Request is a decoded calculation payload. FieldToUpdate is the hint as sent;
// it is matched exactly, without trimming.
type Request struct {
	Position      model.Position
	FieldToUpdate string
}

// DecodeRequest parses a raw JSON payload.
func DecodeRequest(data []byte) (Request, error) {
	var raw map[string]any
	if err := httputil.DecodeJSON(data, &raw); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw == nil {
		return Request{}, ErrInvalidPayload
	}
	return RequestFromMap(raw)
}

// RequestFromMap converts a loosely typed object into a Request. Numbers and
// numeric strings are accepted; null and "" leave a field absent; keys that
// are not position fields are ignored.
func RequestFromMap(raw map[string]any) (Request, error) {
	values := make(map[types.PositionField]float64, len(types.PositionFields))
	for _, f := range types.PositionFields {
		v, ok := raw[f.String()]
		if !ok {
			continue
		}
		num, present, err := toFloat(f, v)
		if err != nil {
			return Request{}, err
		}
		if present {
			values[f] = num
		}
	}

	req := Request{Position: model.NewPosition(values)}
	switch hint := raw[types.FieldToUpdateKey].(type) {
	case nil:
	case string:
		req.FieldToUpdate = hint
	default:
		// A non-string can never name a field. It is kept as text and
		// rejected by Service.Calculate, after validation.
		req.FieldToUpdate = fmt.Sprint(hint)
	}
	return req, nil
}

func toFloat(f types.PositionField, v any) (float64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return x, true, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, notANumber(f)
		}
		return n, true, nil
	default:
		return 0, false, notANumber(f)
	}
}

func notANumber(f types.PositionField) error {
	return &ValidationError{Field: f, Message: fmt.Sprintf("%s must be a finite number", f)}
}
