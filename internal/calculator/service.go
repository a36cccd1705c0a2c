package calculator

import (
	"context"

	"riskcalc/internal/model"
	"riskcalc/internal/types"

	"github.com/rs/zerolog"
)

// Service validates calculation requests and runs the recalculation engine.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	precision int32
}

// NewService returns a Service. A non-negative precision rounds every value
// of a successful result to that many decimal places.
func NewService(precision int32) *Service {
	return &Service{precision: precision}
}

func (s *Service) Calculate(ctx context.Context, req Request) (model.Position, error) {
	logger := zerolog.Ctx(ctx)

	if err := Validate(req.Position); err != nil {
		logger.Debug().Err(err).Msg("calculator: validation failed")
		return model.Position{}, err
	}

	var changed types.PositionField
	if req.FieldToUpdate != "" {
		f, ok := types.ParsePositionField(req.FieldToUpdate)
		if !ok {
			err := &UnknownFieldError{Name: req.FieldToUpdate}
			logger.Debug().Str("field_to_update", req.FieldToUpdate).Msg("calculator: unknown field")
			return model.Position{}, err
		}
		changed = f
	}

	res, err := Recalculate(req.Position, changed)
	if err != nil {
		logger.Debug().Err(err).Str("field_to_update", changed.String()).Msg("calculator: derivation failed")
		return model.Position{}, err
	}

	logger.Debug().
		Str("field_to_update", changed.String()).
		Int("supplied", req.Position.Len()).
		Int("resolved", res.Position.Len()).
		Strs("applied", res.Applied).
		Msg("calculator: recalculated")

	return res.Position.Round(s.precision), nil
}
