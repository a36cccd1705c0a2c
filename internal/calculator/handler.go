package calculator

import (
	"errors"
	"net/http"

	"riskcalc/internal/httputil"
	"riskcalc/internal/model"
	"riskcalc/internal/types"

	"github.com/rs/zerolog"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Calculate handles POST /calculate.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := httputil.ReadJSON(r, &raw); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw == nil {
		httputil.WriteError(w, http.StatusBadRequest, ErrInvalidPayload.Error())
		return
	}
	req, err := RequestFromMap(raw)
	if err != nil {
		httputil.WriteError(w, StatusFor(err), err.Error())
		return
	}
	pos, err := h.svc.Calculate(r.Context(), req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("calculate failed")
		}
		httputil.WriteError(w, status, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResponseBody(req, pos))
}

// ResponseBody renders a result with the caller's fieldToUpdate echoed back.
func ResponseBody(req Request, pos model.Position) map[string]any {
	out := make(map[string]any, pos.Len()+1)
	for f, v := range pos.Map() {
		out[f] = v
	}
	if req.FieldToUpdate != "" {
		out[types.FieldToUpdateKey] = req.FieldToUpdate
	}
	return out
}

// StatusFor maps a calculation error to an HTTP status.
func StatusFor(err error) int {
	if IsClientError(err) || errors.Is(err, httputil.ErrInvalidJSON) || errors.Is(err, httputil.ErrEmptyBody) || errors.Is(err, httputil.ErrBodyTooBig) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
