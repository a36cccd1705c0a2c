package httputil

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// MaxBodyBytes caps request bodies read through ReadJSON.
const MaxBodyBytes = 1 << 20

var (
	ErrEmptyBody   = errors.New("request body is empty")
	ErrInvalidJSON = errors.New("invalid json")
	ErrBodyTooBig  = errors.New("request body too large")
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ReadJSON decodes the request body into v.
func ReadJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(data) > MaxBodyBytes {
		return ErrBodyTooBig
	}
	return DecodeJSON(data, v)
}

// DecodeJSON unmarshals raw bytes with the same rules as ReadJSON.
func DecodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyBody
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return ErrInvalidJSON
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}
