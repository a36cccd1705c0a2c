package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"riskcalc/internal/types"
)

func postCalculate(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Calculate(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, rec.Body.String())
	}
	return rec, out
}

func number(t *testing.T, out map[string]any, key string) float64 {
	t.Helper()
	v, ok := out[key].(float64)
	if !ok {
		t.Fatalf("%s missing or not a number in %v", key, out)
	}
	return v
}

func TestHandlerCalculate(t *testing.T) {
	h := NewHandler(NewService(-1))

	rec, out := postCalculate(t, h, `{"accountValue":1000,"units":10,"entryPrice":100,"stopLossPrice":95,"fieldToUpdate":"stopLossPrice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !approxEqual(number(t, out, "stopLossPercent"), 5) {
		t.Errorf("stopLossPercent: %v", out["stopLossPercent"])
	}
	if !approxEqual(number(t, out, "riskCurrency"), 50) {
		t.Errorf("riskCurrency: %v", out["riskCurrency"])
	}
	if !approxEqual(number(t, out, "riskPercent"), 5) {
		t.Errorf("riskPercent: %v", out["riskPercent"])
	}
	if out["fieldToUpdate"] != "stopLossPrice" {
		t.Errorf("expected hint echoed back, got %v", out["fieldToUpdate"])
	}
}

func TestHandlerCalculateWithoutHint(t *testing.T) {
	h := NewHandler(NewService(-1))

	rec, out := postCalculate(t, h, `{"accountValue":1000,"units":10,"entryPrice":100,"takeProfitPrice":110}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !approxEqual(number(t, out, "takeProfitPercent"), 10) {
		t.Errorf("takeProfitPercent: %v", out["takeProfitPercent"])
	}
	if _, ok := out["fieldToUpdate"]; ok {
		t.Error("no hint should be echoed when none was sent")
	}
}

func TestHandlerCalculateErrors(t *testing.T) {
	h := NewHandler(NewService(-1))

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"out of range", `{"stopLossPercent":101}`, "between 0 and 100"},
		{"take profit at entry", `{"entryPrice":100,"takeProfitPrice":100,"fieldToUpdate":"takeProfitPrice"}`, "take profit price must be greater than entry price"},
		{"unknown field", `{"entryPrice":100,"fieldToUpdate":"leverage"}`, "Invalid field name."},
		{"malformed", `{"entryPrice":`, "invalid json"},
		{"empty body", ``, "request body is empty"},
		{"null body", `null`, "payload must be a JSON object"},
		{"non numeric", `{"units":"ten"}`, "units must be a finite number"},
		{"padded hint", `{"entryPrice":100,"fieldToUpdate":" units "}`, "Invalid field name."},
		{"numeric hint", `{"entryPrice":100,"fieldToUpdate":5}`, "Invalid field name."},
		{"range error beats numeric hint", `{"stopLossPercent":101,"fieldToUpdate":5}`, "stopLossPercent must be a number between 0 and 100"},
		{"stop pushed below zero", `{"entryPrice":100,"units":2,"riskCurrency":500,"fieldToUpdate":"riskCurrency"}`, "stopLossPrice could not be derived"},
		{"risk above account", `{"accountValue":100,"units":10,"entryPrice":100,"stopLossPrice":50}`, "riskPercent could not be derived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := postCalculate(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			msg, _ := out["error"].(string)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestServiceRoundsResult(t *testing.T) {
	svc := NewService(2)
	req := Request{Position: position(map[types.PositionField]float64{
		types.FieldEntryPrice:    3,
		types.FieldStopLossPrice: 2,
	})}

	pos, err := svc.Calculate(context.Background(), req)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	// (1 - 2/3) * 100 = 33.333...
	if v, _ := pos.Get(types.FieldStopLossPercent); v != 33.33 {
		t.Errorf("expected 33.33, got %v", v)
	}
}

func TestServiceValidatesBeforeHint(t *testing.T) {
	svc := NewService(-1)
	req := Request{
		Position:      position(map[types.PositionField]float64{types.FieldUnits: -1}),
		FieldToUpdate: "nope",
	}

	_, err := svc.Calculate(context.Background(), req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation to run first, got %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	if got := StatusFor(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
	if got := StatusFor(&UnknownFieldError{Name: "x"}); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandlerOutputValidatesWhenSentBack(t *testing.T) {
	h := NewHandler(NewService(-1))
	svc := NewService(-1)

	bodies := []string{
		`{"accountValue":1000,"units":10,"entryPrice":100,"stopLossPrice":95,"fieldToUpdate":"stopLossPrice"}`,
		`{"accountValue":1000,"riskPercent":2,"entryPrice":100,"stopLossPercent":5,"takeProfitPercent":300,"fieldToUpdate":"riskPercent"}`,
		`{"entryPrice":100,"units":10,"riskCurrency":50}`,
	}
	for _, body := range bodies {
		rec, out := postCalculate(t, h, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", body, rec.Code, rec.Body.String())
		}
		req, err := RequestFromMap(out)
		if err != nil {
			t.Fatalf("%s: response does not decode: %v", body, err)
		}
		if _, err := svc.Calculate(context.Background(), req); err != nil {
			t.Errorf("%s: response rejected when sent back: %v", body, err)
		}
	}
}
