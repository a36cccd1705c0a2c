package httpserver

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"riskcalc/internal/calculator"

	"github.com/gorilla/websocket"
)

func dialCalculate(t *testing.T, origin string) *websocket.Conn {
	t.Helper()
	svc := calculator.NewService(-1)
	srv := httptest.NewServer(NewCalculateWSHandler(svc, origin))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestCalculateWSRoundTrip(t *testing.T) {
	conn := dialCalculate(t, "*")

	msgs := []string{
		`{"accountValue":1000,"units":10,"entryPrice":100,"stopLossPrice":95,"fieldToUpdate":"stopLossPrice"}`,
		`{"stopLossPercent":101}`,
		`not json`,
	}
	for _, m := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var first map[string]any
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if rc, _ := first["riskCurrency"].(float64); math.Abs(rc-50) > 1e-9 {
		t.Errorf("expected riskCurrency 50, got %v", first["riskCurrency"])
	}
	if first["fieldToUpdate"] != "stopLossPrice" {
		t.Errorf("hint not echoed: %v", first["fieldToUpdate"])
	}

	var second map[string]any
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg, _ := second["error"].(string); !strings.Contains(msg, "between 0 and 100") {
		t.Errorf("expected range error, got %v", second)
	}

	var third map[string]any
	if err := conn.ReadJSON(&third); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg, _ := third["error"].(string); !strings.Contains(msg, "payload must be a JSON object") {
		t.Errorf("expected payload error, got %v", third)
	}
}

func TestCalculateWSRejectsForeignOrigin(t *testing.T) {
	svc := calculator.NewService(-1)
	srv := httptest.NewServer(NewCalculateWSHandler(svc, "http://ui.test"))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.test")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}

func TestAllowOrigin(t *testing.T) {
	tests := []struct {
		configured string
		request    string
		want       bool
	}{
		{"*", "http://any.test", true},
		{"http://ui.test", "", true},
		{"http://ui.test", "http://UI.test", true},
		{"http://ui.test", "http://other.test", false},
		{"http://localhost:5173", "http://127.0.0.1:5173", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/calculate/ws", nil)
		if tt.request != "" {
			r.Header.Set("Origin", tt.request)
		}
		if got := allowOrigin(r, tt.configured); got != tt.want {
			t.Errorf("allowOrigin(%q, %q) = %v, want %v", tt.configured, tt.request, got, tt.want)
		}
	}
}
