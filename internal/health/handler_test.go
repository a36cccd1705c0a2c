package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLiveAndReadyWithoutRedis(t *testing.T) {
	h := NewHandler(nil, time.Now().Add(-time.Minute), ":5000", "memory")

	for name, fn := range map[string]http.HandlerFunc{"live": h.Live, "ready": h.Ready} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", name, rec.Code)
		}
		var out map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out["status"] != "ok" {
			t.Errorf("%s: expected ok, got %v", name, out["status"])
		}
		if up, _ := out["uptime_sec"].(float64); up < 59 {
			t.Errorf("%s: unexpected uptime %v", name, out["uptime_sec"])
		}
	}
}

func TestReadyDegradedWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	h := NewHandler(rdb, time.Now(), ":5000", "redis")

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var out struct {
		Status string     `json:"status"`
		Redis  redisStats `json:"redis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "degraded" || !out.Redis.Configured || out.Redis.Reachable || out.Redis.Error == "" {
		t.Errorf("unexpected readiness %+v", out)
	}
}

func TestFullReportsApp(t *testing.T) {
	h := NewHandler(nil, time.Time{}, " :5000 ", "memory")
	rec := httptest.NewRecorder()
	h.Full(rec, httptest.NewRequest(http.MethodGet, "/health/full", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.App.HTTPAddr != ":5000" || out.App.RateLimiter != "memory" {
		t.Errorf("unexpected app stats %+v", out.App)
	}
	if out.Runtime.Goroutines < 1 || out.Process.PID == 0 {
		t.Errorf("runtime stats not filled: %+v %+v", out.Runtime, out.Process)
	}
	if out.Redis.Configured {
		t.Error("redis reported as configured")
	}
}

func TestMetrics(t *testing.T) {
	h := NewHandler(nil, time.Now(), ":5000", "memory")
	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "riskcalc_up 1") {
		t.Errorf("missing up gauge: %s", body)
	}
	if strings.Contains(body, "riskcalc_redis_up") {
		t.Error("redis metrics emitted without redis")
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}
