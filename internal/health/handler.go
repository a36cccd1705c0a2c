package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"riskcalc/internal/httputil"

	"github.com/redis/go-redis/v9"
)

type Handler struct {
	rdb       *redis.Client
	startedAt time.Time
	httpAddr  string
	limiter   string
}

// NewHandler reports on the process and, when rdb is non-nil, on Redis.
// limiterMode names the active rate limiter for diagnostics.
func NewHandler(rdb *redis.Client, startedAt time.Time, httpAddr, limiterMode string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		rdb:       rdb,
		startedAt: start,
		httpAddr:  strings.TrimSpace(httpAddr),
		limiter:   strings.TrimSpace(limiterMode),
	}
}

type healthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	UptimeSec   int64             `json:"uptime_sec"`
	Uptime      string            `json:"uptime"`
	App         appStats          `json:"app"`
	Process     processStats      `json:"process"`
	Runtime     runtimeStats      `json:"runtime"`
	Memory      memoryStats       `json:"memory"`
	Redis       redisStats        `json:"redis"`
	Build       buildStats        `json:"build"`
	Diagnostics map[string]string `json:"diagnostics,omitempty"`
}

type appStats struct {
	HTTPAddr    string `json:"http_addr"`
	RateLimiter string `json:"rate_limiter"`
}

type processStats struct {
	PID      int    `json:"pid"`
	Hostname string `json:"hostname"`
	GoOS     string `json:"go_os"`
	GoArch   string `json:"go_arch"`
}

type runtimeStats struct {
	GoVersion   string `json:"go_version"`
	Goroutines  int    `json:"goroutines"`
	GoMaxProcs  int    `json:"gomaxprocs"`
	CPUCount    int    `json:"cpu_count"`
	NumGC       uint32 `json:"num_gc"`
	LastGCMsAgo int64  `json:"last_gc_ms_ago"`
}

type memoryStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapInuseBytes  uint64 `json:"heap_inuse_bytes"`
	StackInuseBytes uint64 `json:"stack_inuse_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	HeapObjects     uint64 `json:"heap_objects"`
}

type redisStats struct {
	Configured bool      `json:"configured"`
	Reachable  bool      `json:"reachable"`
	PingMs     int64     `json:"ping_ms"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  string    `json:"checked_at"`
	Pool       poolStats `json:"pool"`
	TimeoutSec int       `json:"timeout_sec"`
}

type poolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type buildStats struct {
	MainPath string `json:"main_path"`
	Version  string `json:"version"`
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type readinessResponse struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp"`
	UptimeSec int64      `json:"uptime_sec"`
	Uptime    string     `json:"uptime"`
	Redis     redisStats `json:"redis"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

// ok is true when Redis is either not configured or answered the ping.
func (s redisStats) ok() bool {
	return !s.Configured || s.Reachable
}

func (h *Handler) collectRedis(ctx context.Context, includePool bool) redisStats {
	out := redisStats{
		Configured: h.rdb != nil,
		TimeoutSec: 1,
		CheckedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if h.rdb == nil {
		return out
	}
	if includePool {
		if st := h.rdb.PoolStats(); st != nil {
			out.Pool = poolStats{
				Hits:       st.Hits,
				Misses:     st.Misses,
				Timeouts:   st.Timeouts,
				TotalConns: st.TotalConns,
				IdleConns:  st.IdleConns,
				StaleConns: st.StaleConns,
			}
		}
	}
	pingStart := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(out.TimeoutSec)*time.Second)
	pingErr := h.rdb.Ping(pingCtx).Err()
	cancel()
	out.PingMs = time.Since(pingStart).Milliseconds()
	out.CheckedAt = time.Now().UTC().Format(time.RFC3339)
	if pingErr != nil {
		out.Error = pingErr.Error()
	} else {
		out.Reachable = true
	}
	return out
}

// Live is a lightweight liveness endpoint and does not touch Redis.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	})
}

// Ready returns 503 when a configured Redis is not reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	rs := h.collectRedis(r.Context(), false)
	status := "ok"
	httpStatus := http.StatusOK
	if !rs.ok() {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		Redis:     rs,
	})
}

// Full returns process, runtime and Redis diagnostics.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	lastGCMsAgo := int64(0)
	if mem.LastGC > 0 {
		lastGCMsAgo = now.Sub(time.Unix(0, int64(mem.LastGC))).Milliseconds()
		if lastGCMsAgo < 0 {
			lastGCMsAgo = 0
		}
	}

	rs := h.collectRedis(r.Context(), true)

	build := buildStats{}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		build.MainPath = strings.TrimSpace(info.Main.Path)
		build.Version = strings.TrimSpace(info.Main.Version)
	}

	host := ""
	if h, err := os.Hostname(); err == nil {
		host = h
	}

	status := "ok"
	httpStatus := http.StatusOK
	diag := map[string]string{}
	if !rs.ok() {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		if rs.Error != "" {
			diag["redis_error"] = rs.Error
		}
	}

	resp := healthResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		App: appStats{
			HTTPAddr:    h.httpAddr,
			RateLimiter: h.limiter,
		},
		Process: processStats{
			PID:      os.Getpid(),
			Hostname: host,
			GoOS:     runtime.GOOS,
			GoArch:   runtime.GOARCH,
		},
		Runtime: runtimeStats{
			GoVersion:   runtime.Version(),
			Goroutines:  runtime.NumGoroutine(),
			GoMaxProcs:  runtime.GOMAXPROCS(0),
			CPUCount:    runtime.NumCPU(),
			NumGC:       mem.NumGC,
			LastGCMsAgo: lastGCMsAgo,
		},
		Memory: memoryStats{
			AllocBytes:      mem.Alloc,
			HeapAllocBytes:  mem.HeapAlloc,
			HeapInuseBytes:  mem.HeapInuse,
			StackInuseBytes: mem.StackInuse,
			SysBytes:        mem.Sys,
			TotalAllocBytes: mem.TotalAlloc,
			HeapObjects:     mem.HeapObjects,
		},
		Redis: rs,
		Build: build,
	}
	if len(diag) > 0 {
		resp.Diagnostics = diag
	}
	httputil.WriteJSON(w, httpStatus, resp)
}

// Metrics returns basic Prometheus-compatible metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	rs := h.collectRedis(r.Context(), false)
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	redisUp := 0
	if rs.Reachable {
		redisUp = 1
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "# HELP riskcalc_up Service process is running.\n")
	_, _ = fmt.Fprintf(w, "# TYPE riskcalc_up gauge\n")
	_, _ = fmt.Fprintf(w, "riskcalc_up 1\n")

	_, _ = fmt.Fprintf(w, "# HELP riskcalc_uptime_seconds Service uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE riskcalc_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "riskcalc_uptime_seconds %d\n", int64(uptime.Seconds()))

	if rs.Configured {
		_, _ = fmt.Fprintf(w, "# HELP riskcalc_redis_up Redis ping status (1=ok,0=down).\n")
		_, _ = fmt.Fprintf(w, "# TYPE riskcalc_redis_up gauge\n")
		_, _ = fmt.Fprintf(w, "riskcalc_redis_up %d\n", redisUp)
		_, _ = fmt.Fprintf(w, "riskcalc_redis_ping_milliseconds %d\n", rs.PingMs)
	}

	_, _ = fmt.Fprintf(w, "# HELP riskcalc_go_goroutines Number of goroutines.\n")
	_, _ = fmt.Fprintf(w, "# TYPE riskcalc_go_goroutines gauge\n")
	_, _ = fmt.Fprintf(w, "riskcalc_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "riskcalc_go_gomaxprocs %d\n", runtime.GOMAXPROCS(0))
	_, _ = fmt.Fprintf(w, "riskcalc_go_mem_alloc_bytes %d\n", mem.Alloc)
	_, _ = fmt.Fprintf(w, "riskcalc_go_mem_heap_alloc_bytes %d\n", mem.HeapAlloc)
	_, _ = fmt.Fprintf(w, "riskcalc_go_mem_heap_inuse_bytes %d\n", mem.HeapInuse)
	_, _ = fmt.Fprintf(w, "riskcalc_go_mem_sys_bytes %d\n", mem.Sys)
	_, _ = fmt.Fprintf(w, "riskcalc_go_gc_count %d\n", mem.NumGC)
}
