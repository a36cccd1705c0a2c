// Package ratelimit throttles clients of the HTTP API, either in process or
// through Redis when several instances share one budget.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more request for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is an in-process token bucket per key.
type Memory struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     float64
	burst    float64
	idleTTL  time.Duration
	now      func() time.Time
}

type visitor struct {
	lastSeen time.Time
	tokens   float64
}

// NewMemory refills rate tokens per second up to burst.
func NewMemory(rate float64, burst int) *Memory {
	return &Memory{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    float64(burst),
		idleTTL:  3 * time.Minute,
		now:      time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	v, exists := m.visitors[key]
	if !exists {
		v = &visitor{tokens: m.burst, lastSeen: now}
		m.visitors[key] = v
	}

	elapsed := now.Sub(v.lastSeen).Seconds()
	v.lastSeen = now
	v.tokens += elapsed * m.rate
	if v.tokens > m.burst {
		v.tokens = m.burst
	}

	if v.tokens < 1 {
		return false, nil
	}
	v.tokens--
	return true, nil
}

// Prune drops visitors idle for longer than the idle TTL.
func (m *Memory) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idleTTL {
			delete(m.visitors, key)
		}
	}
}

// Run prunes once a minute until ctx is done.
func (m *Memory) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune()
		}
	}
}

var (
	_ Limiter = (*Memory)(nil)
	_ Limiter = (*Redis)(nil)
)
