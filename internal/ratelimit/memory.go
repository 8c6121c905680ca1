package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory хранит окна в памяти процесса.
type Memory struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
}

// NewMemory создаёт лимитер в памяти.
func NewMemory() *Memory {
	return &Memory{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Check реализует Limiter.
func (m *Memory) Check(ctx context.Context, key string, rule Rule) (Decision, error) {
	const op = "ratelimit.Memory.Check"
	select {
	case <-ctx.Done():
		return Decision{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if rule.unlimited() {
		return Decision{Allowed: true}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-rule.Window)

	events := m.events[key]
	keep := 0
	for keep < len(events) && !events[keep].After(cutoff) {
		keep++
	}
	events = events[keep:]

	if len(events) >= rule.Max {
		m.events[key] = events
		return Decision{
			Allowed:    false,
			RetryAfter: events[0].Add(rule.Window).Sub(now),
		}, nil
	}

	m.events[key] = append(events, now)
	return Decision{Allowed: true, Remaining: rule.Max - len(events) - 1}, nil
}

// Cleanup удаляет ключи, все события которых старше maxWindow.
func (m *Memory) Cleanup(maxWindow time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxWindow)
	removed := 0
	for key, events := range m.events {
		if len(events) == 0 || !events[len(events)-1].After(cutoff) {
			delete(m.events, key)
			removed++
		}
	}
	return removed
}

// RunCleanup периодически вызывает Cleanup до отмены ctx.
func (m *Memory) RunCleanup(ctx context.Context, interval, maxWindow time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup(maxWindow)
		}
	}
}
