package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when the same control is submitted twice before
// the first submission finished
var ErrInFlight = errors.New("operation already in progress")

// Guard rejects a second submission of a control while the first is
// outstanding. It does not queue and does not deduplicate across
// processes. The zero value is ready to use.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Do runs fn unless key is already running
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	g.mu.Lock()
	if g.busy == nil {
		g.busy = make(map[string]struct{})
	}
	if _, ok := g.busy[key]; ok {
		g.mu.Unlock()
		return ErrInFlight
	}
	g.busy[key] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.busy, key)
		g.mu.Unlock()
	}()
	return fn(ctx)
}

// Busy reports whether key is running
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[key]
	return ok
}
