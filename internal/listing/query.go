// Package listing keeps list screens stable while they refetch: the last
// good page stays visible, a late answer for old filters is dropped and
// failures render as an empty list with a message.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

// ErrSuperseded is returned for a response whose filters are no longer the
// current ones. Its data was discarded.
var ErrSuperseded = errors.New("listing: result superseded by newer filters")

// Keyed is a filter set with a canonical key
type Keyed interface {
	Key() string
}

// State is what a list screen renders
type State[T any] struct {
	// Key of the filters the screen currently asks for
	Key string
	// DataKey of the filters Page was fetched with. It differs from Key
	// while a refetch is outstanding.
	DataKey string
	Page    response.Page[T]
	Loading bool
	Message string
	Err     error
}

// Stale reports whether the visible page belongs to older filters
func (s State[T]) Stale() bool {
	return s.Key != s.DataKey
}

// Query runs fetches for a list screen, last request wins by filter key
type Query[F Keyed, T any] struct {
	fetch func(ctx context.Context, f F) (response.Page[T], error)

	mu       sync.Mutex
	state    State[T]
	onChange []func(State[T])
}

func NewQuery[F Keyed, T any](fetch func(ctx context.Context, f F) (response.Page[T], error)) *Query[F, T] {
	return &Query[F, T]{fetch: fetch}
}

// OnChange registers fn to receive every state change. fn runs with the
// query locked and must not call back into it.
func (q *Query[F, T]) OnChange(fn func(State[T])) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = append(q.onChange, fn)
}

// State returns the current state
func (q *Query[F, T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Load makes f the current filters and fetches them. The previous page
// stays in the state until the answer arrives. If f stopped being current
// meanwhile, the answer is dropped and ErrSuperseded returned.
func (q *Query[F, T]) Load(ctx context.Context, f F) (State[T], error) {
	key := f.Key()

	q.mu.Lock()
	q.state.Key = key
	q.state.Loading = true
	q.notifyLocked()
	q.mu.Unlock()

	page, err := q.fetch(ctx, f)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state.Key != key {
		return q.state, ErrSuperseded
	}

	q.state.Loading = false
	q.state.DataKey = key
	if err != nil {
		q.state.Page = response.Page[T]{Content: []T{}}
		q.state.Message = apiclient.Message(err)
		q.state.Err = err
	} else {
		if page.Content == nil {
			page.Content = []T{}
		}
		q.state.Page = page
		q.state.Message = ""
		q.state.Err = nil
	}
	q.notifyLocked()
	return q.state, err
}

func (q *Query[F, T]) notifyLocked() {
	for _, fn := range q.onChange {
		fn(q.state)
	}
}
