package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/worker"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
)

// SearchBox is a search-as-you-type field bound to a Query. Keystrokes are
// debounced and only the settled text is fetched.
type SearchBox[F Keyed, T any] struct {
	query    *Query[F, T]
	build    func(text string) F
	debounce *worker.Debouncer
	log      *logger.Logger

	mu     sync.Mutex
	text   string
	closed bool
}

// NewSearchBox binds a field to query. build turns the typed text into the
// full filter set, other active filters included.
func NewSearchBox[F Keyed, T any](query *Query[F, T], build func(text string) F, delay time.Duration, log *logger.Logger) *SearchBox[F, T] {
	if log == nil {
		log = logger.NewNop()
	}
	return &SearchBox[F, T]{
		query:    query,
		build:    build,
		debounce: worker.NewDebouncer(delay),
		log:      log.Named("search"),
	}
}

// Type records the field's new text and restarts the quiet period
func (b *SearchBox[F, T]) Type(ctx context.Context, text string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.text = text
	b.mu.Unlock()

	f := b.build(text)
	b.debounce.Trigger(func() { b.load(ctx, f) })
}

// Submit fetches the current text right away, as on Enter
func (b *SearchBox[F, T]) Submit(ctx context.Context) (State[T], error) {
	b.debounce.Stop()
	b.mu.Lock()
	text := b.text
	b.mu.Unlock()
	return b.query.Load(ctx, b.build(text))
}

// Text returns what was last typed
func (b *SearchBox[F, T]) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Close cancels a pending search. Later input is ignored.
func (b *SearchBox[F, T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.debounce.Stop()
}

func (b *SearchBox[F, T]) load(ctx context.Context, f F) {
	if _, err := b.query.Load(ctx, f); err != nil && !errors.Is(err, ErrSuperseded) {
		b.log.DebugContext(ctx, "search failed", zap.String("key", f.Key()), zap.Error(err))
	}
}
