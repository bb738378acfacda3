package kids

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/worker"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
)

// Roster is the kids-area screen's view of active sessions. It refreshes
// on a fixed interval while started, so a check-in made at another desk
// shows up within one interval.
type Roster struct {
	svc      *Service
	tenantID int64
	poller   *worker.Poller

	mu       sync.Mutex
	sessions []domain.KidsCheckIn
	updated  time.Time
	err      error
	onChange func([]domain.KidsCheckIn)
	// gen counts local edits; a fetch started before one is stale
	gen uint64
}

// NewRoster creates a stopped roster for one church
func NewRoster(svc *Service, tenantID int64, interval time.Duration, log *logger.Logger) *Roster {
	r := &Roster{svc: svc, tenantID: tenantID}
	r.poller = worker.NewPoller(r.Refresh, log, &worker.PollerConfig{Name: "kids-roster", Interval: interval})
	return r
}

// OnChange registers fn to receive the list after every successful refresh
func (r *Roster) OnChange(fn func([]domain.KidsCheckIn)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Start loads the roster now and keeps polling until Stop
func (r *Roster) Start(ctx context.Context) error {
	return r.poller.Start(ctx)
}

func (r *Roster) Stop() {
	r.poller.Stop()
}

func (r *Roster) Running() bool {
	return r.poller.Running()
}

// Refresh reloads the active sessions. On failure the last list is kept. A
// list fetched before a local check-out finished is discarded.
func (r *Roster) Refresh(ctx context.Context) error {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	sessions, err := r.svc.ListActive(ctx, r.tenantID)

	r.mu.Lock()
	r.err = err
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if r.gen != gen {
		r.mu.Unlock()
		return nil
	}
	r.sessions = sessions
	r.updated = time.Now()
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(sessions)
	}
	return nil
}

// Sessions returns the last loaded list
func (r *Roster) Sessions() []domain.KidsCheckIn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.KidsCheckIn, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Updated is when the list was last loaded
func (r *Roster) Updated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updated
}

// LastError is the error of the last refresh, nil if it succeeded
func (r *Roster) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// FindByCode looks an active session up by its safety code
func (r *Roster) FindByCode(code string) (domain.KidsCheckIn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.CodigoSeguranca == code {
			return s, true
		}
	}
	return domain.KidsCheckIn{}, false
}

// CheckOut checks a listed child out and drops it from the list without
// waiting for the next poll
func (r *Roster) CheckOut(ctx context.Context, session domain.KidsCheckIn, confirm apiclient.Confirmer) error {
	prompt := fmt.Sprintf("Confirmar a saída de %s (código %s)?", session.NomeCrianca, session.CodigoSeguranca)
	if err := r.svc.checkOut(ctx, r.tenantID, session.ID, prompt, confirm); err != nil {
		return err
	}

	r.mu.Lock()
	kept := r.sessions[:0:0]
	for _, s := range r.sessions {
		if s.ID != session.ID {
			kept = append(kept, s)
		}
	}
	r.sessions = kept
	r.gen++
	r.mu.Unlock()
	return nil
}
