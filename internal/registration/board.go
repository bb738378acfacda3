package registration

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
)

// Transition is a status change observed on the board
type Transition struct {
	EventID int64     `json:"eventoId"`
	Number  string    `json:"numeroInscricao"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	At      time.Time `json:"at"`
}

// Board is the local view of attendee lists, one per event. It is updated
// after every write so the list does not wait for a refetch.
type Board struct {
	mu          sync.RWMutex
	events      map[int64]map[string]Registration // eventID -> numero -> registration
	transitions map[int64][]Transition
	now         func() time.Time
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{
		events:      make(map[int64]map[string]Registration),
		transitions: make(map[int64][]Transition),
		now:         time.Now,
	}
}

// Replace swaps in a freshly fetched list. Transitions between the old and
// new lists are recorded.
func (b *Board) Replace(eventID int64, regs []Registration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.events[eventID]
	fresh := make(map[string]Registration, len(regs))
	for _, r := range regs {
		if prev, ok := old[r.NumeroInscricao]; ok {
			b.recordLocked(eventID, prev, r)
		}
		fresh[r.NumeroInscricao] = r
	}
	b.events[eventID] = fresh
}

// Upsert stores one registration
func (b *Board) Upsert(eventID int64, r Registration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs, ok := b.events[eventID]
	if !ok {
		regs = make(map[string]Registration)
		b.events[eventID] = regs
	}
	if prev, ok := regs[r.NumeroInscricao]; ok {
		b.recordLocked(eventID, prev, r)
	}
	regs[r.NumeroInscricao] = r
}

func (b *Board) recordLocked(eventID int64, prev, next Registration) {
	if prev.Status == next.Status {
		return
	}
	b.transitions[eventID] = append(b.transitions[eventID], Transition{
		EventID: eventID,
		Number:  next.NumeroInscricao,
		From:    prev.Status,
		To:      next.Status,
		At:      b.now(),
	})
}

// Get returns a registration by number
func (b *Board) Get(eventID int64, number string) (Registration, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.events[eventID][number]
	if !ok {
		return Registration{}, ErrNotFound
	}
	return r, nil
}

// Attendees returns the event's registrations in display order
func (b *Board) Attendees(eventID int64) []Registration {
	b.mu.RLock()
	regs := make([]Registration, 0, len(b.events[eventID]))
	for _, r := range b.events[eventID] {
		regs = append(regs, r)
	}
	b.mu.RUnlock()

	return SortAttendees(regs)
}

// Revenue sums paid registrations of event
func (b *Board) Revenue(event domain.Event) decimal.Decimal {
	return Revenue(event, b.Attendees(event.ID))
}

// Counts returns how many registrations are in each status
func (b *Board) Counts(eventID int64) map[Status]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[Status]int, len(validTransitions))
	for _, r := range b.events[eventID] {
		counts[r.Status]++
	}
	return counts
}

// Transitions returns a copy of the status changes seen for an event
func (b *Board) Transitions(eventID int64) []Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Transition, len(b.transitions[eventID]))
	copy(result, b.transitions[eventID])
	return result
}

// Clear removes all data (for testing)
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[int64]map[string]Registration)
	b.transitions = make(map[int64][]Transition)
}
