// Package registration drives event registrations from sign-up to payment:
// the status state machine, price resolution, manual and online payment,
// and the attendee board.
package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
)

// Status is the lifecycle state of a registration
type Status string

const (
	StatusPending   Status = "PENDENTE"
	StatusPaid      Status = "PAGO"
	StatusCancelled Status = "CANCELADO"
)

// AmountType records which price tier a payment was taken at
type AmountType string

const (
	AmountFull        AmountType = "INTEGRAL"
	AmountPromotional AmountType = "PROMOCIONAL"
)

func (t AmountType) IsValid() bool {
	return t == AmountFull || t == AmountPromotional
}

// Payment methods accepted by UpdatePaymentMethod
const (
	MethodCash   = "DINHEIRO"
	MethodPix    = "PIX"
	MethodCard   = "CARTAO"
	MethodOnline = "ONLINE"
)

var (
	ErrInvalidTransition = errors.New("invalid registration status transition")
	ErrNotFound          = errors.New("registration not found")
)

// validTransitions lists the allowed next states of each status
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {}, // Terminal state
	StatusCancelled: {}, // Terminal state
}

// IsTerminal returns true if no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// IsValid returns true if s is a known status
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if moving to target is allowed
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Label is the status as shown to operators
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pendente"
	case StatusPaid:
		return "Pago"
	case StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// Registration is one attendee's sign-up for an event
type Registration struct {
	ID              int64            `json:"id"`
	Nome            string           `json:"nome"`
	Email           string           `json:"email"`
	Telefone        string           `json:"telefone,omitempty"`
	NumeroInscricao string           `json:"numeroInscricao"`
	Status          Status           `json:"status"`
	TipoValor       AmountType       `json:"tipoValor,omitempty"`
	ValorPago       *decimal.Decimal `json:"valorPago,omitempty"`
	FormaPagamento  string           `json:"formaPagamento,omitempty"`
	DataCriacao     domain.Timestamp `json:"dataCriacao"`
	EventoID        int64            `json:"eventoId,omitempty"`
}

// Transition moves r to target if the state machine allows it
func (r *Registration) Transition(target Status) error {
	if !r.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, r.Status, target)
	}
	r.Status = target
	return nil
}

// Attendee is the public registration form
type Attendee struct {
	Nome          string `json:"nome" validate:"required,min=3,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Telefone      string `json:"telefone" validate:"required,phone"`
	Consentimento bool   `json:"consentimento"`
}

func (a *Attendee) Normalize() {
	a.Nome = strings.TrimSpace(a.Nome)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Telefone = domain.OnlyDigits(a.Telefone)
}

type confirmPaymentRequest struct {
	TipoValor AmountType      `json:"tipoValor"`
	ValorPago decimal.Decimal `json:"valorPago"`
}

type paymentMethodRequest struct {
	FormaPagamento string `json:"formaPagamento" validate:"required,oneof=DINHEIRO PIX CARTAO ONLINE"`
}
