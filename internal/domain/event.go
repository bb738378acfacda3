package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Event is a church event that people register for. Preco nil or zero
// means the event is free; PrecoPromocional is an optional second tier.
type Event struct {
	ID               int64            `json:"id"`
	Titulo           string           `json:"titulo"`
	Data             Date             `json:"data"`
	Horario          string           `json:"horario,omitempty"`
	Descricao        string           `json:"descricao,omitempty"`
	Local            string           `json:"local,omitempty"`
	Preco            *decimal.Decimal `json:"preco,omitempty"`
	PrecoPromocional *decimal.Decimal `json:"precoPromocional,omitempty"`
	IgrejaID         int64            `json:"igrejaId,omitempty"`
}

// FullPrice returns the regular price, zero for free events
func (e Event) FullPrice() decimal.Decimal {
	if e.Preco == nil {
		return decimal.Zero
	}
	return *e.Preco
}

// PromotionalPrice returns the promotional tier and whether it is offered
func (e Event) PromotionalPrice() (decimal.Decimal, bool) {
	if e.PrecoPromocional == nil || !e.PrecoPromocional.IsPositive() {
		return decimal.Zero, false
	}
	return *e.PrecoPromocional, true
}

// HasFullPrice reports whether a positive regular price is set
func (e Event) HasFullPrice() bool {
	return e.Preco != nil && e.Preco.IsPositive()
}

// HasBothPrices reports whether the event offers two price tiers
func (e Event) HasBothPrices() bool {
	_, promo := e.PromotionalPrice()
	return e.HasFullPrice() && promo
}

// IsFree reports whether the event charges nothing at all
func (e Event) IsFree() bool {
	_, promo := e.PromotionalPrice()
	return !e.HasFullPrice() && !promo
}

// EventDraft is the create/update payload for an event. A promotional
// price must be lower than the full price.
type EventDraft struct {
	Titulo           string           `json:"titulo" validate:"required,min=3,max=120"`
	Data             Date             `json:"data" validate:"required"`
	Horario          string           `json:"horario,omitempty" validate:"omitempty,datetime=15:04"`
	Descricao        string           `json:"descricao,omitempty" validate:"omitempty,max=2000"`
	Local            string           `json:"local,omitempty" validate:"omitempty,max=200"`
	Preco            *decimal.Decimal `json:"preco,omitempty" validate:"omitempty,gte=0"`
	PrecoPromocional *decimal.Decimal `json:"precoPromocional,omitempty" validate:"omitempty,gte=0"`
}

func (d *EventDraft) Normalize() {
	d.Titulo = strings.TrimSpace(d.Titulo)
	d.Horario = strings.TrimSpace(d.Horario)
	d.Descricao = strings.TrimSpace(d.Descricao)
	d.Local = strings.TrimSpace(d.Local)
	if d.Preco != nil {
		p := d.Preco.Round(2)
		d.Preco = &p
	}
	if d.PrecoPromocional != nil {
		p := d.PrecoPromocional.Round(2)
		d.PrecoPromocional = &p
	}
}
