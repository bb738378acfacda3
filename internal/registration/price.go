package registration

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
)

var (
	ErrFreeEvent             = errors.New("event is free, there is no payment to confirm")
	ErrAmountTypeRequired    = errors.New("event has two prices, amount type is required")
	ErrAmountTypeUnavailable = errors.New("amount type is not offered by this event")
)

// ResolveAmount decides the tier and value charged for a payment. With two
// tiers the caller must choose; with one the tier is implied and any other
// explicit choice is rejected.
func ResolveAmount(event domain.Event, t AmountType) (AmountType, decimal.Decimal, error) {
	if event.IsFree() {
		return "", decimal.Zero, ErrFreeEvent
	}
	if t != "" && !t.IsValid() {
		return "", decimal.Zero, ErrAmountTypeUnavailable
	}

	promo, hasPromo := event.PromotionalPrice()
	switch {
	case event.HasBothPrices():
		switch t {
		case AmountFull:
			return AmountFull, event.FullPrice(), nil
		case AmountPromotional:
			return AmountPromotional, promo, nil
		default:
			return "", decimal.Zero, ErrAmountTypeRequired
		}
	case hasPromo:
		if t == AmountFull {
			return "", decimal.Zero, ErrAmountTypeUnavailable
		}
		return AmountPromotional, promo, nil
	default:
		if t == AmountPromotional {
			return "", decimal.Zero, ErrAmountTypeUnavailable
		}
		return AmountFull, event.FullPrice(), nil
	}
}

// ResolvedPrice is the price a paid registration counts for. The recorded
// tier wins; records from before tiers were stored fall back to comparing
// the paid value with the promotional price.
func ResolvedPrice(event domain.Event, r Registration) decimal.Decimal {
	promo, hasPromo := event.PromotionalPrice()

	switch r.TipoValor {
	case AmountPromotional:
		if hasPromo {
			return promo
		}
		return event.FullPrice()
	case AmountFull:
		return event.FullPrice()
	}

	if hasPromo && r.ValorPago != nil && r.ValorPago.Equal(promo) {
		return promo
	}
	return event.FullPrice()
}

// Revenue sums ResolvedPrice over paid registrations
func Revenue(event domain.Event, regs []Registration) decimal.Decimal {
	total := decimal.Zero
	for _, r := range regs {
		if r.Status == StatusPaid {
			total = total.Add(ResolvedPrice(event, r))
		}
	}
	return total
}

// statusWeight orders the attendee list: pending first, cancelled last
func statusWeight(s Status) int {
	switch s {
	case StatusPending:
		return 1
	case StatusPaid:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 99
	}
}

// SortAttendees returns regs ordered by status weight, then by name in
// Brazilian Portuguese collation ignoring case
func SortAttendees(regs []Registration) []Registration {
	out := make([]Registration, len(regs))
	copy(out, regs)

	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	var buf collate.Buffer
	keys := make([][]byte, len(out))
	for i, r := range out {
		keys[i] = append([]byte(nil), col.KeyFromString(&buf, r.Nome)...)
		buf.Reset()
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := out[idx[a]], out[idx[b]]
		if wa, wb := statusWeight(ra.Status), statusWeight(rb.Status); wa != wb {
			return wa < wb
		}
		return string(keys[idx[a]]) < string(keys[idx[b]])
	})

	sorted := make([]Registration, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}
