package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeConfig holds Stripe Checkout settings
type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
	// Backend overrides the Stripe API backend, for tests
	Backend stripe.Backend
}

// StripeGateway opens a Stripe Checkout Session directly
type StripeGateway struct {
	client   session.Client
	config   StripeConfig
	currency string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	backend := cfg.Backend
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyBRL)
	}
	return &StripeGateway{
		client:   session.Client{B: backend, Key: cfg.SecretKey},
		config:   cfg,
		currency: currency,
	}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("payment: amount must be positive, got %s", req.Amount)
	}

	currency := g.currency
	if req.Currency != "" {
		currency = strings.ToLower(req.Currency)
	}
	// amounts are sent in centavos
	cents := req.Amount.Shift(2).Round(0).IntPart()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.config.SuccessURL),
		CancelURL:         stripe.String(g.config.CancelURL),
		ClientReferenceID: stripe.String(req.Number),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.EventTitle),
					},
					UnitAmount: stripe.Int64(cents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"evento_id":        strconv.FormatInt(req.EventID, 10),
			"numero_inscricao": req.Number,
			"tipo_valor":       req.AmountType,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	// one key per attempt: the client's network retries share it, a
	// resubmission by the user gets a fresh session
	params.SetIdempotencyKey(fmt.Sprintf("checkout-%d-%s-%s", req.EventID, req.Number, uuid.NewString()))

	s, err := g.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return &CheckoutResponse{URL: s.URL, SessionID: s.ID}, nil
}
