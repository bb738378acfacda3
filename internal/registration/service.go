package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/payment"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/telemetry"
)

const consentMessage = "É necessário aceitar o termo de consentimento"

// Service performs registration operations against the backend
type Service struct {
	api      *apiclient.Client
	gateway  payment.Gateway
	board    *Board
	currency string
	log      *logger.Logger
	metrics  *telemetry.ClientMetrics
}

// Config holds Service dependencies besides the API client
type Config struct {
	Gateway  payment.Gateway
	Board    *Board
	Currency string
	Logger   *logger.Logger
	Metrics  *telemetry.ClientMetrics
}

// NewService creates a Service. Without a gateway, online payments go
// through the backend.
func NewService(api *apiclient.Client, cfg Config) *Service {
	s := &Service{
		api:      api,
		gateway:  cfg.Gateway,
		board:    cfg.Board,
		currency: cfg.Currency,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if s.gateway == nil {
		s.gateway = payment.NewBackendGateway(api)
	}
	if s.board == nil {
		s.board = NewBoard()
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.Named("registration")
	if s.metrics == nil {
		s.metrics = &telemetry.ClientMetrics{}
	}
	return s
}

// Board returns the local attendee state kept up to date by the Service
func (s *Service) Board() *Board {
	return s.board
}

// Register signs an attendee up. Consent is checked before anything else
// is sent.
func (s *Service) Register(ctx context.Context, eventID int64, a Attendee) (*Registration, error) {
	var fields []validation.FieldError
	if err := validation.Default().Check(&a); err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return nil, err
		}
		fields = append(fields, verr.Fields...)
	}
	if !a.Consentimento {
		fields = append(fields, validation.FieldError{Field: "consentimento", Message: consentMessage})
	}
	if len(fields) > 0 {
		return nil, validation.NewError(fields...)
	}

	var reg Registration
	if err := s.api.Post(ctx, eventPath(eventID)+"/register", a, &reg); err != nil {
		return nil, err
	}
	if reg.Status == "" {
		reg.Status = StatusPending
	}
	if reg.EventoID == 0 {
		reg.EventoID = eventID
	}
	s.board.Upsert(eventID, reg)

	s.log.InfoContext(ctx, "registration created",
		zap.Int64("event_id", eventID),
		zap.String("numero", reg.NumeroInscricao),
	)
	return &reg, nil
}

// List fetches the registrations of an event and refreshes the board
func (s *Service) List(ctx context.Context, eventID int64) ([]Registration, error) {
	page, err := apiclient.GetList[Registration](ctx, s.api, eventPath(eventID)+"/inscricoes", nil)
	if err != nil {
		return nil, err
	}
	s.board.Replace(eventID, page.Content)
	return page.Content, nil
}

// ConfirmPaymentManually marks a pending registration paid at the chosen
// tier. The value sent is always the resolved price of that tier.
func (s *Service) ConfirmPaymentManually(ctx context.Context, event domain.Event, reg Registration, t AmountType, confirm apiclient.Confirmer) (*Registration, error) {
	if !reg.Status.CanTransitionTo(StatusPaid) {
		return nil, invalidTransition(reg, StatusPaid)
	}

	tier, amount, err := ResolveAmount(event, t)
	if err != nil {
		return nil, amountError(err)
	}

	prompt := fmt.Sprintf("Confirmar pagamento de %s (R$ %s) para %s?", tier, amount.StringFixed(2), reg.Nome)
	if err := apiclient.Ask(ctx, confirm, prompt); err != nil {
		return nil, err
	}

	var updated Registration
	body := confirmPaymentRequest{TipoValor: tier, ValorPago: amount}
	if err := s.api.Post(ctx, eventPath(event.ID)+"/confirm-payment/"+reg.NumeroInscricao, body, &updated); err != nil {
		return nil, err
	}
	if updated.NumeroInscricao == "" {
		updated = reg
		_ = updated.Transition(StatusPaid)
		updated.TipoValor = tier
		updated.ValorPago = &amount
	}

	s.board.Upsert(event.ID, updated)
	s.metrics.PaymentsConfirmed.Inc(ctx, telemetry.AmountTypeAttr(string(tier)), telemetry.EventIDAttr(event.ID))
	s.log.InfoContext(ctx, "payment confirmed",
		zap.Int64("event_id", event.ID),
		zap.String("numero", reg.NumeroInscricao),
		zap.String("tipo_valor", string(tier)),
		zap.String("valor", amount.StringFixed(2)),
	)
	return &updated, nil
}

// Cancel moves a pending registration to cancelled
func (s *Service) Cancel(ctx context.Context, eventID int64, reg Registration, confirm apiclient.Confirmer) (*Registration, error) {
	if !reg.Status.CanTransitionTo(StatusCancelled) {
		return nil, invalidTransition(reg, StatusCancelled)
	}
	if err := apiclient.Ask(ctx, confirm, fmt.Sprintf("Cancelar a inscrição %s de %s?", reg.NumeroInscricao, reg.Nome)); err != nil {
		return nil, err
	}

	var updated Registration
	if err := s.api.Post(ctx, inscricaoPath(eventID, reg.NumeroInscricao)+"/cancel", nil, &updated); err != nil {
		return nil, err
	}
	if updated.NumeroInscricao == "" {
		updated = reg
		_ = updated.Transition(StatusCancelled)
	}
	s.board.Upsert(eventID, updated)
	return &updated, nil
}

// InitiateOnlinePayment returns the checkout URL for a pending
// registration. A gateway failure leaves the registration pending and is
// returned as is; nothing is retried.
func (s *Service) InitiateOnlinePayment(ctx context.Context, event domain.Event, reg Registration, t AmountType) (string, error) {
	if reg.Status != StatusPending {
		return "", invalidTransition(reg, StatusPaid)
	}
	tier, amount, err := ResolveAmount(event, t)
	if err != nil {
		return "", amountError(err)
	}

	resp, err := s.gateway.Checkout(ctx, &payment.CheckoutRequest{
		EventID:       event.ID,
		EventTitle:    event.Titulo,
		Number:        reg.NumeroInscricao,
		AmountType:    string(tier),
		Amount:        amount,
		Currency:      s.currency,
		CustomerName:  reg.Nome,
		CustomerEmail: reg.Email,
	})
	if err != nil {
		s.log.WarnContext(ctx, "checkout failed",
			zap.String("gateway", s.gateway.Name()),
			zap.String("numero", reg.NumeroInscricao),
			zap.Error(err),
		)
		telemetry.SetSpanError(ctx, err)
		return "", fmt.Errorf("failed to start online payment: %w", err)
	}
	telemetry.SetSpanAttributes(ctx, telemetry.PaymentGatewayAttr(s.gateway.Name()))
	return resp.URL, nil
}

// UpdatePaymentMethod records how a registration was or will be paid
func (s *Service) UpdatePaymentMethod(ctx context.Context, eventID int64, reg Registration, method string) (*Registration, error) {
	if reg.Status == StatusCancelled {
		return nil, invalidTransition(reg, reg.Status)
	}
	body := paymentMethodRequest{FormaPagamento: method}
	if err := validation.Default().Struct(&body); err != nil {
		return nil, err
	}

	var updated Registration
	if err := s.api.Patch(ctx, inscricaoPath(eventID, reg.NumeroInscricao)+"/pagamento", body, &updated); err != nil {
		return nil, err
	}
	if updated.NumeroInscricao == "" {
		updated = reg
		updated.FormaPagamento = method
	}
	s.board.Upsert(eventID, updated)
	return &updated, nil
}

func eventPath(eventID int64) string {
	return "/eventos/" + strconv.FormatInt(eventID, 10)
}

func inscricaoPath(eventID int64, number string) string {
	return eventPath(eventID) + "/inscricoes/" + number
}

func invalidTransition(reg Registration, target Status) error {
	err := fmt.Errorf("%w: %s is %s, cannot move to %s", ErrInvalidTransition, reg.NumeroInscricao, reg.Status, target)
	return apiclient.Conflict(fmt.Sprintf("A inscrição %s está %s.", reg.NumeroInscricao, reg.Status.Label()), err)
}

func amountError(err error) error {
	switch {
	case errors.Is(err, ErrAmountTypeRequired):
		return validation.NewError(validation.FieldError{Field: "tipoValor", Message: "Selecione o tipo de valor"})
	case errors.Is(err, ErrAmountTypeUnavailable):
		return validation.NewError(validation.FieldError{Field: "tipoValor", Message: "Tipo de valor indisponível para este evento"})
	case errors.Is(err, ErrFreeEvent):
		return &apiclient.Error{Kind: apiclient.KindPrecondition, Message: "Evento gratuito não possui pagamento.", Err: err}
	}
	return err
}
