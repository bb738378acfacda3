// Package kids runs the kids-area check-in desk: check-in with a server
// issued safety code, the live roster and the printed label.
package kids

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/apiclient"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/logger"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/telemetry"
)

// Service talks to the kids endpoints
type Service struct {
	api     *apiclient.Client
	log     *logger.Logger
	metrics *telemetry.ClientMetrics
}

func NewService(api *apiclient.Client, log *logger.Logger, metrics *telemetry.ClientMetrics) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if metrics == nil {
		metrics = &telemetry.ClientMetrics{}
	}
	return &Service{api: api, log: log.Named("kids"), metrics: metrics}
}

// CheckIn registers a child's arrival. The phone is sent digits only; the
// safety code and entry time come from the server.
func (s *Service) CheckIn(ctx context.Context, tenantID int64, draft domain.KidsCheckInDraft) (*domain.KidsCheckIn, error) {
	if tenantID == 0 {
		return nil, apiclient.ErrNoActiveTenant
	}
	if err := validation.Default().Check(&draft); err != nil {
		return nil, err
	}

	var out domain.KidsCheckIn
	if err := s.api.Post(ctx, "/kids/igreja/"+strconv.FormatInt(tenantID, 10)+"/checkin", draft, &out); err != nil {
		return nil, err
	}

	s.metrics.CheckIns.Inc(ctx, telemetry.TenantIDAttr(tenantID))
	s.log.InfoContext(ctx, "child checked in", zap.Int64("tenant_id", tenantID), zap.Int64("session_id", out.ID))
	return &out, nil
}

// ListActive returns the children still in the kids area
func (s *Service) ListActive(ctx context.Context, tenantID int64) ([]domain.KidsCheckIn, error) {
	if tenantID == 0 {
		return nil, apiclient.ErrNoActiveTenant
	}
	page, err := apiclient.GetList[domain.KidsCheckIn](ctx, s.api, "/kids/igreja/"+strconv.FormatInt(tenantID, 10)+"/ativos", nil)
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// CheckOut ends a session after the operator confirms the safety code was
// presented. Nothing is sent when the confirmation is declined.
func (s *Service) CheckOut(ctx context.Context, tenantID, sessionID int64, confirm apiclient.Confirmer) error {
	return s.checkOut(ctx, tenantID, sessionID, "Confirmar a saída da criança? Verifique o código de segurança.", confirm)
}

func (s *Service) checkOut(ctx context.Context, tenantID, sessionID int64, prompt string, confirm apiclient.Confirmer) error {
	if tenantID == 0 {
		return apiclient.ErrNoActiveTenant
	}
	if err := apiclient.Ask(ctx, confirm, prompt); err != nil {
		return err
	}

	query := url.Values{"igrejaId": {strconv.FormatInt(tenantID, 10)}}
	if err := s.api.Delete(ctx, "/kids/"+strconv.FormatInt(sessionID, 10)+"/checkout", query); err != nil {
		return err
	}

	s.metrics.CheckOuts.Inc(ctx, telemetry.TenantIDAttr(tenantID))
	s.log.InfoContext(ctx, "child checked out", zap.Int64("tenant_id", tenantID), zap.Int64("session_id", sessionID))
	return nil
}
