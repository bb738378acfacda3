package fakeapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/registration"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

func registrationNumber(eventID int64, seq int) string {
	return fmt.Sprintf("INS-%d-%04d", eventID, seq)
}

func (s *Server) register(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var a registration.Attendee
	if !bindDraft(c, &a) {
		return
	}
	if !a.Consentimento {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(map[string]string{"consentimento": "obrigatório"}))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.eventLocked(eventID); !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Evento não encontrado"))
		return
	}

	r := &registration.Registration{
		ID:              s.nextIDLocked(),
		Nome:            a.Nome,
		Email:           a.Email,
		Telefone:        a.Telefone,
		NumeroInscricao: registrationNumber(eventID, len(s.registrations[eventID])+1),
		Status:          registration.StatusPending,
		DataCriacao:     domain.Timestamp{Time: s.now()},
		EventoID:        eventID,
	}
	s.registrations[eventID] = append(s.registrations[eventID], r)
	c.JSON(http.StatusCreated, r)
}

func (s *Server) listRegistrations(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]registration.Registration, 0, len(s.registrations[eventID]))
	for _, r := range s.registrations[eventID] {
		out = append(out, *r)
	}
	c.JSON(http.StatusOK, out)
}

// findLocked resolves the :id and :numero params, answering 404 itself
func (s *Server) findLocked(c *gin.Context) (domain.Event, *registration.Registration, bool) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return domain.Event{}, nil, false
	}
	event, exists := s.eventLocked(eventID)
	if !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Evento não encontrado"))
		return domain.Event{}, nil, false
	}
	for _, r := range s.registrations[eventID] {
		if r.NumeroInscricao == c.Param("numero") {
			return event, r, true
		}
	}
	c.JSON(http.StatusNotFound, response.NotFound("Inscrição não encontrada"))
	return domain.Event{}, nil, false
}

type confirmPaymentBody struct {
	TipoValor registration.AmountType `json:"tipoValor"`
	ValorPago decimal.Decimal         `json:"valorPago"`
}

func (s *Server) confirmPayment(c *gin.Context) {
	var body confirmPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, r, ok := s.findLocked(c)
	if !ok {
		return
	}
	if !r.Status.CanTransitionTo(registration.StatusPaid) {
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidTransition, "Inscrição não está pendente"))
		return
	}
	tier, amount, err := registration.ResolveAmount(event, body.TipoValor)
	if err != nil || !amount.Equal(body.ValorPago) {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(map[string]string{"valorPago": "valor não corresponde ao preço do evento"}))
		return
	}

	r.Status = registration.StatusPaid
	r.TipoValor = tier
	r.ValorPago = &amount
	if r.FormaPagamento == "" {
		r.FormaPagamento = registration.MethodCash
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) cancelRegistration(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, r, ok := s.findLocked(c)
	if !ok {
		return
	}
	if !r.Status.CanTransitionTo(registration.StatusCancelled) {
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidTransition, "Inscrição não está pendente"))
		return
	}
	r.Status = registration.StatusCancelled
	c.JSON(http.StatusOK, r)
}

func (s *Server) checkout(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, r, ok := s.findLocked(c)
	if !ok {
		return
	}
	if s.failCheckout {
		c.JSON(http.StatusBadGateway, response.Error(response.ErrCodePaymentFailed, "Gateway de pagamento indisponível"))
		return
	}
	if r.Status != registration.StatusPending {
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeInvalidTransition, "Inscrição não está pendente"))
		return
	}
	session := uuid.NewString()
	c.JSON(http.StatusOK, gin.H{"url": "https://pagamento.example/checkout/" + session, "sessionId": session})
}

func (s *Server) updatePaymentMethod(c *gin.Context) {
	var body struct {
		FormaPagamento string `json:"formaPagamento"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.FormaPagamento == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("formaPagamento is required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, r, ok := s.findLocked(c)
	if !ok {
		return
	}
	r.FormaPagamento = body.FormaPagamento
	c.JSON(http.StatusOK, r)
}
