package fakeapi

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// securityCode draws a 6 character code without look-alike characters
func securityCode() (string, error) {
	b := make([]byte, 6)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *Server) kidsCheckIn(c *gin.Context) {
	tenantID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var draft domain.KidsCheckInDraft
	if !bindDraft(c, &draft) {
		return
	}
	if len(domain.OnlyDigits(draft.TelefoneResponsavel)) != len(draft.TelefoneResponsavel) {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(map[string]string{"telefoneResponsavel": "apenas dígitos"}))
		return
	}
	code, err := securityCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.InternalError(""))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.churches[tenantID]; !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
		return
	}
	k := &domain.KidsCheckIn{
		ID:                  s.nextIDLocked(),
		NomeCrianca:         draft.NomeCrianca,
		NomeResponsavel:     draft.NomeResponsavel,
		TelefoneResponsavel: draft.TelefoneResponsavel,
		Alergias:            draft.Alergias,
		Observacoes:         draft.Observacoes,
		CodigoSeguranca:     code,
		DataEntrada:         domain.Timestamp{Time: s.now()},
		IgrejaID:            tenantID,
	}
	s.kids[k.ID] = k
	c.JSON(http.StatusCreated, k)
}

func (s *Server) kidsActive(c *gin.Context) {
	tenantID, ok := paramID(c, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.KidsCheckIn, 0)
	for _, k := range s.kids {
		if k.IgrejaID == tenantID && k.Active() {
			out = append(out, *k)
		}
	}
	sortKids(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) kidsCheckOut(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tenantID, ok := queryTenant(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k, exists := s.kids[id]
	if !exists || k.IgrejaID != tenantID {
		c.JSON(http.StatusNotFound, response.NotFound("Check-in não encontrado"))
		return
	}
	if !k.Active() {
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeConflict, "Criança já retirada"))
		return
	}
	out := domain.Timestamp{Time: s.now()}
	k.DataSaida = &out
	c.Status(http.StatusNoContent)
}

// sortKids orders by arrival, oldest first
func sortKids(ks []domain.KidsCheckIn) {
	sort.Slice(ks, func(i, j int) bool {
		if !ks[i].DataEntrada.Equal(ks[j].DataEntrada.Time) {
			return ks[i].DataEntrada.Before(ks[j].DataEntrada.Time)
		}
		return ks[i].ID < ks[j].ID
	})
}
