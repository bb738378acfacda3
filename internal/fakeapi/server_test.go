package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/registration"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func seeded(t *testing.T) (*Server, domain.Church, string) {
	t.Helper()
	s := New()
	s.AddUser("admin@igreja.org", "segredo", "Admin", RoleAdmin)
	church := s.AddChurch(domain.Church{Nome: "Igreja Central", Slug: "igreja-central"})
	return s, church, s.IssueToken("admin@igreja.org")
}

func TestLoginRoute(t *testing.T) {
	s, _, _ := seeded(t)

	w := do(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@igreja.org", "senha": "segredo"})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	w = do(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@igreja.org", "senha": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s, church, token := seeded(t)
	path := "/membros/igreja/" + itoa(church.ID)

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, path, "garbage", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, path, token, nil).Code)

	s.RevokeTokens()
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, path, token, nil).Code)

	// public routes need no token
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/igrejas/slug/igreja-central", "", nil).Code)
}

func TestAuthMiddleware_ExpiryFollowsServerClock(t *testing.T) {
	s, church, _ := seeded(t)
	path := "/membros/igreja/" + itoa(church.ID)
	issued := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := issued
	s.SetClock(func() time.Time { return clock })

	token := s.IssueToken("admin@igreja.org")
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, path, token, nil).Code)

	clock = issued.Add(2 * time.Hour)
	w := do(t, s, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestViewerCannotDelete(t *testing.T) {
	s, church, _ := seeded(t)
	s.AddUser("leitor@igreja.org", "x", "Leitor", RoleViewer)
	id := s.AddRecord("visitantes", church.ID, domain.Visitor{Nome: "Ana"})

	w := do(t, s, http.MethodDelete, "/visitantes/"+itoa(id)+"?igrejaId="+itoa(church.ID), s.IssueToken("leitor@igreja.org"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListRecords_Shapes(t *testing.T) {
	s, church, token := seeded(t)
	for _, nome := range []string{"Ana", "Bruno", "Carla"} {
		s.AddRecord("visitantes", church.ID, domain.Visitor{Nome: nome})
	}
	other := s.AddChurch(domain.Church{Nome: "Outra", Slug: "outra"})
	s.AddRecord("visitantes", other.ID, domain.Visitor{Nome: "Zeca"})

	w := do(t, s, http.MethodGet, "/visitantes/igreja/"+itoa(church.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bare []domain.Visitor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bare))
	assert.Len(t, bare, 3)

	w = do(t, s, http.MethodGet, "/visitantes/igreja/"+itoa(church.ID)+"?page=0&size=2&search=an", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page, err := response.DecodeList[domain.Visitor](w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Ana", page.Content[0].Nome)
}

func TestCreateRecord_Validates(t *testing.T) {
	s, church, token := seeded(t)

	w := do(t, s, http.MethodPost, "/visitantes/igreja/"+itoa(church.ID), token, map[string]any{"nome": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	info := response.DecodeError(w.Code, w.Body.Bytes())
	assert.Equal(t, response.ErrCodeValidationFailed, info.Code)
	assert.Contains(t, info.Details, "nome")
}

func TestPray_CountsEveryCall(t *testing.T) {
	s, church, _ := seeded(t)
	id := s.AddRecord("pedidos-oracao", church.ID, domain.PrayerRequest{Nome: "Ana", Pedido: "Saúde"})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/pedidos-oracao/"+itoa(id)+"/orar", "", nil).Code)
	}
	var p domain.PrayerRequest
	require.True(t, s.Record("pedidos-oracao", id, &p))
	assert.Equal(t, int64(3), p.VezesOrado)
	assert.Equal(t, 3, s.Calls(http.MethodPost, "/pedidos-oracao/:id/orar"))
}

func TestRegistrationRoutes(t *testing.T) {
	s, church, token := seeded(t)
	full, promo := decimal.NewFromInt(100), decimal.NewFromInt(80)
	event := s.AddEvent(church.ID, domain.Event{Titulo: "Retiro", Preco: &full, PrecoPromocional: &promo})
	base := "/eventos/" + itoa(event.ID)

	w := do(t, s, http.MethodPost, base+"/register", "", registration.Attendee{
		Nome: "Maria Souza", Email: "maria@x.org", Telefone: "11999998888", Consentimento: true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var reg registration.Registration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.Equal(t, registrationNumber(event.ID, 1), reg.NumeroInscricao)
	assert.Equal(t, registration.StatusPending, reg.Status)

	// value must match the chosen tier
	w = do(t, s, http.MethodPost, base+"/confirm-payment/"+reg.NumeroInscricao, token,
		map[string]any{"tipoValor": "PROMOCIONAL", "valorPago": "100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, base+"/confirm-payment/"+reg.NumeroInscricao, token,
		map[string]any{"tipoValor": "PROMOCIONAL", "valorPago": "80"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, base+"/inscricoes/"+reg.NumeroInscricao+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	regs := s.Registrations(event.ID)
	require.Len(t, regs, 1)
	assert.Equal(t, registration.StatusPaid, regs[0].Status)
	assert.Equal(t, registration.AmountPromotional, regs[0].TipoValor)
	assert.True(t, promo.Equal(*regs[0].ValorPago))
}

func TestCheckoutRoute(t *testing.T) {
	s, church, token := seeded(t)
	price := decimal.NewFromInt(50)
	event := s.AddEvent(church.ID, domain.Event{Titulo: "Congresso", Preco: &price})
	reg := s.AddRegistration(event.ID, registration.Registration{Nome: "João"})
	path := "/eventos/" + itoa(event.ID) + "/inscricoes/" + reg.NumeroInscricao + "/checkout"

	w := do(t, s, http.MethodPost, path, token, map[string]string{"tipoValor": "INTEGRAL"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://pagamento.example/checkout/")

	s.FailCheckout(true)
	w = do(t, s, http.MethodPost, path, token, map[string]string{"tipoValor": "INTEGRAL"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, registration.StatusPending, s.Registrations(event.ID)[0].Status)
}

func TestKidsRoutes(t *testing.T) {
	s, church, _ := seeded(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return at })
	token := s.IssueToken("admin@igreja.org")

	w := do(t, s, http.MethodPost, "/kids/igreja/"+itoa(church.ID)+"/checkin", token, domain.KidsCheckInDraft{
		NomeCrianca: "Lia", NomeResponsavel: "Paula", TelefoneResponsavel: "11988887777",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var k domain.KidsCheckIn
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &k))
	assert.Len(t, k.CodigoSeguranca, 6)
	assert.True(t, k.Active())

	w = do(t, s, http.MethodGet, "/kids/igreja/"+itoa(church.ID)+"/ativos", token, nil)
	var active []domain.KidsCheckIn
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	require.Len(t, active, 1)

	// wrong tenant looks like a missing session
	w = do(t, s, http.MethodDelete, "/kids/"+itoa(k.ID)+"/checkout?igrejaId=999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/kids/"+itoa(k.ID)+"/checkout?igrejaId="+itoa(church.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodDelete, "/kids/"+itoa(k.ID)+"/checkout?igrejaId="+itoa(church.ID), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	stored, ok := s.KidsSession(k.ID)
	require.True(t, ok)
	assert.False(t, stored.Active())
}

func TestSecurityCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := securityCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
