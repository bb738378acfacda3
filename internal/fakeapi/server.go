// Package fakeapi is an in-process stand-in for the church REST backend,
// used by tests and by the CLI's offline demo mode. It keeps everything in
// memory and follows the backend's routes and payloads.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/registration"
	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

// Roles carried in issued tokens
const (
	RoleAdmin  = "ADMIN"
	RoleViewer = "VIEWER"
)

// Resource names served under /{resource}/igreja/{tenantId}
var resources = map[string]func() any{
	"membros":        func() any { return &domain.MemberDraft{} },
	"transacoes":     func() any { return &domain.TransactionDraft{} },
	"ministerios":    func() any { return &domain.MinistryDraft{} },
	"escalas":        func() any { return &domain.ScaleDraft{} },
	"celulas":        func() any { return &domain.SmallGroupDraft{} },
	"pedidos-oracao": func() any { return &domain.PrayerRequestDraft{} },
	"visitantes":     func() any { return &domain.VisitorDraft{} },
	"eventos":        func() any { return &domain.EventDraft{} },
}

type record map[string]any

type user struct {
	senha string
	nome  string
	role  string
}

// Server is the fake backend
type Server struct {
	engine *gin.Engine
	srv    *httptest.Server

	mu            sync.Mutex
	secret        []byte
	users         map[string]user
	churches      map[int64]domain.Church
	records       map[string]map[int64]record
	registrations map[int64][]*registration.Registration
	kids          map[int64]*domain.KidsCheckIn
	nextID        int64
	calls         map[string]int
	failCheckout  bool
	now           func() time.Time
}

// New builds the routes without listening
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:        []byte("fakeapi-secret-0"),
		users:         make(map[string]user),
		churches:      make(map[int64]domain.Church),
		records:       make(map[string]map[int64]record),
		registrations: make(map[int64][]*registration.Registration),
		kids:          make(map[int64]*domain.KidsCheckIn),
		calls:         make(map[string]int),
		now:           time.Now,
	}
	for name := range resources {
		s.records[name] = make(map[int64]record)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.countCalls)
	r.Use(s.jwtMiddleware(map[string]bool{
		"POST /auth/login":              true,
		"GET /igrejas/slug/:slug":       true,
		"POST /membros/publico/:slug":   true,
		"GET /eventos/:id":              true,
		"POST /eventos/:id/register":    true,
		"POST /pedidos-oracao/:id/orar": true,
	}))

	r.POST("/auth/login", s.login)

	r.GET("/igrejas", s.listChurches)
	r.POST("/igrejas", s.createChurch)
	r.GET("/igrejas/slug/:slug", s.churchBySlug)
	r.PUT("/igrejas/:id", s.updateChurch)
	r.DELETE("/igrejas/:id", s.deleteChurch)

	for name := range resources {
		g := r.Group("/" + name)
		g.GET("/igreja/:id", s.listRecords(name))
		g.POST("/igreja/:id", s.createRecord(name))
		g.PUT("/:id", s.updateRecord(name))
		g.DELETE("/:id", s.deleteRecord(name))
	}
	r.POST("/membros/publico/:slug", s.selfRegister)
	r.POST("/pedidos-oracao/:id/orar", s.pray)

	r.GET("/eventos/:id", s.getEvent)
	r.POST("/eventos/:id/register", s.register)
	r.GET("/eventos/:id/inscricoes", s.listRegistrations)
	r.POST("/eventos/:id/confirm-payment/:numero", s.confirmPayment)
	r.POST("/eventos/:id/inscricoes/:numero/cancel", s.cancelRegistration)
	r.POST("/eventos/:id/inscricoes/:numero/checkout", s.checkout)
	r.PATCH("/eventos/:id/inscricoes/:numero/pagamento", s.updatePaymentMethod)

	r.POST("/kids/igreja/:id/checkin", s.kidsCheckIn)
	r.GET("/kids/igreja/:id/ativos", s.kidsActive)
	r.DELETE("/kids/:id/checkout", s.kidsCheckOut)

	s.engine = r
	return s
}

// Start serves the fake backend until Close
func Start() *Server {
	s := New()
	s.srv = httptest.NewServer(s.engine)
	return s
}

// URL is the base URL clients should use
func (s *Server) URL() string {
	return s.srv.URL
}

func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

// Handler exposes the routes for in-process use
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) countCalls(c *gin.Context) {
	s.mu.Lock()
	s.calls[c.Request.Method+" "+c.FullPath()]++
	s.mu.Unlock()
	c.Next()
}

// Calls returns how many requests hit a route pattern, such as
// Calls("DELETE", "/kids/:id/checkout")
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+route]
}

// TotalCalls counts every request received
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.calls {
		n += v
	}
	return n
}

// AddUser registers login credentials
func (s *Server) AddUser(email, senha, nome, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{senha: senha, nome: nome, role: role}
}

// RevokeTokens invalidates every token issued so far
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = append([]byte("fakeapi-secret-"), strconv.FormatInt(s.now().UnixNano(), 10)...)
}

// FailCheckout makes the checkout route answer 502
func (s *Server) FailCheckout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCheckout = fail
}

// SetClock replaces the server clock
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// AddChurch seeds a church and returns it with its id
func (s *Server) AddChurch(c domain.Church) domain.Church {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextIDLocked()
	}
	s.churches[c.ID] = c
	return c
}

// AddEvent seeds an event for a church
func (s *Server) AddEvent(tenantID int64, e domain.Event) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.nextIDLocked()
	}
	e.IgrejaID = tenantID
	s.records["eventos"][e.ID] = toRecord(e)
	return e
}

// AddRecord seeds any tenant-scoped resource and returns its id
func (s *Server) AddRecord(resource string, tenantID int64, v any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := toRecord(v)
	id := s.nextIDLocked()
	rec["id"] = id
	rec["igrejaId"] = tenantID
	s.records[resource][id] = rec
	return id
}

// Record returns a stored resource decoded into out
func (s *Server) Record(resource string, id int64, out any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[resource][id]
	if !ok {
		return false
	}
	return fromRecord(rec, out) == nil
}

// AddRegistration seeds a registration for an event
func (s *Server) AddRegistration(eventID int64, r registration.Registration) registration.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextIDLocked()
	}
	if r.NumeroInscricao == "" {
		r.NumeroInscricao = registrationNumber(eventID, len(s.registrations[eventID])+1)
	}
	if r.Status == "" {
		r.Status = registration.StatusPending
	}
	r.EventoID = eventID
	copied := r
	s.registrations[eventID] = append(s.registrations[eventID], &copied)
	return r
}

// Registrations returns a copy of an event's registrations
func (s *Server) Registrations(eventID int64) []registration.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]registration.Registration, 0, len(s.registrations[eventID]))
	for _, r := range s.registrations[eventID] {
		out = append(out, *r)
	}
	return out
}

// KidsSession returns a stored check-in
func (s *Server) KidsSession(id int64) (domain.KidsCheckIn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.kids[id]
	if !ok {
		return domain.KidsCheckIn{}, false
	}
	return *k, true
}

// --- churches ---

func (s *Server) listChurches(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Church, 0, len(s.churches))
	for _, ch := range s.churches {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (s *Server) createChurch(c *gin.Context) {
	var draft domain.ChurchDraft
	if !bindDraft(c, &draft) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.churches {
		if ch.Slug == draft.Slug {
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeDuplicateEntry, "Slug já utilizado"))
			return
		}
	}
	ch := churchFromDraft(s.nextIDLocked(), draft)
	s.churches[ch.ID] = ch
	c.JSON(http.StatusCreated, ch)
}

func (s *Server) churchBySlug(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.churches {
		if ch.Slug == c.Param("slug") {
			c.JSON(http.StatusOK, ch)
			return
		}
	}
	c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
}

func (s *Server) updateChurch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var draft domain.ChurchDraft
	if !bindDraft(c, &draft) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.churches[id]; !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
		return
	}
	ch := churchFromDraft(id, draft)
	s.churches[id] = ch
	c.JSON(http.StatusOK, ch)
}

func (s *Server) deleteChurch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.churches[id]; !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
		return
	}
	delete(s.churches, id)
	c.Status(http.StatusNoContent)
}

func churchFromDraft(id int64, d domain.ChurchDraft) domain.Church {
	return domain.Church{
		ID:          id,
		Nome:        d.Nome,
		Slug:        d.Slug,
		Endereco:    d.Endereco,
		Cidade:      d.Cidade,
		Estado:      d.Estado,
		Cep:         d.Cep,
		CorPrimaria: d.CorPrimaria,
	}
}

// --- helpers ---

// bindDraft decodes and validates the body, answering 400 on failure
func bindDraft(c *gin.Context, draft any) bool {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
		return false
	}
	return bindDraftBytes(c, raw, draft)
}

func bindDraftBytes(c *gin.Context, raw []byte, draft any) bool {
	if err := json.Unmarshal(raw, draft); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
		return false
	}
	if err := validation.Default().Struct(draft); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, response.ValidationFailed(verr.Map()))
			return false
		}
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.BadRequest("invalid id"))
		return 0, false
	}
	return id, true
}

func queryTenant(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("igrejaId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.BadRequest("igrejaId is required"))
		return 0, false
	}
	return id, true
}

func toRecord(v any) record {
	data, _ := json.Marshal(v)
	rec := record{}
	_ = decodeNumbers(data, &rec)
	return rec
}

func fromRecord(rec record, out any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func decodeNumbers(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
