package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

var searchFields = []string{"nome", "titulo", "descricao", "pedido"}

func (s *Server) listRecords(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := paramID(c, "id")
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, exists := s.churches[tenantID]; !exists {
			c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
			return
		}

		now := s.now()
		items := make([]record, 0)
		for _, rec := range s.records[name] {
			if toInt64(rec["igrejaId"]) != tenantID || !matches(rec, c, now) {
				continue
			}
			items = append(items, rec)
		}
		sort.Slice(items, func(i, j int) bool { return toInt64(items[i]["id"]) < toInt64(items[j]["id"]) })

		// unpaginated requests get a bare array, like the older endpoints
		if c.Query("page") == "" && c.Query("size") == "" {
			c.JSON(http.StatusOK, items)
			return
		}
		page, _ := strconv.Atoi(c.Query("page"))
		size, _ := strconv.Atoi(c.Query("size"))
		c.JSON(http.StatusOK, response.Paginated(items, response.PaginationParams{Page: page, Size: size}))
	}
}

// matches applies the list filters the backend understands
func matches(rec record, c *gin.Context, now time.Time) bool {
	if q := c.Query("search"); q != "" {
		found := false
		for _, f := range searchFields {
			if containsFold(toString(rec[f]), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if status := c.Query("status"); status != "" && toString(rec["status"]) != status {
		return false
	}

	month, _ := strconv.Atoi(c.Query("mesAniversario"))
	minAge, hasMin := atoiOK(c.Query("idadeMin"))
	maxAge, hasMax := atoiOK(c.Query("idadeMax"))
	if month == 0 && !hasMin && !hasMax {
		return true
	}

	birth, err := domain.ParseDate(toString(rec["dataNascimento"]))
	if err != nil || birth.IsZero() {
		return false
	}
	if month != 0 && int(birth.Month()) != month {
		return false
	}
	age := ageAt(birth.Time, now)
	if hasMin && age < minAge {
		return false
	}
	if hasMax && age > maxAge {
		return false
	}
	return true
}

func atoiOK(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		age--
	}
	return age
}

func (s *Server) createRecord(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := paramID(c, "id")
		if !ok {
			return
		}
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
			return
		}
		if !bindDraftBytes(c, raw, resources[name]()) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, exists := s.churches[tenantID]; !exists {
			c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
			return
		}

		rec := record{}
		if err := decodeNumbers(raw, &rec); err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
			return
		}
		rec["id"] = s.nextIDLocked()
		rec["igrejaId"] = tenantID
		if name == "pedidos-oracao" {
			rec["vezesOrado"] = int64(0)
			rec["dataCriacao"] = s.now().Format(time.RFC3339)
		}
		s.records[name][toInt64(rec["id"])] = rec
		c.JSON(http.StatusCreated, rec)
	}
}

func (s *Server) updateRecord(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		tenantID, ok := queryTenant(c)
		if !ok {
			return
		}
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
			return
		}
		if !bindDraftBytes(c, raw, resources[name]()) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		rec, exists := s.records[name][id]
		if !exists || toInt64(rec["igrejaId"]) != tenantID {
			c.JSON(http.StatusNotFound, response.NotFound("Registro não encontrado"))
			return
		}
		patch := record{}
		_ = decodeNumbers(raw, &patch)
		for k, v := range patch {
			if k == "id" || k == "igrejaId" {
				continue
			}
			rec[k] = v
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) deleteRecord(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		rec, exists := s.records[name][id]
		if !exists || toInt64(rec["igrejaId"]) != tenantID {
			c.JSON(http.StatusNotFound, response.NotFound("Registro não encontrado"))
			return
		}
		delete(s.records[name], id)
		c.Status(http.StatusNoContent)
	}
}

// selfRegister is the public member sign-up page of a church
func (s *Server) selfRegister(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("invalid body"))
		return
	}
	if !bindDraftBytes(c, raw, &domain.MemberDraft{}) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var church *domain.Church
	for _, ch := range s.churches {
		if ch.Slug == c.Param("slug") {
			ch := ch
			church = &ch
			break
		}
	}
	if church == nil {
		c.JSON(http.StatusNotFound, response.NotFound("Igreja não encontrada"))
		return
	}

	rec := record{}
	_ = decodeNumbers(raw, &rec)
	rec["id"] = s.nextIDLocked()
	rec["igrejaId"] = church.ID
	s.records["membros"][toInt64(rec["id"])] = rec
	c.JSON(http.StatusCreated, rec)
}

// pray bumps the prayed counter. Repeated calls all count.
func (s *Server) pray(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records["pedidos-oracao"][id]
	if !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Pedido não encontrado"))
		return
	}
	rec["vezesOrado"] = toInt64(rec["vezesOrado"]) + 1
	c.JSON(http.StatusOK, rec)
}

func (s *Server) getEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records["eventos"][id]
	if !exists {
		c.JSON(http.StatusNotFound, response.NotFound("Evento não encontrado"))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// eventLocked decodes a stored event
func (s *Server) eventLocked(id int64) (domain.Event, bool) {
	rec, exists := s.records["eventos"][id]
	if !exists {
		return domain.Event{}, false
	}
	var e domain.Event
	if err := fromRecord(rec, &e); err != nil {
		return domain.Event{}, false
	}
	return e, true
}
