package response

import (
	"encoding/json"
	"net/http"
	"testing"
)

type item struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

func TestDecodeList_BareArray(t *testing.T) {
	page, err := DecodeList[item]([]byte(`[{"id":1,"nome":"Ana"},{"id":2,"nome":"Bia"}]`))
	if err != nil {
		t.Fatalf("DecodeList() error = %v", err)
	}
	if len(page.Content) != 2 {
		t.Fatalf("len(Content) = %d, want 2", len(page.Content))
	}
	if page.TotalElements != 2 || page.TotalPages != 1 {
		t.Errorf("totals = %d/%d, want 2/1", page.TotalElements, page.TotalPages)
	}
	if page.Content[1].Nome != "Bia" {
		t.Errorf("Content[1].Nome = %q, want Bia", page.Content[1].Nome)
	}
}

func TestDecodeList_Envelope(t *testing.T) {
	body := `{"content":[{"id":3,"nome":"Caio"}],"totalElements":21,"totalPages":3,"number":2,"size":10}`
	page, err := DecodeList[item]([]byte(body))
	if err != nil {
		t.Fatalf("DecodeList() error = %v", err)
	}
	if page.TotalElements != 21 {
		t.Errorf("TotalElements = %d, want 21", page.TotalElements)
	}
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if page.Number != 2 {
		t.Errorf("Number = %d, want 2", page.Number)
	}
}

func TestDecodeList_EmptyBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"null", "null"},
		{"empty array", "[]"},
		{"envelope without content", `{"totalElements":0,"totalPages":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := DecodeList[item]([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodeList() error = %v", err)
			}
			if page.Content == nil {
				t.Error("Content should be an empty slice, not nil")
			}
			if !page.Empty() {
				t.Error("Empty() = false, want true")
			}
		})
	}
}

func TestDecodeList_Malformed(t *testing.T) {
	if _, err := DecodeList[item]([]byte(`[{"id":"x"}]`)); err == nil {
		t.Error("expected error for malformed array")
	}
	if _, err := DecodeList[item]([]byte(`{"content":5}`)); err == nil {
		t.Error("expected error for malformed envelope")
	}
}

func TestDecodeError(t *testing.T) {
	info := DecodeError(http.StatusBadRequest, []byte(`{"message":"Dados inválidos","errors":{"email":"inválido"}}`))
	if info.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", info.Status, http.StatusBadRequest)
	}
	if info.Message != "Dados inválidos" {
		t.Errorf("Message = %q", info.Message)
	}
	if info.Details["email"] != "inválido" {
		t.Errorf("Details[email] = %q", info.Details["email"])
	}

	plain := DecodeError(http.StatusBadGateway, []byte("upstream down"))
	if plain.Message != "upstream down" {
		t.Errorf("plain Message = %q", plain.Message)
	}
}

func TestPaginated(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	page := Paginated(items, PaginationParams{Page: 2, Size: 10})
	if len(page.Content) != 5 {
		t.Errorf("len(Content) = %d, want 5", len(page.Content))
	}
	if page.Content[0] != 20 {
		t.Errorf("Content[0] = %d, want 20", page.Content[0])
	}
	if page.TotalElements != 25 || page.TotalPages != 3 {
		t.Errorf("totals = %d/%d, want 25/3", page.TotalElements, page.TotalPages)
	}
}

func TestPaginated_TotalPagesCalculation(t *testing.T) {
	tests := []struct {
		total    int
		size     int
		expected int
	}{
		{0, 10, 0},
		{10, 10, 1},
		{11, 10, 2},
		{100, 10, 10},
		{101, 10, 11},
		{5, 0, 1},
	}

	for _, tt := range tests {
		page := Paginated(make([]int, tt.total), PaginationParams{Size: tt.size})
		if page.TotalPages != tt.expected {
			t.Errorf("Paginated(total=%d, size=%d).TotalPages = %d, want %d",
				tt.total, tt.size, page.TotalPages, tt.expected)
		}
	}
}

func TestPaginated_PastEnd(t *testing.T) {
	page := Paginated([]int{1, 2, 3}, PaginationParams{Page: 4, Size: 2})
	if len(page.Content) != 0 {
		t.Errorf("len(Content) = %d, want 0", len(page.Content))
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidTransition, http.StatusConflict},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if status := GetHTTPStatus(tt.code); status != tt.expected {
			t.Errorf("GetHTTPStatus(%s) = %d, want %d", tt.code, status, tt.expected)
		}
	}
}

func TestError_JSONFormat(t *testing.T) {
	info := ValidationFailed(map[string]string{"nome": "obrigatório"})

	jsonBytes, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Failed to marshal error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal error: %v", err)
	}

	if parsed["code"] != ErrCodeValidationFailed {
		t.Errorf("code = %v", parsed["code"])
	}
	if parsed["status"] != float64(http.StatusBadRequest) {
		t.Errorf("status = %v", parsed["status"])
	}
	details, ok := parsed["errors"].(map[string]interface{})
	if !ok || details["nome"] != "obrigatório" {
		t.Errorf("errors = %v", parsed["errors"])
	}
}

func TestCommonErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		info   *ErrorInfo
		code   string
		defMsg string
	}{
		{"unauthorized", Unauthorized(""), ErrCodeUnauthorized, "Authentication required"},
		{"forbidden", Forbidden(""), ErrCodeForbidden, "Access denied"},
		{"not found", NotFound(""), ErrCodeNotFound, "Resource not found"},
		{"internal", InternalError(""), ErrCodeInternalError, "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.info.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.info.Code, tt.code)
			}
			if tt.info.Message != tt.defMsg {
				t.Errorf("Message = %q, want %q", tt.info.Message, tt.defMsg)
			}
		})
	}
}
