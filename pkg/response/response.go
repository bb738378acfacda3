// Package response describes the JSON shapes exchanged with the church
// backend: paginated list envelopes and error bodies.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Page is the paginated list envelope. Endpoints that are not paginated
// return a bare JSON array, which DecodeList folds into a single Page.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// Empty reports whether the page carries no items
func (p Page[T]) Empty() bool {
	return len(p.Content) == 0
}

// ErrorInfo is the error body returned by the backend
type ErrorInfo struct {
	Status  int               `json:"status,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"errors,omitempty"`
}

// PaginationParams represents pagination input parameters. Page is zero-based.
type PaginationParams struct {
	Page int
	Size int
}

// DefaultPagination returns default pagination values
func DefaultPagination() PaginationParams {
	return PaginationParams{
		Page: 0,
		Size: 10,
	}
}

// --- Error Code Constants ---

const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidTransition  = "INVALID_STATUS_TRANSITION"
	ErrCodePaymentFailed      = "PAYMENT_FAILED"
	ErrCodeDuplicateEntry     = "DUPLICATE_ENTRY"
)

// ErrorCodeToHTTPStatus maps error codes to HTTP status codes
var ErrorCodeToHTTPStatus = map[string]int{
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeInternalError:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidationFailed:   http.StatusBadRequest,
	ErrCodeInvalidTransition:  http.StatusConflict,
	ErrCodePaymentFailed:      http.StatusBadGateway,
	ErrCodeDuplicateEntry:     http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// --- Decoding ---

// DecodeList decodes either a bare JSON array or a Page envelope
func DecodeList[T any](data []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page[T]{Content: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("failed to decode list: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		pages := 0
		if len(items) > 0 {
			pages = 1
		}
		return Page[T]{
			Content:       items,
			TotalElements: int64(len(items)),
			TotalPages:    pages,
			Size:          len(items),
		}, nil
	}

	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return Page[T]{}, fmt.Errorf("failed to decode page: %w", err)
	}
	if page.Content == nil {
		page.Content = []T{}
	}
	return page, nil
}

// DecodeError extracts an ErrorInfo from an error body. Bodies that are not
// JSON become the message verbatim.
func DecodeError(status int, data []byte) *ErrorInfo {
	info := &ErrorInfo{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		_ = json.Unmarshal(trimmed, info)
	} else if len(trimmed) > 0 {
		info.Message = string(trimmed)
	}
	if info.Status == 0 {
		info.Status = status
	}
	return info
}

// --- Builders ---

// Paginated slices items into the requested page the way the backend does
func Paginated[T any](items []T, params PaginationParams) Page[T] {
	size := params.Size
	if size <= 0 {
		size = DefaultPagination().Size
	}
	page := params.Page
	if page < 0 {
		page = 0
	}

	total := len(items)
	totalPages := total / size
	if total%size > 0 {
		totalPages++
	}

	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	content := make([]T, end-start)
	copy(content, items[start:end])

	return Page[T]{
		Content:       content,
		TotalElements: int64(total),
		TotalPages:    totalPages,
		Number:        page,
		Size:          size,
	}
}

// Error creates an error body
func Error(code string, message string) *ErrorInfo {
	return &ErrorInfo{
		Status:  GetHTTPStatus(code),
		Code:    code,
		Message: message,
	}
}

// ErrorWithDetails creates an error body with field details
func ErrorWithDetails(code string, message string, details map[string]string) *ErrorInfo {
	info := Error(code, message)
	info.Details = details
	return info
}

func BadRequest(message string) *ErrorInfo {
	return Error(ErrCodeBadRequest, message)
}

func Unauthorized(message string) *ErrorInfo {
	if message == "" {
		message = "Authentication required"
	}
	return Error(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *ErrorInfo {
	if message == "" {
		message = "Access denied"
	}
	return Error(ErrCodeForbidden, message)
}

func NotFound(message string) *ErrorInfo {
	if message == "" {
		message = "Resource not found"
	}
	return Error(ErrCodeNotFound, message)
}

func InternalError(message string) *ErrorInfo {
	if message == "" {
		message = "An internal error occurred"
	}
	return Error(ErrCodeInternalError, message)
}

// ValidationFailed creates a validation error body with field details
func ValidationFailed(details map[string]string) *ErrorInfo {
	return ErrorWithDetails(ErrCodeValidationFailed, "Validation failed", details)
}
