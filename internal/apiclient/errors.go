package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/validation"
	"github.com/harisonns09/ecclesia-manager-sub000/pkg/response"
)

// Kind classifies a failure for the caller
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindNetwork
	KindPrecondition
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	case KindPrecondition:
		return "precondition"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ErrNotConfirmed is returned when the user declines a destructive action.
// No request is sent.
var ErrNotConfirmed = errors.New("operation not confirmed")

// ErrNoActiveTenant is returned by tenant-scoped calls made before a church
// is selected. No request is sent.
var ErrNoActiveTenant = Precondition("Selecione uma igreja antes de continuar.")

// Error is a classified failure of a backend call
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Status != 0:
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, e.Kind, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Precondition builds a client-side precondition failure
func Precondition(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

// Conflict builds a client-side state conflict, such as an invalid
// registration transition
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// KindOf classifies any error produced by the client packages
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return KindValidation
	}
	return KindUnknown
}

// IsKind reports whether err is classified as k
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusPreconditionFailed, status == http.StatusPreconditionRequired:
		return KindPrecondition
	case status >= 500:
		return KindNetwork
	case status >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

func statusError(op string, status int, body []byte) *Error {
	info := response.DecodeError(status, body)
	return &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Code:    info.Code,
		Message: info.Message,
		Fields:  info.Details,
		Op:      op,
	}
}

func transportError(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// Message maps err to the Portuguese text shown to the user
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotConfirmed) {
		return "Operação cancelada."
	}
	if errors.Is(err, context.Canceled) {
		return "Operação interrompida."
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		if len(verr.Fields) == 1 {
			return verr.Fields[0].Message
		}
		return "Verifique os campos destacados."
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "Ocorreu um erro inesperado. Tente novamente."
	}

	switch apiErr.Kind {
	case KindNetwork:
		return "Não foi possível conectar ao servidor. Tente novamente."
	case KindUnauthorized:
		return "Sua sessão expirou. Faça login novamente."
	case KindNotFound:
		return "Registro não encontrado."
	case KindPrecondition:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Selecione uma igreja antes de continuar."
	case KindConflict:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Operação não permitida no estado atual."
	case KindValidation:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Dados inválidos."
	default:
		return "Ocorreu um erro inesperado. Tente novamente."
	}
}
