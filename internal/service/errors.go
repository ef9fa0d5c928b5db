package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the transport layer can pick a status code
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindStorage
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the error type returned by every service method.
// Message is safe to show to the end user.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func NotFoundError(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func ConflictError(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func UnauthorizedError(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func ForbiddenError(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }

// StorageError wraps a persistence failure. Callers may retry with backoff.
func StorageError(op string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Message: "Não foi possível acessar os dados neste momento. Por favor, tente novamente mais tarde.",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// InternalError wraps an unexpected failure that is not the caller's fault
func InternalError(op string, err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "Ocorreu um erro interno. Por favor, tente novamente mais tarde.",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// UnavailableError wraps a failure of the remote assistant
func UnavailableError(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message carried by err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Erro interno do servidor. Por favor, tente novamente mais tarde."
}

// Shared user-facing messages
const (
	msgUserNotFound   = "Usuário não encontrado. Verifique se o ID está correto."
	msgInvalidAnswers = "Dados inválidos. Verifique se as perguntas e alternativas existem."
)

// ErrInsufficientQuestions is returned when the daily pool is below the minimum session size
var ErrInsufficientQuestions = &Error{
	Kind:    KindInternal,
	Message: "Não há perguntas suficientes para o questionário diário.",
}
