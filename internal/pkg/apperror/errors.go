package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidState      ErrorCode = "INVALID_STATE"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidLevel      ErrorCode = "INVALID_LEVEL"
	ErrCodeDuplicateVote     ErrorCode = "DUPLICATE_VOTE"
	ErrCodeNotEligible       ErrorCode = "NOT_ELIGIBLE"
	ErrCodeAlreadyFinalized  ErrorCode = "ALREADY_FINALIZED"
	ErrCodeExternalFailure   ErrorCode = "EXTERNAL_FAILURE"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeNotEligible:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidState, ErrCodeInvalidTransition, ErrCodeInvalidLevel,
		ErrCodeDuplicateVote, ErrCodeAlreadyFinalized:
		return http.StatusConflict
	case ErrCodeExternalFailure:
		// Коллаборатор недоступен: запрос можно повторить, спор не изменён.
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Is возвращает true, если err является AppError с указанным кодом.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool   { return Is(err, ErrCodeNotFound) }
func IsForbidden(err error) bool  { return Is(err, ErrCodeForbidden) }
func IsValidation(err error) bool { return Is(err, ErrCodeValidation) }
func IsRetryable(err error) bool  { return Is(err, ErrCodeExternalFailure) }

var (
	ErrDisputeNotFound  = New(ErrCodeNotFound, "спор не найден")
	ErrUserNotFound     = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden        = New(ErrCodeForbidden, "недостаточно прав")
	ErrDuplicateVote    = New(ErrCodeDuplicateVote, "арбитр уже голосовал в этом раунде")
	ErrNotEligible      = New(ErrCodeNotEligible, "арбитр не входит в пул текущего раунда")
	ErrAlreadyFinalized = New(ErrCodeAlreadyFinalized, "спор уже закрыт")
)
