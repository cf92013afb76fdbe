package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Status возвращает HTTP статус для кода.
func (c ErrorCode) Status() int {
	switch c {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError доменная ошибка. Message показывается клиенту как есть.
type AppError struct {
	Code    ErrorCode
	Message string
}

func (e *AppError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is сравнивает по коду и сообщению, чтобы errors.Is работал с обёрнутыми sentinel-значениями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Validation это VALIDATION_ERROR с форматированным сообщением.
func Validation(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// HTTPStatus возвращает статус доменной ошибки в цепочке err, иначе 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code.Status()
	}
	return http.StatusInternalServerError
}

// Public возвращает статус и текст для клиента. ok=false для ошибок,
// которые нельзя показывать наружу: их нужно логировать и отдавать 500.
//
// Уточнение через fmt.Errorf("%w: ...", appErr) попадает в текст, внешний контекст нет.
func Public(err error) (status int, message string, ok bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code == ErrCodeInternal {
		return http.StatusInternalServerError, "", false
	}
	message = appErr.Message
	if full := err.Error(); strings.HasPrefix(full, appErr.Error()) {
		message = strings.TrimPrefix(full, string(appErr.Code)+": ")
	}
	return appErr.Code.Status(), message, true
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool   { return hasCode(err, ErrCodeNotFound) }
func IsForbidden(err error) bool  { return hasCode(err, ErrCodeForbidden) }
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

var (
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")
)
