// Package apperr описывает таксономию ошибок предметной области магазина.
//
// Каждая ошибка имеет вид (Kind), который однозначно сопоставляется
// HTTP‑статусу на границе обработчиков, и машиночитаемый код (Code),
// который возвращается клиенту в поле "code".
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

// Kind - категория ошибки.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimit
)

// HTTPStatus возвращает HTTP‑статус для категории ошибки.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error - ошибка предметной области.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Fields     map[string]string // ошибки по полям, только для KindValidation
	RetryAfter time.Duration     // только для KindRateLimit
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал и для копий
// с дополненными полями.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Аутентификация.
var (
	ErrNoToken            = newErr(KindAuthentication, "NO_TOKEN", "access token required")
	ErrMalformedToken     = newErr(KindAuthentication, "MALFORMED_TOKEN", "malformed access token")
	ErrInvalidSignature   = newErr(KindAuthentication, "INVALID_SIGNATURE", "invalid token signature")
	ErrExpired            = newErr(KindAuthentication, "TOKEN_EXPIRED", "access token expired")
	ErrInvalidPayload     = newErr(KindAuthentication, "INVALID_PAYLOAD", "invalid token payload")
	ErrInvalidCredentials = newErr(KindAuthentication, "INVALID_CREDENTIALS", "invalid email or password")
)

// Авторизация.
var (
	ErrForbidden          = newErr(KindAuthorization, "FORBIDDEN", "access denied")
	ErrAdminRequired      = newErr(KindAuthorization, "ADMIN_REQUIRED", "admin privileges required")
	ErrAccountDeactivated = newErr(KindAuthorization, "ACCOUNT_DEACTIVATED", "account is deactivated")
)

// Отсутствующие сущности.
var (
	ErrUserNotFound    = newErr(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrProductNotFound = newErr(KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrOrderNotFound   = newErr(KindNotFound, "ORDER_NOT_FOUND", "order not found")
)

// Конфликты.
var (
	ErrUserExists    = newErr(KindConflict, "USER_EXISTS", "user with this username or email already exists")
	ErrProductExists = newErr(KindConflict, "PRODUCT_EXISTS", "product with this name already exists")
)

// Ошибки бизнес‑правил заказа. Все они являются ошибками валидации (400).
var (
	ErrProductInactive   = newErr(KindValidation, "PRODUCT_INACTIVE", "product is not available")
	ErrInsufficientStock = newErr(KindValidation, "INSUFFICIENT_STOCK", "insufficient stock")
	ErrInvalidTransition = newErr(KindValidation, "INVALID_TRANSITION", "invalid order status transition")
	ErrNoChanges         = newErr(KindValidation, "NO_CHANGES", "no changes to apply")
)

// ErrInternal - обобщённая ошибка для клиента, детали остаются в логах.
var ErrInternal = newErr(KindInternal, "INTERNAL_ERROR", "internal server error")

// Validation создаёт ошибку валидации с сообщениями по полям.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: msg, Fields: fields}
}

// RateLimited создаёт ошибку превышения лимита запросов.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "too many requests, please try again later",
		RetryAfter: retryAfter,
	}
}

// With возвращает копию ошибки с уточнённым сообщением, сохраняя код.
func (e *Error) With(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// FromValidator переводит ошибки go-playground/validator в ошибку валидации.
// Ошибки другого типа возвращаются без изменений.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = describe(fe)
	}
	return Validation("validation failed", fields)
}

// fieldName возвращает путь поля без имени корневой структуры.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return "is a required field"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "alphanum":
		return "can contain only numbers and letters"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is not valid"
	}
}

// As извлекает *Error из цепочки ошибок.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
