// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
)

const (
	// StatusSuccess - значение статуса для успешного ответа.
	StatusSuccess = "success"
	// StatusError - значение статуса для ответа с ошибкой.
	StatusError = "error"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ErrorResponse - структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status  string            `json:"status" example:"error"`
	Message string            `json:"message" example:"validation failed"`
	Code    string            `json:"code" example:"VALIDATION_ERROR"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK пишет успешный ответ с данными.
func OK(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	render.Status(r, status)
	render.JSON(w, r, Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// BadRequest пишет 400 для запроса, который не удалось разобрать.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Response{
		Status:  StatusError,
		Message: message,
		Code:    "INVALID_REQUEST",
	})
}

// Fail переводит ошибку в HTTP‑ответ. Ошибки apperr отдаются клиенту
// как есть, остальные логируются и превращаются в обобщённую 500.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		log.Error("unhandled error",
			sl.Err(err),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		e = apperr.ErrInternal
	}

	if e.Kind == apperr.KindRateLimit && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(e.RetryAfter.Seconds())))
	}

	render.Status(r, e.Kind.HTTPStatus())
	render.JSON(w, r, Response{
		Status:  StatusError,
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	})
}

// RetryAfterSeconds округляет задержку вверх до целых секунд, не меньше одной.
func RetryAfterSeconds(seconds float64) int {
	return max(int(math.Ceil(seconds)), 1)
}
