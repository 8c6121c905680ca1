// Package read отдает заказ по идентификатору.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/request"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service определяет чтение заказа.
type Service interface {
	Get(ctx context.Context, caller models.Identity, id int64) (models.Order, error)
}

// Handler обрабатывает GET /orders/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заказ по ID
// @Description Владелец или администратор видит заказ целиком
// @Tags Orders
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID заказа"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Router /orders/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.orders.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrNoToken)
		return
	}

	id, err := request.ID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	order, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		log.Info("failed to get order", slog.Int64("order_id", id), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	response.OK(w, r, http.StatusOK, "order retrieved successfully", order)
}
