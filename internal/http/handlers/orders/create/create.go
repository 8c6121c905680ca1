// Package create обрабатывает оформление заказа.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service определяет оформление заказа.
type Service interface {
	Create(ctx context.Context, caller models.Identity, in models.OrderInput) (models.Order, error)
}

// Handler обрабатывает POST /orders.
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
// @Summary Оформление заказа
// @Description Проверяет все позиции, резервирует остатки и сохраняет заказ
// @Tags Orders
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.OrderInput true "Корзина и адрес доставки"
// @Success 201 {object} response.Response{data=models.Order}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или нехватка товара"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.orders.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrNoToken)
		return
	}

	var req models.OrderInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	order, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		log.Info("order rejected", slog.Int64("user_id", caller.ID), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("user_id", caller.ID),
	)
	response.OK(w, r, http.StatusCreated, "order created successfully", order)
}
