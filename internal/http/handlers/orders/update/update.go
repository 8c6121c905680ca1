// Package update обрабатывает административное изменение заказа.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/request"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service определяет изменение заказа.
type Service interface {
	Update(ctx context.Context, id int64, upd models.OrderUpdate) (models.Order, []models.Change, error)
}

// Handler обрабатывает PUT /orders/{id}.
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

// Result - измененный заказ и журнал изменений.
type Result struct {
	Order   models.Order    `json:"order"`
	Changes []models.Change `json:"changes"`
}

// ServeHTTP godoc
// @Summary Изменение заказа
// @Description Смена статуса, статуса оплаты, трек-номера и заметок. Только для администраторов
// @Tags Orders
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID заказа"
// @Param request body models.OrderUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Недопустимый переход или нет изменений"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Router /orders/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.orders.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	var upd models.OrderUpdate
	if err := render.DecodeJSON(r.Body, &upd); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	order, changes, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		log.Info("order update rejected", slog.Int64("order_id", id), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("order updated",
		slog.Int64("order_id", id),
		slog.String("status", string(order.Status)),
		slog.Int("changes", len(changes)),
	)
	response.OK(w, r, http.StatusOK, "order updated successfully", Result{Order: order, Changes: changes})
}
