// Package list отдает список заказов пользователя или всех заказов для администратора.
package list

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

// Service определяет выборку заказов.
type Service interface {
	List(ctx context.Context, caller models.Identity, q models.OrderQuery) (models.Page[models.OrderSummary], error)
}

// Handler обрабатывает GET /orders.
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
// @Summary Список заказов
// @Description Свои заказы. Администратор с adminView=true видит все
// @Tags Orders
// @Produce  json
// @Security BearerAuth
// @Param status query string false "Фильтр по статусу"
// @Param limit query int false "Размер страницы (1-100)"
// @Param offset query int false "Смещение"
// @Param sortBy query string false "createdAt, updatedAt, totalAmount, status, orderNumber"
// @Param sortOrder query string false "asc или desc"
// @Param adminView query bool false "Все заказы (только администратор)"
// @Success 200 {object} response.Response{data=models.Page[models.OrderSummary]}
// @Failure 400 {object} response.ErrorResponse "Неверные параметры"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Router /orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.orders.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrNoToken)
		return
	}

	q := r.URL.Query()
	limit, err := request.Int(q, "limit")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	offset, err := request.Int(q, "offset")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}
	adminView, err := request.Bool(q, "adminView")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	page, err := h.service.List(r.Context(), caller, models.OrderQuery{
		Status:    q.Get("status"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		AdminView: adminView != nil && *adminView,
	})
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	response.OK(w, r, http.StatusOK, "orders retrieved successfully", page)
}
