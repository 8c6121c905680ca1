// Package update обрабатывает частичное изменение товара.
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

// Service определяет изменение товара.
type Service interface {
	Update(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
}

// Handler обрабатывает PUT /products/{id}.
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
// @Summary Изменение товара
// @Description Меняет только переданные поля. Только для администраторов
// @Tags Products
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID товара"
// @Param request body models.ProductPatch true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Product}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 409 {object} response.ErrorResponse "Товар с таким названием уже есть"
// @Router /products/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	var patch models.ProductPatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	product, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		log.Info("product update rejected", slog.Int64("product_id", id), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("product updated", slog.Int64("product_id", id))
	response.OK(w, r, http.StatusOK, "product updated successfully", product)
}
