// Package read отдает товар по идентификатору.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/request"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service определяет чтение товара.
type Service interface {
	Get(ctx context.Context, id int64, includeInactive bool) (models.Product, error)
}

// Handler обрабатывает GET /products/{id}.
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
// @Summary Товар по ID
// @Tags Products
// @Produce  json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response{data=models.Product}
// @Failure 400 {object} response.ErrorResponse "Неверный ID"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Router /products/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	product, err := h.service.Get(r.Context(), id, ok && identity.IsAdmin())
	if err != nil {
		log.Info("failed to get product", slog.Int64("product_id", id), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	response.OK(w, r, http.StatusOK, "product retrieved successfully", product)
}
