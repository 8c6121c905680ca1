// Package remove обрабатывает удаление товара.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/storefront/internal/http/request"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
)

// Service определяет удаление товара.
type Service interface {
	Delete(ctx context.Context, id int64) error
}

// Handler обрабатывает DELETE /products/{id}.
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
// @Summary Удаление товара
// @Tags Products
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Router /products/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ID(r, "id")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Info("failed to delete product", slog.Int64("product_id", id), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("product deleted", slog.Int64("product_id", id))
	response.OK(w, r, http.StatusOK, "product deleted successfully", nil)
}
