// Package list отдает публичный список товаров.
package list

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

// Service определяет выборку товаров.
type Service interface {
	List(ctx context.Context, q models.ProductQuery, includeInactive bool) (models.Page[models.Product], error)
}

// Handler обрабатывает GET /products.
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
// @Summary Список товаров
// @Description Активные товары с фильтрами и пагинацией. Администратор видит и неактивные
// @Tags Products
// @Produce  json
// @Param category query string false "Категория"
// @Param search query string false "Подстрока названия или описания"
// @Param featured query bool false "Только рекомендуемые"
// @Param limit query int false "Размер страницы (1-100)"
// @Param offset query int false "Смещение"
// @Param sortBy query string false "name, price, createdAt, stock"
// @Param sortOrder query string false "asc или desc"
// @Success 200 {object} response.Response{data=models.Page[models.Product]}
// @Failure 400 {object} response.ErrorResponse "Неверные параметры"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /products [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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
	featured, err := request.Bool(q, "featured")
	if err != nil {
		response.Fail(w, r, log, err)
		return
	}

	query := models.ProductQuery{
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		Featured:  featured,
		Limit:     limit,
		Offset:    offset,
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	includeInactive := ok && identity.IsAdmin()

	page, err := h.service.List(r.Context(), query, includeInactive)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	response.OK(w, r, http.StatusOK, "products retrieved successfully", page)
}
