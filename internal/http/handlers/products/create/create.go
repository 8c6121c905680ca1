// Package create обрабатывает создание товара администратором.
package create

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service определяет создание товара.
type Service interface {
	Create(ctx context.Context, in models.ProductInput) (models.Product, error)
}

// Handler обрабатывает POST /products.
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

const maxMultipartMemory = 1 << 20

// ServeHTTP godoc
// @Summary Создание товара
// @Description Принимает JSON или multipart/form-data. Только для администраторов
// @Tags Products
// @Accept  json
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param request body models.ProductInput true "Данные товара"
// @Success 201 {object} response.Response{data=models.Product}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 409 {object} response.ErrorResponse "Товар с таким названием уже есть"
// @Router /products [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var (
		req models.ProductInput
		err error
	)
	if isMultipart(r) {
		req, err = decodeForm(r)
	} else {
		err = render.DecodeJSON(r.Body, &req)
	}
	if err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		if _, ok := apperr.As(err); ok {
			response.Fail(w, r, log, err)
			return
		}
		response.BadRequest(w, r, "invalid request body")
		return
	}

	product, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Info("product rejected", sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("product created", slog.Int64("product_id", product.ID))
	response.OK(w, r, http.StatusCreated, "product created successfully", product)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodeForm собирает ProductInput из полей формы.
func decodeForm(r *http.Request) (models.ProductInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return models.ProductInput{}, err
	}

	in := models.ProductInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Image:       r.FormValue("image"),
	}
	fields := map[string]string{}

	if raw := r.FormValue("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields["price"] = "must be a number"
		}
		in.Price = price
	}
	if raw := r.FormValue("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			fields["stock"] = "must be an integer"
		}
		in.Stock = stock
	}
	if raw := r.FormValue("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			fields["isActive"] = "must be true or false"
		}
		in.IsActive = &active
	}
	if raw := r.FormValue("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			fields["featured"] = "must be true or false"
		}
		in.Featured = featured
	}

	if len(fields) > 0 {
		return models.ProductInput{}, apperr.Validation("invalid form fields", fields)
	}
	return in, nil
}

