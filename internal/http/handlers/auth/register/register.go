// Package register обрабатывает регистрацию пользователей.
package register

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/services/auth"
)

// Service определяет регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, in models.RegisterInput) (auth.Registered, error)
}

// Handler обрабатывает POST /register.
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
// @Summary Регистрация пользователя
// @Description Создает пользователя с ролью user
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.RegisterInput true "Данные пользователя"
// @Success 201 {object} response.Response{data=auth.Registered}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.RegisterInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Info("registration rejected", sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("user registered", slog.Int64("user_id", res.UserID))
	response.OK(w, r, http.StatusCreated, "user registered successfully", res)
}
