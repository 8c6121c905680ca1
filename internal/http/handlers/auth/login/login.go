// Package login обрабатывает вход пользователей.
package login

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

// Service определяет вход пользователя.
type Service interface {
	Login(ctx context.Context, in models.LoginInput) (auth.LoginResult, error)
}

// Handler обрабатывает POST /login.
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
// @Summary Вход пользователя
// @Description Проверяет email и пароль и выдает JWT
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.LoginInput true "Учетные данные"
// @Success 200 {object} response.Response{data=auth.LoginResult}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверный email или пароль"
// @Failure 403 {object} response.ErrorResponse "Учетная запись отключена"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LoginInput
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		log.Info("login rejected", sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	log.Info("user logged in", slog.Int64("user_id", res.User.ID))
	response.OK(w, r, http.StatusOK, "login successful", res)
}
