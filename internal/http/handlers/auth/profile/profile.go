// Package profile отдает учётную запись текущего пользователя.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// Service определяет чтение профиля.
type Service interface {
	Profile(ctx context.Context, caller models.Identity) (models.PublicUser, error)
}

// Handler обрабатывает GET /me.
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
// @Summary Текущий пользователь
// @Description Возвращает учётную запись владельца токена без хеша пароля
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.PublicUser}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 403 {object} response.ErrorResponse "Учётная запись отключена"
// @Failure 404 {object} response.ErrorResponse "Пользователь удалён"
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.Fail(w, r, log, apperr.ErrNoToken)
		return
	}

	user, err := h.service.Profile(r.Context(), caller)
	if err != nil {
		log.Info("failed to get profile", slog.Int64("user_id", caller.ID), sl.Err(err))
		response.Fail(w, r, log, err)
		return
	}

	response.OK(w, r, http.StatusOK, "profile retrieved successfully", user)
}
