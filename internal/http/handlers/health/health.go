// Package health отвечает на проверку живости сервиса и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Check проверяет доступность одной зависимости.
type Check func(ctx context.Context) error

// Handler обрабатывает GET /health.
type Handler struct {
	log     *slog.Logger
	version string
	started time.Time
	checks  map[string]Check
}

// New создает новый экземпляр Handler. checks может быть пустым.
func New(log *slog.Logger, version string, checks map[string]Check) *Handler {
	return &Handler{
		log:     log,
		version: version,
		started: time.Now(),
		checks:  checks,
	}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Проверяет хранилище, redis и rabbitmq, если они настроены
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.Error("dependency unavailable", slog.String("dependency", name), sl.Err(err))
			deps[name] = "down"
			healthy = false
			continue
		}
		deps[name] = "up"
	}

	data := map[string]any{
		"version":      h.version,
		"uptime":       time.Since(h.started).Round(time.Second).String(),
		"dependencies": deps,
	}
	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{
			Status:  response.StatusError,
			Message: "service degraded",
			Code:    "SERVICE_UNAVAILABLE",
			Data:    data,
		})
		return
	}
	response.OK(w, r, http.StatusOK, "ok", data)
}
