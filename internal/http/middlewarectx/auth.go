// Package middlewarectx содержит HTTP middleware сервиса: проверку JWT,
// проверку прав администратора, ограничение частоты запросов, заголовки
// безопасности и сбор метрик.
//
// JWTMiddleware кладёт личность вызывающего в контекст запроса; обработчики
// достают её через IdentityFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey - ключ личности вызывающего в контексте.
const IdentityKey Key = "identity"

// Verifier проверяет заголовок Authorization.
type Verifier interface {
	Verify(authHeader string) (models.Identity, error)
}

// WithIdentity возвращает контекст с личностью вызывающего.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom достаёт личность вызывающего из контекста.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(models.Identity)
	return identity, ok
}

// JWTMiddleware проверяет токен в заголовке Authorization. При ошибке
// отвечает 401 с кодом причины.
func JWTMiddleware(verifier Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			identity, err := verifier.Verify(r.Header.Get("Authorization"))
			if err != nil {
				log.Info("token rejected", slog.String("reason", err.Error()))
				response.Fail(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin пропускает только администраторов. Должен стоять после
// JWTMiddleware.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				response.Fail(w, r, log, apperr.ErrNoToken)
				return
			}
			if err := auth.AuthorizeAdmin(identity); err != nil {
				log.Warn("admin access denied",
					slog.Int64("user_id", identity.ID),
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				response.Fail(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalJWT кладёт личность в контекст, если передан валидный токен,
// и пропускает запрос без неё в остальных случаях.
func OptionalJWT(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" {
				if identity, err := verifier.Verify(header); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
