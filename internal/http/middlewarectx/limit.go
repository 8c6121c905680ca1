package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/storefront/internal/http/response"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/ratelimit"
)

// RateLimitRecorder учитывает отклонённые запросы.
type RateLimitRecorder interface {
	RateLimited(endpoint string)
}

// RateLimiter строит middleware ограничения частоты по эндпоинтам.
type RateLimiter struct {
	limiter  ratelimit.Limiter
	enabled  bool
	recorder RateLimitRecorder
	log      *slog.Logger
}

// NewRateLimiter создаёт RateLimiter. При enabled == false middleware
// пропускает все запросы.
func NewRateLimiter(limiter ratelimit.Limiter, enabled bool, recorder RateLimitRecorder, log *slog.Logger) *RateLimiter {
	return &RateLimiter{limiter: limiter, enabled: enabled, recorder: recorder, log: log}
}

// Limit ограничивает запросы к эндпоинту endpoint по адресу клиента.
// Ошибка хранилища лимитера не блокирует запрос.
func (rl *RateLimiter) Limit(endpoint string, rule ratelimit.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rl.enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RateLimiter.Limit"
			key := ClientIP(r) + ":" + endpoint

			decision, err := rl.limiter.Check(r.Context(), key, rule)
			if err != nil {
				rl.log.Error("rate limiter unavailable",
					slog.String("op", op),
					slog.String("endpoint", endpoint),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				rl.recorder.RateLimited(endpoint)
				rl.log.Warn("rate limit exceeded",
					slog.String("op", op),
					slog.String("key", key),
					slog.Duration("retry_after", decision.RetryAfter),
				)
				response.Fail(w, r, rl.log, apperr.RateLimited(decision.RetryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FloodGuard - общий для всех запросов token bucket.
func FloodGuard(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests", slog.String("remote_addr", r.RemoteAddr))
				response.Fail(w, r, log, apperr.RateLimited(time.Second))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает адрес клиента без порта. Заголовки прокси
// учитываются, только если перед лимитером стоит middleware.RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
