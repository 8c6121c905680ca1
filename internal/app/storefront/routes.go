package storefront

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/storefront/internal/config"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/health"
	ordercreate "github.com/magabrotheeeer/storefront/internal/http/handlers/orders/create"
	orderlist "github.com/magabrotheeeer/storefront/internal/http/handlers/orders/list"
	orderread "github.com/magabrotheeeer/storefront/internal/http/handlers/orders/read"
	orderupdate "github.com/magabrotheeeer/storefront/internal/http/handlers/orders/update"
	productcreate "github.com/magabrotheeeer/storefront/internal/http/handlers/products/create"
	productlist "github.com/magabrotheeeer/storefront/internal/http/handlers/products/list"
	productread "github.com/magabrotheeeer/storefront/internal/http/handlers/products/read"
	productremove "github.com/magabrotheeeer/storefront/internal/http/handlers/products/remove"
	productupdate "github.com/magabrotheeeer/storefront/internal/http/handlers/products/update"
	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/ratelimit"
)

func rule(l config.Limit) ratelimit.Rule {
	return ratelimit.Rule{Max: l.Max, Window: l.Window}
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services) {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Глобальные middleware
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.SecurityHeaders,
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middlewarectx.FloodGuard(rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst), logger),
		middlewarectx.MaxBodyBytes(cfg.MaxBodyBytes),
		middlewarectx.Metrics(svc.Metrics),
	)

	limits := middlewarectx.NewRateLimiter(svc.Limiter, cfg.RateLimit.Enabled, svc.Metrics, logger)
	jwtAuth := middlewarectx.JWTMiddleware(svc.Auth, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.With(limits.Limit("register", rule(cfg.RateLimit.Register))).
			Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.With(limits.Limit("login", rule(cfg.RateLimit.Login))).
			Post("/login", login.New(logger, svc.Auth).ServeHTTP)

		// Каталог; администратор с токеном видит и неактивные товары
		r.Group(func(r chi.Router) {
			r.Use(limits.Limit("public", rule(cfg.RateLimit.Public)))
			r.Use(middlewarectx.OptionalJWT(svc.Auth))
			r.Get("/products", productlist.New(logger, svc.Catalog).ServeHTTP)
			r.Get("/products/{id}", productread.New(logger, svc.Catalog).ServeHTTP)
		})

		// Заказы и профиль покупателя
		r.Group(func(r chi.Router) {
			r.Use(limits.Limit("orders", rule(cfg.RateLimit.Orders)))
			r.Use(jwtAuth)
			r.Post("/orders", ordercreate.New(logger, svc.Orders).ServeHTTP)
			r.Get("/orders", orderlist.New(logger, svc.Orders).ServeHTTP)
			r.Get("/orders/{id}", orderread.New(logger, svc.Orders).ServeHTTP)
			r.Get("/me", profile.New(logger, svc.Auth).ServeHTTP)
		})

		// Администрирование
		r.Group(func(r chi.Router) {
			r.Use(limits.Limit("admin", rule(cfg.RateLimit.Admin)))
			r.Use(jwtAuth)
			r.Use(middlewarectx.RequireAdmin(logger))
			r.Post("/products", productcreate.New(logger, svc.Catalog).ServeHTTP)
			r.Put("/products/{id}", productupdate.New(logger, svc.Catalog).ServeHTTP)
			r.Delete("/products/{id}", productremove.New(logger, svc.Catalog).ServeHTTP)
			r.Put("/orders/{id}", orderupdate.New(logger, svc.Orders).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, Version, svc.Checks).ServeHTTP)
	r.Handle("/metrics", svc.Metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
