// Package storefront собирает зависимости магазина и запускает HTTP-сервер.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/storefront/internal/cache"
	"github.com/magabrotheeeer/storefront/internal/config"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/health"
	"github.com/magabrotheeeer/storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/storefront/internal/lib/password"
	"github.com/magabrotheeeer/storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/lib/validation"
	"github.com/magabrotheeeer/storefront/internal/metrics"
	"github.com/magabrotheeeer/storefront/internal/migrations"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/ratelimit"
	"github.com/magabrotheeeer/storefront/internal/services/auth"
	"github.com/magabrotheeeer/storefront/internal/services/catalog"
	"github.com/magabrotheeeer/storefront/internal/services/order"
	"github.com/magabrotheeeer/storefront/internal/storage"
	"github.com/magabrotheeeer/storefront/internal/storage/jsonfile"
	"github.com/magabrotheeeer/storefront/internal/storage/memory"
	"github.com/magabrotheeeer/storefront/internal/storage/postgresql"
)

// Version - версия сборки, отдаётся в /health.
var Version = "dev"

const cleanupInterval = time.Minute

// App хранит HTTP-сервер и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server          *http.Server
	logger          *slog.Logger
	store           storage.Store
	redis           *redis.Client
	amqpConn        *amqp.Connection
	publisher       *rabbitmq.Publisher
	cleanup         func(ctx context.Context)
	shutdownTimeout time.Duration
}

// Services - сервисы, которые обслуживают маршруты.
type Services struct {
	Auth    *auth.Service
	Catalog *catalog.Service
	Orders  *order.Service
	Metrics *metrics.Metrics
	Limiter ratelimit.Limiter
	Checks  map[string]health.Check
}

// New поднимает хранилище, кэш, брокер и сервисы по конфигу.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.storefront.New"

	store, err := openStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{
		logger:          logger,
		store:           store,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	if cfg.SeedDemo {
		n, err := storage.SeedDemoCatalog(ctx, store, time.Now().UTC())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: seed catalog: %w", op, err)
		}
		logger.Info("demo catalog seeded", slog.Int("products", n))
	}

	var productCache catalog.Cache = cache.Noop{}
	if cfg.Redis.Address != "" {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.redis = client
		productCache = cache.New(client)
		logger.Info("redis connected", slog.String("address", cfg.Redis.Address))
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedis(app.redis)
	} else {
		mem := ratelimit.NewMemory()
		app.cleanup = func(ctx context.Context) {
			mem.RunCleanup(ctx, cleanupInterval, maxWindow(cfg.RateLimit))
		}
		limiter = mem
	}

	var publisher order.Publisher = rabbitmq.Noop{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, 5, 2*time.Second)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.OrderQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange)
		publisher = app.publisher
		logger.Info("rabbitmq connected", slog.String("exchange", cfg.RabbitMQ.Exchange))
	}

	orderCfg, err := orderConfig(cfg.Orders)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	validate := validation.New()
	m := metrics.New()
	authService := auth.NewService(store, password.NewHasher(cfg.BcryptCost),
		jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), validate, logger)
	catalogService := catalog.NewService(store, productCache, cfg.Redis.CacheTTL, validate, logger)
	orderService := order.NewService(store, orderCfg, validate, publisher, m, catalogService, logger)

	if err := ensureAdmin(ctx, authService, cfg.Admin); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Auth:    authService,
		Catalog: catalogService,
		Orders:  orderService,
		Metrics: m,
		Limiter: limiter,
		Checks:  app.healthChecks(),
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// healthChecks собирает проверки только для настроенных зависимостей.
func (a *App) healthChecks() map[string]health.Check {
	checks := make(map[string]health.Check)
	if pinger, ok := a.store.(interface{ Ping(context.Context) error }); ok {
		checks["storage"] = pinger.Ping
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}
	}
	if a.amqpConn != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if a.amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}
	}
	return checks
}

func openStore(cfg config.Storage, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case "json":
		store, err := jsonfile.Open(cfg.JSONPath)
		if err != nil {
			return nil, err
		}
		logger.Info("json storage opened", slog.String("path", store.Path()))
		return store, nil
	case "postgres":
		db, err := postgresql.New(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("postgres storage ready")
		return db, nil
	default:
		logger.Info("using in-memory storage")
		return memory.New(), nil
	}
}

func orderConfig(cfg config.Orders) (order.Config, error) {
	fee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return order.Config{}, fmt.Errorf("orders.shipping_fee: %w", err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return order.Config{}, fmt.Errorf("orders.free_shipping_threshold: %w", err)
	}
	return order.Config{
		ShippingFee:           fee,
		FreeShippingThreshold: threshold,
		DeliveryLeadTime:      cfg.DeliveryLeadTime,
	}, nil
}

func ensureAdmin(ctx context.Context, svc *auth.Service, cfg config.Admin) error {
	if cfg.Email == "" {
		return nil
	}
	_, err := svc.EnsureAdmin(ctx, models.RegisterInput{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
		FullName: "Administrator",
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return nil
}

func maxWindow(cfg config.RateLimit) time.Duration {
	longest := time.Duration(0)
	for _, l := range []config.Limit{cfg.Login, cfg.Register, cfg.Admin, cfg.Orders, cfg.Public} {
		if l.Window > longest {
			longest = l.Window
		}
	}
	return longest
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	if a.cleanup != nil {
		go a.cleanup(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", sl.Err(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close storage", sl.Err(err))
		}
	}
}
