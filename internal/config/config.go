// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Storage    `yaml:"storage"`
	Redis      `yaml:"redis"`
	JWTToken   `yaml:"jwttoken"`
	RateLimit  `yaml:"rate_limit"`
	Orders     `yaml:"orders"`
	RabbitMQ   `yaml:"rabbitmq"`
	Admin      `yaml:"admin"`
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	// CORSOrigins пустой список означает «разрешить все источники»
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
	MaxBodyBytes int64   `yaml:"max_body_bytes" env-default:"1048576"`
	// TrustProxy разрешает брать адрес клиента из X-Forwarded-For/X-Real-IP.
	// Включать только за доверенным прокси.
	TrustProxy bool `yaml:"trust_proxy" env:"HTTP_TRUST_PROXY"`
}

// Storage структура для выбора и настройки хранилища
type Storage struct {
	Driver         string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	JSONPath       string `yaml:"json_path" env:"STORAGE_JSON_PATH" env-default:"data/store.json"`
	PostgresDSN    string `yaml:"postgres_dsn" env:"STORAGE_POSTGRES_DSN"`
	MigrationsPath string `yaml:"migrations_path" env-default:"migrations"`
	SeedDemo       bool   `yaml:"seed_demo" env:"STORAGE_SEED_DEMO"`
}

// Redis структура для настройки подключения к redis.
// Пустой адрес отключает кэш и распределённый лимитер.
type Redis struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Limit правило скользящего окна
type Limit struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// RateLimit настройки ограничения частоты запросов
type RateLimit struct {
	Enabled     bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Backend     string  `yaml:"backend" env-default:"memory"`
	GlobalRPS   float64 `yaml:"global_rps" env-default:"200"`
	GlobalBurst int     `yaml:"global_burst" env-default:"400"`
	Login       Limit   `yaml:"login"`
	Register    Limit   `yaml:"register"`
	Admin       Limit   `yaml:"admin"`
	Orders      Limit   `yaml:"orders"`
	Public      Limit   `yaml:"public"`
}

// Orders параметры расчёта заказа
type Orders struct {
	ShippingFee           string        `yaml:"shipping_fee" env-default:"10.00"`
	FreeShippingThreshold string        `yaml:"free_shipping_threshold" env-default:"100.00"`
	DeliveryLeadTime      time.Duration `yaml:"delivery_lead_time" env-default:"120h"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env-default:"orders"`
}

// Admin учётная запись администратора, создаваемая при старте
type Admin struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Username string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла, дополняя его переменными окружения
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	cfg.RateLimit.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *RateLimit) applyDefaults() {
	set := func(l *Limit, n int, window time.Duration) {
		if l.Max <= 0 {
			l.Max = n
		}
		if l.Window <= 0 {
			l.Window = window
		}
	}
	set(&r.Login, 5, 15*time.Minute)
	set(&r.Register, 3, time.Hour)
	set(&r.Admin, 20, time.Hour)
	set(&r.Orders, 30, time.Minute)
	set(&r.Public, 100, time.Minute)
}

func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("jwttoken.jwt_secret_key is required")
	}
	switch c.Storage.Driver {
	case "memory", "json":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required for redis rate limit backend")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  CORSOrigins: %v\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  SeedDemo: %t\n"+
			"Redis:\n"+
			"  Address: %s\n"+
			"  DB: %d\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"RateLimit:\n"+
			"  Enabled: %t\n"+
			"  Backend: %s\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n",
		c.Env,
		c.HTTPServer.Address,
		c.HTTPServer.Timeout,
		c.IdleTimeout,
		c.CORSOrigins,
		c.Storage.Driver,
		c.SeedDemo,
		c.Redis.Address,
		c.DB,
		c.TokenTTL,
		c.Enabled,
		c.Backend,
		c.Exchange,
	)
}
