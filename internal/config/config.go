// Package config предоставялет структуры и функции для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Session                 `yaml:"session"`
	Stripe                  `yaml:"stripe"`
	Checkout                `yaml:"checkout"`
	Signup                  `yaml:"signup"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	CORS                    `yaml:"cors"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"25s"`
	RateLimit      float64       `yaml:"rate_limit" env-default:"5"`
	RateBurst      int           `yaml:"rate_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	RedisAddress     string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	RedisPassword    string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser        string        `yaml:"user" env:"REDIS_USER"`
	RedisDB          int           `yaml:"db"`
	RedisMaxRetries  int           `yaml:"max_retries"`
	RedisDialTimeout time.Duration `yaml:"dial_timeout"`
	RedisTimeout     time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Session настройки cookie-сессии
type Session struct {
	SessionName   string        `yaml:"name" env-default:"medico_session"`
	SessionKey    string        `yaml:"key" env:"SESSION_KEY" env-required:"true"`
	SessionMaxAge time.Duration `yaml:"max_age" env-default:"336h"`
	SecureCookie  bool          `yaml:"secure" env:"SESSION_SECURE"`
}

// Stripe настройки платежного провайдера
type Stripe struct {
	SecretKey         string        `yaml:"secret_key" env:"STRIPE_SECRET_KEY" env-required:"true"`
	PublishableKey    string        `yaml:"publishable_key" env:"STRIPE_PUBLISHABLE_KEY"`
	OneTimePriceID    string        `yaml:"one_time_price_id" env:"STRIPE_ONE_TIME_PRICE_ID" env-required:"true"`
	APIURL            string        `yaml:"api_url" env:"STRIPE_API_URL"`
	Timeout           time.Duration `yaml:"timeout" env-default:"20s"`
	MaxNetworkRetries int64         `yaml:"max_network_retries" env-default:"0"`
	PriceCacheTTL     time.Duration `yaml:"price_cache_ttl" env-default:"10m"`
	CustomerLockTTL   time.Duration `yaml:"customer_lock_ttl" env-default:"30s"`
	BillingAddress    Address       `yaml:"billing_address"`
}

// Address адрес, который передается провайдеру при создании покупателя
type Address struct {
	City       string `yaml:"city" env-default:"Los Angeles"`
	Country    string `yaml:"country" env-default:"US"`
	Line1      string `yaml:"line1" env-default:"Test"`
	Line2      string `yaml:"line2" env-default:"Test"`
	PostalCode string `yaml:"postal_code" env-default:"90001"`
	State      string `yaml:"state" env-default:"California"`
}

// Checkout настройки формы оформления консультации
type Checkout struct {
	ReasonMaxLength int    `yaml:"reason_max_length" env-default:"1000"`
	SuccessURL      string `yaml:"success_url" env-default:"/users/payments/consultation/"`
	CancelNextURL   string `yaml:"cancel_next_url" env-default:"/"`
}

// Signup настройки регистрации
type Signup struct {
	UploadsDir    string `yaml:"uploads_dir" env:"UPLOADS_DIR" env-default:"./media"`
	UploadsBucket string `yaml:"uploads_bucket" env:"UPLOADS_BUCKET"`
	TimeZone      string `yaml:"time_zone" env-default:"UTC"`
	MinimumAge    int    `yaml:"minimum_age" env-default:"18"`
}

// RabbitMQ настройки брокера для событий биллинга
type RabbitMQ struct {
	RabbitMQURL   string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange      string        `yaml:"exchange" env-default:"billing"`
	ConnRetries   int           `yaml:"retries" env-default:"5"`
	ConnRetryWait time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера для уведомлений
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// CORS разрешенные источники для фронтенда оплаты
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// Load читает .env (если есть) и конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	// .env необязателен
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Location возвращает часовой пояс, в котором считается возраст при регистрации.
func (s Signup) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Stripe:\n"+
			"  OneTimePriceID: %s\n"+
			"  Timeout: %s\n"+
			"Checkout:\n"+
			"  ReasonMaxLength: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n",
		c.Env,
		c.RedisAddress,
		c.RedisDB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.OneTimePriceID,
		c.Timeout,
		c.ReasonMaxLength,
		c.Exchange,
	)
}
