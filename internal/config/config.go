package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config/local.yaml"

type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"1m"`
}

// RedisConnect is optional. With an empty Host the service falls back to an in-process cart
// cache and checkout rate limiting is disabled.
type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"5m"`
	MemorySize int           `yaml:"memory_size" env:"CACHE_MEMORY_SIZE" env-default:"10000"`
}

// RateConfig bounds checkout attempts per user in a sliding window.
type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"CHECKOUT_MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"CHECKOUT_WINDOW_SIZE" env-default:"1m"`
}

type CartConfig struct {
	MaxConflictRetries int `yaml:"max_conflict_retries" env:"CART_MAX_CONFLICT_RETRIES" env-default:"3"`
}

type CheckoutConfig struct {
	Provider          string `yaml:"provider" env:"CHECKOUT_PROVIDER" env-default:"razorpay"`
	Currency          string `yaml:"currency" env:"CHECKOUT_CURRENCY" env-default:"INR"`
	ReceiptPrefix     string `yaml:"receipt_prefix" env:"CHECKOUT_RECEIPT_PREFIX" env-default:"receipt_"`
	TrustClientPrices bool   `yaml:"trust_client_prices" env:"CHECKOUT_TRUST_CLIENT_PRICES" env-default:"false"`
	// MaxOrderAmount caps a single order in minor units; 0 disables the cap.
	MaxOrderAmount int64 `yaml:"max_order_amount" env:"CHECKOUT_MAX_ORDER_AMOUNT" env-default:"100000000000"`
}

type Razorpay struct {
	KeyID     string `yaml:"RAZORPAY_KEY_ID" env:"RAZORPAY_KEY_ID"`
	KeySecret string `yaml:"RAZORPAY_KEY_SECRET" env:"RAZORPAY_KEY_SECRET"`
}

type Stripe struct {
	APIKey         string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY"`
	PublishableKey string `yaml:"STRIPE_PUBLISHABLE_KEY" env:"STRIPE_PUBLISHABLE_KEY"`
}

type RabbitMQ struct {
	URL      string `yaml:"RABBITMQ_URL" env:"RABBITMQ_URL"`
	Exchange string `yaml:"EXCHANGE" env:"RABBITMQ_EXCHANGE" env-default:"cart.events"`
}

type Telemetry struct {
	ServiceName  string `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"cart-service"`
	OTLPEndpoint string `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT"`
	Insecure     bool   `yaml:"INSECURE" env:"OTEL_EXPORTER_INSECURE" env-default:"true"`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	Database     Database       `yaml:"database"`
	RedisConnect RedisConnect   `yaml:"redis"`
	Cache        CacheConfig    `yaml:"cache"`
	RateConfig   RateConfig     `yaml:"rateConfig"`
	Cart         CartConfig     `yaml:"cart"`
	Checkout     CheckoutConfig `yaml:"checkout"`
	Razorpay     Razorpay       `yaml:"razorpay"`
	Stripe       Stripe         `yaml:"stripe"`
	RabbitMQ     RabbitMQ       `yaml:"rabbitmq"`
	Telemetry    Telemetry      `yaml:"otel"`
	Security     Security       `yaml:"security"`
	CORS         CORS           `yaml:"cors"`
}

// MustLoad resolves the config path from CONFIG_PATH, the -config flag or the default path and
// exits the process if the configuration cannot be read.
func MustLoad() *Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "path to the config file")
		flag.Parse()

		configPath = *flags
	}

	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config: %s", err.Error())
	}

	return cfg
}

func LoadConfigFromPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Checkout.Provider {
	case ProviderRazorpay:
		if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
			return fmt.Errorf("razorpay provider requires RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
	case ProviderStripe:
		if c.Stripe.APIKey == "" || c.Stripe.PublishableKey == "" {
			return fmt.Errorf("stripe provider requires STRIPE_API_KEY and STRIPE_PUBLISHABLE_KEY")
		}
	default:
		return fmt.Errorf("unsupported checkout provider %q", c.Checkout.Provider)
	}

	if c.Checkout.MaxOrderAmount < 0 {
		return fmt.Errorf("checkout.max_order_amount must not be negative")
	}

	if c.Cart.MaxConflictRetries < 0 {
		return fmt.Errorf("cart.max_conflict_retries must not be negative")
	}

	return nil
}

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
)

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}

func (r *RedisConnect) Enabled() bool {
	return r.Host != ""
}
