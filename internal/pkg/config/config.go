package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string `env:"PORT,        default=8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	SeedRoutes bool   `env:"SEED_ROUTES, default=true"`

	Auth     AuthConfig
	Session  SessionConfig
	Checkout CheckoutConfig
	Payment  PaymentConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	JWTSecret                string        `env:"JWT_SECRET, required"`
	SessionTTL               time.Duration `env:"SESSION_TTL, default=24h"`
	SignupsEnabled           bool          `env:"SIGNUPS_ENABLED, default=true"`
	RequireEmailConfirmation bool          `env:"REQUIRE_EMAIL_CONFIRMATION, default=false"`
	SignInRatePerMinute      int           `env:"SIGNIN_RATE_PER_MINUTE, default=10"`
	AdminEmail               string        `env:"ADMIN_EMAIL, default=admin@ociferry.com"`
}

type SessionConfig struct {
	ProfileRetries      uint64        `env:"PROFILE_RETRIES, default=3"`
	ProfileRetryBackoff time.Duration `env:"PROFILE_RETRY_BACKOFF, default=1s"`
	EventWorkers        int           `env:"EVENT_WORKERS, default=8"`
	SweepInterval       time.Duration `env:"SESSION_SWEEP_INTERVAL, default=30s"`
}

type CheckoutConfig struct {
	TTL time.Duration `env:"CHECKOUT_TTL, default=30m"`
}

type PaymentConfig struct {
	// Provider is "paystack" or "simulated".
	Provider          string `env:"PAYMENT_PROVIDER, default=simulated"`
	PaystackSecretKey string `env:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL   string `env:"PAYSTACK_BASE_URL, default=https://api.paystack.co"`
	Currency          string `env:"PAYSTACK_CURRENCY, default=NGN"`
	CallbackURL       string `env:"PAYSTACK_CALLBACK_URL"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=ferry_booking"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=100"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=20"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Payment.Provider {
	case "simulated":
	case "paystack":
		if c.Payment.PaystackSecretKey == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required when PAYMENT_PROVIDER=paystack")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.Payment.Provider)
	}
	if c.Env == "production" && c.Payment.Provider == "simulated" {
		return fmt.Errorf("PAYMENT_PROVIDER=simulated is not allowed in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
