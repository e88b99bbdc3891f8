package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	Currency  string        `env:"CURRENCY,  default=UGX"`
	// AllowedOrigins lists the dashboard origins accepted by CORS and the
	// notification socket. Empty allows any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Lockout  LockoutConfig
	MoMo     MoMoConfig
	Payments PaymentsConfig
	Mail     MailConfig
	Store    StoreConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=nhonest"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type LockoutConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS,     default=5"`
	Duration    time.Duration `env:"LOGIN_LOCKOUT_DURATION, default=15m"`
}

type MoMoConfig struct {
	BaseURL           string  `env:"MOMO_BASE_URL,            default=https://sandbox.momodeveloper.mtn.com"`
	SubscriptionKey   string  `env:"MOMO_SUBSCRIPTION_KEY"`
	APIUser           string  `env:"MOMO_API_USER"`
	APIKey            string  `env:"MOMO_API_KEY"`
	TargetEnvironment string  `env:"MOMO_TARGET_ENVIRONMENT,  default=sandbox"`
	CallbackURL       string  `env:"MOMO_CALLBACK_URL"`
	RequestsPerSecond float64 `env:"MOMO_REQUESTS_PER_SECOND, default=5"`
	Burst             int     `env:"MOMO_BURST,               default=10"`
}

type PaymentsConfig struct {
	Workers      int           `env:"PAYMENT_WORKERS,       default=4"`
	PollInterval time.Duration `env:"PAYMENT_POLL_INTERVAL, default=5s"`
	PollTimeout  time.Duration `env:"PAYMENT_POLL_TIMEOUT,  default=5m"`
}

type MailConfig struct {
	Endpoint        string `env:"EMAILJS_ENDPOINT"`
	ServiceID       string `env:"EMAILJS_SERVICE_ID"`
	WelcomeTemplate string `env:"EMAILJS_WELCOME_TEMPLATE"`
	PublicKey       string `env:"EMAILJS_PUBLIC_KEY"`
	PrivateKey      string `env:"EMAILJS_PRIVATE_KEY"`
}

type StoreConfig struct {
	Name    string `env:"STORE_NAME,    default=N.Honest Supermarket"`
	Address string `env:"STORE_ADDRESS"`
	Phone   string `env:"STORE_PHONE"`
	Email   string `env:"STORE_EMAIL"`
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables using go-envconfig.
// Variables from a .env file in the working directory are applied first
// without overriding the real environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	return &cfg, nil
}
