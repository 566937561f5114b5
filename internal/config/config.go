package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Gemini  GeminiConfig
	Stripe  StripeConfig
	Quota   QuotaConfig
	Session SessionConfig

	// Optional; empty disables the analysis audit log
	DatabaseURL string
}

type ServerConfig struct {
	Port        string
	Environment string
	BaseURL     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string

	// Pre-configured price references; empty falls back to ad-hoc
	// price data where the plan allows it
	PriceSubscription string
	PriceCredits      string
	PriceOneTime      string
}

type QuotaConfig struct {
	FreeRunLimit      int
	FreeWindowSeconds int
	CreditsPerPack    int
	CreditsPackPrice  int64 // whole currency units; converted to minor units at checkout
	OneTimePrice      int64
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// Window returns the free-run window as a duration
func (q QuotaConfig) Window() time.Duration {
	return time.Duration(q.FreeWindowSeconds) * time.Second
}

// Load reads configuration from the environment. Missing credentials for
// Gemini or Stripe are warnings, not errors - those features degrade
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        envStr("PORT", "8080"),
			Environment: envStr("ENVIRONMENT", "development"),
			BaseURL:     envStr("BASE_URL", "http://localhost:8080"),
		},
		Redis: RedisConfig{
			Addr:     envStr("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  envStr("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Stripe: StripeConfig{
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			PublishableKey:    os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceSubscription: os.Getenv("PRICE_ID_SUBSCRIPTION"),
			PriceCredits:      os.Getenv("PRICE_ID_CREDITS"),
			PriceOneTime:      os.Getenv("PRICE_ID_ONE_TIME"),
		},
		Quota: QuotaConfig{
			FreeRunLimit:      envInt("FREE_RUN_LIMIT", 1),
			FreeWindowSeconds: envInt("FREE_WINDOW_SECONDS", 3600),
			CreditsPerPack:    envInt("CREDITS_PER_PACK", 10),
			CreditsPackPrice:  int64(envInt("CREDITS_PACK_PRICE", 9)),
			OneTimePrice:      int64(envInt("ONE_TIME_PRICE", 29)),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			TTL:    time.Duration(envInt("SESSION_TTL_HOURS", 720)) * time.Hour,
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	if cfg.Gemini.APIKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not set. The app will start, but AI calls will fail.")
	}
	if cfg.Stripe.SecretKey == "" {
		log.Println("WARNING: STRIPE_SECRET_KEY not set. Checkout is disabled.")
	}
	if cfg.Session.Secret == "" {
		// Sessions won't survive a restart with a generated secret
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Session.Secret = secret
		log.Println("WARNING: SESSION_SECRET not set, generated an ephemeral one")
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, v, fallback)
	}
	return fallback
}
