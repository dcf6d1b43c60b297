package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// DefaultProofDomain — домен mini-app, принимаемый в ton_proof,
// если TON_PROOF_DOMAIN не задан.
const DefaultProofDomain = "dynamiccapital.ton"

type Config struct {
	// Database
	PostgresDSN string
	RedisURL    string

	// TON Connect
	TONProofDomains []string      // allow-list доменов в ton_proof
	TONProofMaxAge  time.Duration // окно свежести timestamp в proof

	// Auth
	BotToken       string
	WebAppSecret   string
	JWTSecret      string
	JWTExpiration  time.Duration
	InitDataMaxAge time.Duration // макс. возраст auth_date из Telegram initData

	// Server
	APIPort string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		TONProofDomains: parseDomainList(getEnv("TON_PROOF_DOMAIN", "")),
		TONProofMaxAge:  time.Duration(getEnvInt("TON_PROOF_MAX_AGE_SECONDS", 300)) * time.Second,

		BotToken:       getEnv("BOT_TOKEN", ""),
		WebAppSecret:   getEnv("WEBAPP_SECRET", ""),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiration:  time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		InitDataMaxAge: time.Duration(getEnvInt("INIT_DATA_MAX_AGE_SECONDS", 300)) * time.Second,

		APIPort: getEnv("API_PORT", "3000"),
	}

	if len(cfg.TONProofDomains) == 0 {
		cfg.TONProofDomains = []string{DefaultProofDomain}
	}
	if cfg.WebAppSecret == "" && cfg.BotToken != "" {
		cfg.WebAppSecret = cfg.BotToken
	}

	return cfg
}

// Validate проверяет обязательные настройки. Отсутствие реквизитов БД —
// фатальная ошибка старта, а не per-request.
func (c *Config) Validate(log *zap.Logger) error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	if c.JWTSecret == "change-me-in-production" {
		log.Warn("JWT_SECRET is default, change in production")
	}
	if c.WebAppSecret == "" {
		log.Warn("WEBAPP_SECRET/BOT_TOKEN is not set, telegram auth will reject everything")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseDomainList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var domains []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			domains = append(domains, p)
		}
	}
	return domains
}
