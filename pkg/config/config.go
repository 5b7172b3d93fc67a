package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dwikikusuma/supershop-pos/pkg/postgres"
)

type Config struct {
	AppEnv   string
	LogLevel string

	GRPCPort int
	HTTPPort int

	// StoreDriver is one of "sqlite", "postgres" or "memory".
	StoreDriver string
	SQLitePath  string
	Postgres    postgres.Config

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	ShopName        string
	ThankYouMessage string

	CommitTimeout   time.Duration
	ItemConcurrency int
	IdempotencyTTL  time.Duration
	SeedCatalog     bool
}

func Load() Config {
	return Config{
		AppEnv:      getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		GRPCPort:    getEnvInt("GRPC_PORT", 8081),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/pos.db"),
		Postgres: postgres.Config{
			Host:    getEnv("POSTGRES_HOST", "localhost"),
			Port:    getEnvInt("POSTGRES_PORT", 5432),
			User:    getEnv("POSTGRES_USER", "shopping"),
			Pass:    getEnv("POSTGRES_PASSWORD", "shoppingpassword"),
			DB:      getEnv("POSTGRES_DB", "shopping_db"),
			SSLMode: getEnv("POSTGRES_SSLMODE", "disable"),
		},
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "pos.orders"),
		ShopName:        getEnv("SHOP_NAME", "STEFANS SUPERSHOP"),
		ThankYouMessage: getEnv("THANK_YOU_MESSAGE", "TACK FÖR DITT KÖP!"),
		CommitTimeout:   getEnvDuration("CHECKOUT_COMMIT_TIMEOUT", 30*time.Second),
		ItemConcurrency: getEnvInt("CHECKOUT_ITEM_CONCURRENCY", 4),
		IdempotencyTTL:  getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		SeedCatalog:     getEnvBool("SEED_CATALOG", true),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
