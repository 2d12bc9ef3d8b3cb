package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	AppEnv                 string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	DefaultBranch          string
	VATRate                float64
	AuthSecret             string
	AccessTokenTTLMinutes  int
	GeminiAPIKey           string
	SummaryCacheTTLMinutes int
	SnapshotPath           string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	summaryTTL, err := strconv.Atoi(getEnv("SUMMARY_CACHE_TTL_MINUTES", "15"))
	if err != nil || summaryTTL < 1 {
		summaryTTL = 15
	}
	vatRate, err := strconv.ParseFloat(getEnv("VAT_RATE", "0.16"), 64)
	if err != nil || vatRate < 0 || vatRate >= 1 {
		vatRate = 0.16
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		AppEnv:                 getEnv("APP_ENV", "development"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		DefaultBranch:          getEnv("DEFAULT_BRANCH_ID", "main"),
		VATRate:                vatRate,
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		GeminiAPIKey:           strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		SummaryCacheTTLMinutes: summaryTTL,
		SnapshotPath:           os.Getenv("SNAPSHOT_PATH"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
