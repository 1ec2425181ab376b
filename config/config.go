package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bracketpulse/tournament-stats/elo"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	AdminEmail        string
	AdminPasswordHash string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	ChallongeBaseURL string
	ChallongeAPIKey  string

	EloStartingRating      int
	EloDefaultK            float64
	EloKFactorRules        []elo.KFactorRule
	EloLegacyThreeGameMode bool

	SyncCronSpec     string
	SyncFetchTimeout time.Duration
	SyncStageTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	cfg := &Config{}

	var err error
	if cfg.DatabaseURL, err = requireEnv("DATABASE_URL"); err != nil {
		return nil, err
	}
	if cfg.JWTSecretKey, err = requireEnv("JWT_SECRET_KEY"); err != nil {
		return nil, err
	}
	if cfg.AdminEmail, err = requireEnv("ADMIN_EMAIL"); err != nil {
		return nil, err
	}
	if cfg.AdminPasswordHash, err = requireEnv("ADMIN_PASSWORD_HASH"); err != nil {
		return nil, err
	}
	if cfg.ChallongeAPIKey, err = requireEnv("CHALLONGE_API_KEY"); err != nil {
		return nil, err
	}

	cfg.ChallongeBaseURL = os.Getenv("CHALLONGE_BASE_URL") // пусто — клиент возьмёт значение по умолчанию

	cfg.R2AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2BucketName = os.Getenv("R2_BUCKET_NAME")
	cfg.R2PublicBaseURL = os.Getenv("R2_PUBLIC_BASE_URL")

	if cfg.ServerPort, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.EloStartingRating, err = intEnv("ELO_STARTING_RATING", 1200); err != nil {
		return nil, err
	}
	if cfg.EloDefaultK, err = floatEnv("ELO_DEFAULT_K", 32); err != nil {
		return nil, err
	}
	if cfg.EloKFactorRules, err = parseKFactorRules(os.Getenv("ELO_K_FACTOR_RULES")); err != nil {
		return nil, err
	}
	cfg.EloLegacyThreeGameMode = boolEnv("ELO_LEGACY_THREE_GAME_OUTCOME")

	cfg.SyncCronSpec = os.Getenv("SYNC_CRON_SPEC")
	if cfg.SyncCronSpec == "" {
		cfg.SyncCronSpec = "@every 1m"
	}
	if cfg.SyncFetchTimeout, err = durationEnv("SYNC_FETCH_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.SyncStageTimeout, err = durationEnv("SYNC_STAGE_TIMEOUT"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func requireEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("%s environment variable is not set", name)
	}
	return value, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

func floatEnv(name string, fallback float64) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

func boolEnv(name string) bool {
	value, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && value
}

func durationEnv(name string) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, nil // ноль — сервис подставит свой дефолт
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

// parseKFactorRules разбирает правила вида "1600:24,2100:16" (порог:K),
// отсортированные по возрастанию порога.
func parseKFactorRules(raw string) ([]elo.KFactorRule, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	rules := make([]elo.KFactorRule, 0, len(parts))
	var prevThreshold float64

	for _, part := range parts {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid ELO_K_FACTOR_RULES entry %q, expected threshold:k", part)
		}
		threshold, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold in ELO_K_FACTOR_RULES entry %q: %w", part, err)
		}
		k, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid k in ELO_K_FACTOR_RULES entry %q: %w", part, err)
		}
		if len(rules) > 0 && threshold <= prevThreshold {
			return nil, fmt.Errorf("ELO_K_FACTOR_RULES thresholds must be strictly increasing, got %v after %v", threshold, prevThreshold)
		}
		rules = append(rules, elo.KFactorRule{Threshold: threshold, K: k})
		prevThreshold = threshold
	}

	return rules, nil
}
