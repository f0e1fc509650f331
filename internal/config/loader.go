package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "crmlite.yaml"

// DefaultEnvFile is the dotenv file loaded before the environment overlay.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotEnv populates the process environment from a dotenv file.
// Variables already set in the environment are not overwritten.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CRMLITE_PORT")
	setString(&cfg.Server.CORSOrigin, "CRMLITE_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimit, "CRMLITE_BODY_LIMIT")
	setFloat64(&cfg.Server.StrategyRate, "CRMLITE_STRATEGY_RATE")
	setInt(&cfg.Server.StrategyBurst, "CRMLITE_STRATEGY_BURST")
	setDuration(&cfg.Server.IdempotencyTTL, "CRMLITE_IDEMPOTENCY_TTL")
	setString(&cfg.Store.Driver, "CRMLITE_STORE_DRIVER")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CRMLITE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CRMLITE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CRMLITE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CRMLITE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CRMLITE_PG_HEALTH_CHECK")
	setString(&cfg.SQLite.Path, "CRMLITE_SQLITE_PATH")

	// LLM
	setString(&cfg.LLM.Provider, "CRMLITE_LLM_PROVIDER")
	setString(&cfg.LLM.Model, "CRMLITE_LLM_MODEL")
	setFloat64(&cfg.LLM.Temperature, "CRMLITE_LLM_TEMPERATURE")
	setInt(&cfg.LLM.MaxTokens, "CRMLITE_LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "CRMLITE_LLM_TIMEOUT")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")

	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.L1MaxSizeMB, "CRMLITE_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "CRMLITE_CACHE_TTL")
	setString(&cfg.Logging.Level, "CRMLITE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CRMLITE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CRMLITE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "CRMLITE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CRMLITE_BREAKER_TIMEOUT")

	// OpenTelemetry
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "CRMLITE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.BodyLimit < 1 {
		return errors.New("server.body_limit must be >= 1")
	}
	if cfg.Server.StrategyBurst > 0 && cfg.Server.StrategyRate <= 0 {
		return errors.New("server.strategy_rate must be > 0 when strategy_burst is set")
	}
	switch cfg.Store.Driver {
	case DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case DriverSQLite:
		if cfg.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	default:
		return fmt.Errorf("store.driver %q must be postgres or sqlite", cfg.Store.Driver)
	}
	switch cfg.LLM.Provider {
	case ProviderLiteLLM:
		if cfg.LiteLLM.URL == "" {
			return errors.New("litellm.url is required")
		}
	case ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return errors.New("gemini.api_key is required")
		}
	default:
		return fmt.Errorf("llm.provider %q must be litellm or gemini", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if cfg.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be > 0")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
