package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Wizard   WizardConfig
	Export   ExportConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string

	// BridgeToken, when set, must accompany every bridge request as a bearer
	// token.
	BridgeToken string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

const (
	SessionStorageMemory   = "memory"
	SessionStorageFile     = "file"
	SessionStorageRedis    = "redis"
	SessionStoragePostgres = "postgres"
)

type SessionConfig struct {
	Storage string
	Profile string
	File    string
	FileKey string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type WizardConfig struct {
	SavedAckDelay time.Duration
}

type ExportConfig struct {
	ChromePath string
	Timeout    time.Duration
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

// Load reads configuration from the environment. A .env file in the working
// directory (or ENV_FILE) is applied first without overriding variables that are
// already set.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     optDefault("APP_NAME", "job-agent"),
		Environment: optDefault("APP_ENV", "development"),
		HTTPPort:    req("HTTP_PORT"),
		BridgeToken: opt("BRIDGE_TOKEN"),
	}

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(req("API_BASE_URL"), "/"),
		Timeout: optDuration("API_TIMEOUT", 15*time.Second),
	}

	cfg.Session = SessionConfig{
		Storage: strings.ToLower(optDefault("SESSION_STORAGE", SessionStorageFile)),
		Profile: optDefault("SESSION_PROFILE", "default"),
		File:    optDefault("SESSION_FILE", defaultSessionFile()),
		FileKey: opt("SESSION_FILE_KEY"),
	}
	switch cfg.Session.Storage {
	case SessionStorageMemory, SessionStorageFile, SessionStorageRedis, SessionStoragePostgres:
	default:
		invalid = append(invalid, "SESSION_STORAGE")
	}

	cfg.Redis = RedisConfig{
		Host:     optDefault("REDIS_HOST", "localhost"),
		Port:     optDefault("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  optDefault("DB_SSL_MODE", "disable"),

		ConnectTimeout: optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:   int32(optInt("DB_POOL_MAX_CONNS", 4)),
	}
	if cfg.Session.Storage == SessionStoragePostgres {
		for _, k := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER"} {
			if opt(k) == "" {
				missing = append(missing, k)
			}
		}
	}

	cfg.Wizard = WizardConfig{
		SavedAckDelay: optDuration("SAVED_ACK_DELAY", 3*time.Second),
	}

	cfg.Export = ExportConfig{
		ChromePath: opt("CHROME_PATH"),
		Timeout:    optDuration("EXPORT_TIMEOUT", 60*time.Second),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", ".job-agent", "session.json")
	}
	return filepath.Join(dir, "job-agent", "session.json")
}
