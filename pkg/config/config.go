package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv    string `yaml:"app_env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	GRPCPort int `yaml:"grpc_port"`
	HTTPPort int `yaml:"http_port"`

	DBDriver    string `yaml:"db_driver"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	JWTSecret    string        `yaml:"jwt_secret"`
	JWTTTL       time.Duration `yaml:"jwt_ttl"`
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`

	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQExchange string `yaml:"rabbitmq_exchange"`

	Currency string `yaml:"currency"`

	WSRate           float64  `yaml:"ws_rate"`
	WSBurst          int      `yaml:"ws_burst"`
	WSAllowedOrigins []string `yaml:"ws_allowed_origins"`
}

func Default() Config {
	return Config{
		AppEnv:           "dev",
		LogLevel:         "info",
		LogFormat:        "json",
		HTTPPort:         8080,
		GRPCPort:         8081,
		DBDriver:         DriverMemory,
		SQLitePath:       "shop.db",
		JWTSecret:        "dev-secret",
		JWTTTL:           24 * time.Hour,
		CookieName:       "token",
		RabbitMQExchange: "cart.events",
		Currency:         "USD",
		WSRate:           20,
		WSBurst:          40,
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (Config, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit config file; an empty path falls back to
// CONFIG_FILE.
func LoadPath(path string) (Config, error) {
	_ = godotenv.Load()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)
	c.GRPCPort = getEnvInt("GRPC_PORT", c.GRPCPort)
	c.DBDriver = strings.ToLower(getEnv("DB_DRIVER", c.DBDriver))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTTTL = getEnvDuration("JWT_TTL", c.JWTTTL)
	c.CookieName = getEnv("COOKIE_NAME", c.CookieName)
	c.CookieSecure = getEnvBool("COOKIE_SECURE", c.CookieSecure)
	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)
	c.RabbitMQExchange = getEnv("RABBITMQ_EXCHANGE", c.RabbitMQExchange)
	c.Currency = getEnv("CURRENCY", c.Currency)
	c.WSRate = getEnvFloat("WS_RATE", c.WSRate)
	c.WSBurst = getEnvInt("WS_BURST", c.WSBurst)
	if v := os.Getenv("WS_ALLOWED_ORIGINS"); v != "" {
		c.WSAllowedOrigins = splitList(v)
	}
}

func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.AppEnv != "dev" && c.AppEnv != "test" && c.JWTSecret == Default().JWTSecret {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", c.AppEnv))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		errs = append(errs, errors.New("ports must be positive"))
	}
	if c.WSRate <= 0 || c.WSBurst <= 0 {
		errs = append(errs, errors.New("WS_RATE and WS_BURST must be positive"))
	}

	return errors.Join(errs...)
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

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
