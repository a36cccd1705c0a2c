package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string        `toml:"http_addr"`
	UIDist            string        `toml:"ui_dist"`
	WebSocketOrigin   string        `toml:"ws_origin"`
	CORSOrigins       []string      `toml:"cors_origins"`
	TrustProxy        bool          `toml:"trust_proxy"`
	LogLevel          string        `toml:"log_level"`
	LogFormat         string        `toml:"log_format"`
	RateLimitRPS      float64       `toml:"rate_limit_rps"`
	RateLimitBurst    int           `toml:"rate_limit_burst"`
	RedisAddr         string        `toml:"redis_addr"`
	RedisPassword     string        `toml:"redis_password"`
	RedisDB           int           `toml:"redis_db"`
	RedisPrefix       string        `toml:"redis_prefix"`
	ResponsePrecision int           `toml:"response_precision"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
}

func Defaults() Config {
	return Config{
		HTTPAddr:          ":5000",
		WebSocketOrigin:   "*",
		LogLevel:          "info",
		LogFormat:         "console",
		RateLimitRPS:      10,
		RateLimitBurst:    30,
		RedisPrefix:       "riskcalc:",
		ResponsePrecision: -1,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional TOML file at path,
// a .env file in the working directory and finally the process environment.
func Load(path string) (Config, error) {
	c := Defaults()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &c); err != nil {
			return c, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	_ = godotenv.Load()
	if err := applyEnv(&c); err != nil {
		return c, err
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	} else if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.HTTPAddr = ":" + port
	}
	setStr(&c.UIDist, "UI_DIST")
	setStr(&c.WebSocketOrigin, "WS_ORIGIN")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("TRUST_PROXY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("invalid TRUST_PROXY")
		}
		c.TrustProxy = b
	}
	setStr(&c.LogLevel, "LOG_LEVEL")
	setStr(&c.LogFormat, "LOG_FORMAT")
	setStr(&c.RedisAddr, "REDIS_ADDR")
	setStr(&c.RedisPassword, "REDIS_PASSWORD")
	setStr(&c.RedisPrefix, "REDIS_PREFIX")

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("invalid RATE_LIMIT_RPS")
		}
		c.RateLimitRPS = f
	}
	if err := setInt(&c.RateLimitBurst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if err := setInt(&c.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&c.ResponsePrecision, "RESPONSE_PRECISION"); err != nil {
		return err
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid SHUTDOWN_TIMEOUT")
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.HTTPAddr) == "" {
		problems = append(problems, "http_addr is empty")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		problems = append(problems, "log_format: use console or json")
	}
	if c.RateLimitRPS <= 0 {
		problems = append(problems, "rate_limit_rps must be positive")
	}
	if c.RateLimitBurst < 1 {
		problems = append(problems, "rate_limit_burst must be at least 1")
	}
	if c.ResponsePrecision > 12 {
		problems = append(problems, "response_precision must be at most 12")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown_timeout must be positive")
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.New("invalid " + key)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
