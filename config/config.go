// Package config loads gisapp settings from a YAML file, a .env file and
// the process environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultLayerURL is the sample ServiceRequest layer the status options are read from.
const DefaultLayerURL = "https://sampleserver6.arcgisonline.com/arcgis/rest/services/ServiceRequest/FeatureServer/0"

// Config holds all gisapp configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Service ServiceConfig `yaml:"service"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects and configures the durable key-value backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // json, sqlite, memory, redis, postgres
	DataDir string `yaml:"data_dir"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	PostgresDSN string `yaml:"postgres_dsn"`
}

// ServiceConfig points at the remote ArcGIS layers.
type ServiceConfig struct {
	// LayerURL is queried once at startup for the status categories.
	LayerURL string `yaml:"layer_url"`
	// Surface is "local" (in-process layer) or "feature-service".
	Surface string `yaml:"surface"`
	// EditLayerURL receives applyEdits calls when Surface is "feature-service".
	EditLayerURL string        `yaml:"edit_layer_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           "8080",
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Backend:     "json",
			DataDir:     "./data",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "gisapp:",
		},
		Service: ServiceConfig{
			LayerURL: DefaultLayerURL,
			Surface:  "local",
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from path (optional), .env and environment variables.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "HOST")
	setString(&c.Server.Port, "PORT")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.Storage.Backend, "STORE_BACKEND")
	setString(&c.Storage.DataDir, "DATA_DIR")
	setString(&c.Storage.RedisAddr, "REDIS_ADDR")
	setString(&c.Storage.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Storage.RedisDB = n
	}

	setString(&c.Service.LayerURL, "LAYER_URL")
	setString(&c.Service.EditLayerURL, "EDIT_LAYER_URL")
	setString(&c.Service.Surface, "SURFACE")
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		c.Service.Timeout = d
	}

	setString(&c.Logging.Level, "LOG_LEVEL")
	if v := os.Getenv("LOG_DEV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_DEV: %w", err)
		}
		c.Logging.Development = b
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "json", "sqlite", "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store backend: %q (supported: json, sqlite, memory, redis, postgres)", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
	}

	if !isHTTPURL(c.Service.LayerURL) {
		return fmt.Errorf("layer url %q is not an http(s) url", c.Service.LayerURL)
	}
	switch c.Service.Surface {
	case "local":
	case "feature-service":
		if !isHTTPURL(c.Service.EditLayerURL) {
			return fmt.Errorf("edit layer url %q is not an http(s) url", c.Service.EditLayerURL)
		}
	default:
		return fmt.Errorf("unknown surface: %q (supported: local, feature-service)", c.Service.Surface)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service timeout must be positive, got %s", c.Service.Timeout)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
