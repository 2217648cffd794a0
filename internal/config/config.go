package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddress string `toml:"listen_address" yaml:"listen_address"`
	ListenPort    int    `toml:"port" yaml:"port"`
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	Language      string `toml:"language" yaml:"language"`

	Backend struct {
		// Base URL of the book catalog REST API, without the /api/v1 suffix
		URL            string `toml:"url" yaml:"url"`
		TimeoutSeconds int    `toml:"timeout" yaml:"timeout"`
	} `toml:"backend" yaml:"backend"`

	Session struct {
		// One of "file", "redis" or "memory"
		Storage string `toml:"storage" yaml:"storage"`

		// When set, the persisted token is sealed in a signed JWT so edits to the stored value are detected
		Secret string `toml:"secret" yaml:"secret"`

		File struct {
			Path string `toml:"path" yaml:"path"`
		} `toml:"file" yaml:"file"`

		Redis struct {
			Addr     string `toml:"addr" yaml:"addr"`
			Password string `toml:"password" yaml:"password"`
			DB       int    `toml:"db" yaml:"db"`
			Key      string `toml:"key" yaml:"key"`
		} `toml:"redis" yaml:"redis"`
	} `toml:"session" yaml:"session"`

	UI struct {
		MessageTimeoutMs            int `toml:"message_timeout_ms" yaml:"message_timeout_ms"`
		UnauthorizedRedirectDelayMs int `toml:"unauthorized_redirect_delay_ms" yaml:"unauthorized_redirect_delay_ms"`
	} `toml:"ui" yaml:"ui"`

	Metrics struct {
		Enabled bool `toml:"enabled" yaml:"enabled"`
	} `toml:"metrics" yaml:"metrics"`
}

const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Decoders don't override fields that weren't set in the file, so we can apply defaults here
func (c *Config) setDefaults() {
	c.ListenAddress = "127.0.0.1"
	c.ListenPort = 8080
	c.LogLevel = "info"
	c.Language = "en"

	c.Backend.TimeoutSeconds = 10

	c.Session.Storage = StorageFile
	c.Session.File.Path = defaultSessionPath()
	c.Session.Redis.Key = "bookshelf:token"

	c.UI.MessageTimeoutMs = 2000
	c.UI.UnauthorizedRedirectDelayMs = 1000

	c.Metrics.Enabled = true
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bookshelf", "session.json")
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("BOOKSHELF_BACKEND_URL")); v != "" {
		c.Backend.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("BOOKSHELF_LISTEN_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ListenPort = n
		}
	}
	if v := os.Getenv("BOOKSHELF_SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("BOOKSHELF_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return errors.New("please supply backend.url")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url (%s) must be an absolute URL", c.Backend.URL)
	}

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid port %d", c.ListenPort)
	}

	switch c.Session.Storage {
	case StorageFile:
		if c.Session.File.Path == "" {
			return errors.New("session.file.path is required for file storage")
		}
	case StorageRedis:
		if c.Session.Redis.Addr == "" {
			return errors.New("session.redis.addr is required for redis storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid session storage supplied (%s), valid types are \"file\", \"redis\" and \"memory\"", c.Session.Storage)
	}

	if len(c.Session.Secret) > 0 && len(c.Session.Secret) < 16 {
		return errors.New("your session.secret was less than 16 characters, please supply a long, random secret")
	}

	if c.UI.MessageTimeoutMs <= 0 || c.UI.UnauthorizedRedirectDelayMs < 0 {
		return errors.New("ui timeouts must be positive")
	}

	return nil
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) MessageTimeout() time.Duration {
	return time.Duration(c.UI.MessageTimeoutMs) * time.Millisecond
}

func (c *Config) UnauthorizedRedirectDelay() time.Duration {
	return time.Duration(c.UI.UnauthorizedRedirectDelayMs) * time.Millisecond
}

// Default returns a config with defaults applied and no file loaded
func Default() *Config {
	conf := new(Config)
	conf.setDefaults()
	return conf
}

// LoadFromFileAndValidate reads a TOML config, or YAML when the file ends in .yaml/.yml,
// then applies BOOKSHELF_* environment overrides
func LoadFromFileAndValidate(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	conf := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(file, conf)
	default:
		err = toml.Unmarshal(file, conf)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	conf.applyEnv()

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return conf, nil
}
