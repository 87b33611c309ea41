package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

type AppConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	StoreBackend string        `yaml:"store_backend"`
	RedisURL     string        `yaml:"redis_url"`
	BadgerDir    string        `yaml:"badger_dir"`
	DatabaseURL  string        `yaml:"database_url"`
	SessionTTL   time.Duration `yaml:"session_ttl"`

	DefaultDifficulty string `yaml:"default_difficulty"`
	AutoAIReply       bool   `yaml:"auto_ai_reply"`
	// AISeed pins the selector's random source; 0 seeds from the clock.
	AISeed       int64  `yaml:"ai_seed"`
	HistoryLimit int    `yaml:"history_limit"`
	MessagesDir  string `yaml:"messages_dir"`
}

func defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:          ":8080",
		StoreBackend:      BackendMemory,
		BadgerDir:         "data/sessions",
		SessionTTL:        24 * time.Hour,
		DefaultDifficulty: "medium",
		HistoryLimit:      10,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CHESSPAL_CONFIG (if any) and environment overrides, in that order.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHESSPAL_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.PublicURL, "PUBLIC_URL")
	setString(&c.StoreBackend, "STORE_BACKEND")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.BadgerDir, "BADGER_DIR")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DefaultDifficulty, "DEFAULT_DIFFICULTY")
	setString(&c.MessagesDir, "MESSAGES_DIR")

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		// plain integers are seconds
		if n, err := strconv.Atoi(v); err == nil {
			c.SessionTTL = time.Duration(n) * time.Second
		} else if d, err := time.ParseDuration(v); err == nil {
			c.SessionTTL = d
		} else {
			return fmt.Errorf("SESSION_TTL %q: %w", v, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTO_AI_REPLY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTO_AI_REPLY %q: %w", v, err)
		}
		c.AutoAIReply = b
	}
	if v := strings.TrimSpace(os.Getenv("AI_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AI_SEED %q: %w", v, err)
		}
		c.AISeed = n
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_LIMIT %q: %w", v, err)
		}
		c.HistoryLimit = n
	}
	return nil
}

func (c *AppConfig) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case BackendBadger:
		if c.BadgerDir == "" {
			return errors.New("BADGER_DIR is required for the badger store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative: %s", c.SessionTTL)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative: %d", c.HistoryLimit)
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	return nil
}
