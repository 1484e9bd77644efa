// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TokenEnv overrides bot.token when set.
const TokenEnv = "TELEGRAM_TOKEN"

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Language string  `yaml:"language"` // ru | en
	Workers  int     `yaml:"workers"`  // update-processing shards
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"` // 0 disables the admin API
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type StorageConfig struct {
	BaseDir     string `yaml:"base_dir"`
	DialogsDir  string `yaml:"dialogs_dir"`
	SettingsDir string `yaml:"settings_dir"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty: in-process state and limits
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GenerationConfig struct {
	CommandAttempts   int     `yaml:"command_attempts"`
	AutoReplyAttempts int     `yaml:"auto_reply_attempts"`
	Filler            string  `yaml:"filler"`
	CapsChance        float64 `yaml:"caps_chance"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"` // commands per user per chat; 0 disables
}

type Config struct {
	Bot        BotConfig        `yaml:"bot"`
	Log        LogConfig        `yaml:"log"`
	Admin      AdminConfig      `yaml:"admin"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Generation GenerationConfig `yaml:"generation"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file at path. A missing file yields the defaults.
// Values from a .env file in the working directory are exported first.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	// caps_chance and per_minute may legitimately be 0, so their defaults are set before decoding.
	cfg := Config{
		Generation: GenerationConfig{CapsChance: 0.1},
		RateLimit:  RateLimitConfig{PerMinute: 20},
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		cfg.Bot.Token = tok
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 24 * time.Hour
	}

	if cfg.Storage.BaseDir == "" {
		cfg.Storage.BaseDir = "Dialogs"
	}
	if cfg.Storage.DialogsDir == "" {
		cfg.Storage.DialogsDir = filepath.Join(cfg.Storage.BaseDir, "dialogs")
	}
	if cfg.Storage.SettingsDir == "" {
		cfg.Storage.SettingsDir = filepath.Join(cfg.Storage.BaseDir, "settings")
	}

	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Generation.CommandAttempts <= 0 {
		cfg.Generation.CommandAttempts = 300
	}
	if cfg.Generation.AutoReplyAttempts <= 0 {
		cfg.Generation.AutoReplyAttempts = 200
	}
	if cfg.Generation.Filler == "" {
		cfg.Generation.Filler = "че"
	}
	if cfg.Generation.CapsChance < 0 || cfg.Generation.CapsChance > 1 {
		cfg.Generation.CapsChance = 0.1
	}
	if cfg.RateLimit.PerMinute < 0 {
		cfg.RateLimit.PerMinute = 0
	}
}

// Validate checks what the bot process needs to start.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required (or set %s)", TokenEnv)
	}
	if c.Admin.Port > 0 && c.Admin.JWTSecret == "" {
		return errors.New("admin.jwt_secret is required when admin.port is set")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
