// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// GatewayConfig describes the remote redemption service.
type GatewayConfig struct {
	BaseURL  string        `yaml:"base_url"`
	ClientID string        `yaml:"client_id"`
	Game     string        `yaml:"game"`
	AppID    string        `yaml:"app_id"`
	PupBody  string        `yaml:"pup_body"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SourcesConfig struct {
	AFKGuideURL string        `yaml:"afk_guide_url"`
	LolvvvURL   string        `yaml:"lolvvv_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RedeemerConfig tunes pacing and batch sizing. The inter-request delays are
// a hard requirement of the remote service's abuse prevention, not a
// performance knob.
type RedeemerConfig struct {
	Delay      time.Duration `yaml:"delay"`       // quick runs, per submission
	BatchDelay time.Duration `yaml:"batch_delay"` // parse-then-redeem runs
	MaxPerRun  int           `yaml:"max_per_run"` // codes processed per run
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Sources  SourcesConfig  `yaml:"sources"`
	Redeemer RedeemerConfig `yaml:"redeemer"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// Allow ${VAR} references so secrets can stay in the environment / .env.
	b = []byte(os.ExpandEnv(string(b)))

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://cdkey.lilith.com"
	}
	if cfg.Gateway.Game == "" {
		cfg.Gateway.Game = "afk"
	}
	if cfg.Gateway.AppID == "" {
		cfg.Gateway.AppID = "6241329"
	}
	if cfg.Gateway.PupBody == "" {
		cfg.Gateway.PupBody = "lilith"
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 30 * time.Second
	}

	if cfg.Sources.AFKGuideURL == "" {
		cfg.Sources.AFKGuideURL = "https://afk.guide/redemption-codes/"
	}
	if cfg.Sources.LolvvvURL == "" {
		cfg.Sources.LolvvvURL = "https://www.lolvvv.com/codes/afk-arena"
	}
	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = 15 * time.Second
	}

	if cfg.Redeemer.Delay <= 0 {
		cfg.Redeemer.Delay = 5 * time.Second
	}
	if cfg.Redeemer.BatchDelay <= 0 {
		cfg.Redeemer.BatchDelay = 8 * time.Second
	}
	if cfg.Redeemer.MaxPerRun <= 0 {
		cfg.Redeemer.MaxPerRun = 30
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
