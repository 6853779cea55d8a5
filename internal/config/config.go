package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL       string `yaml:"base_url"`
		Timeout       string `yaml:"timeout"`
		UploadTimeout string `yaml:"upload_timeout"`
	} `yaml:"api"`
	Auth struct {
		TokenStore string `yaml:"token_store"` // file, redis or memory
		TokenPath  string `yaml:"token_path"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Leaderboard struct {
		CacheTTL     string `yaml:"cache_ttl"`
		RefreshDelay string `yaml:"refresh_delay"`
	} `yaml:"leaderboard"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

const (
	DefaultBaseURL = "http://localhost:5000/api"

	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.BaseURL = DefaultBaseURL
	cfg.API.Timeout = "30s"
	cfg.API.UploadTimeout = "2m"
	cfg.Auth.TokenStore = TokenStoreFile
	cfg.Auth.TokenPath = defaultTokenPath()
	cfg.Redis.TTL = "720h"
	cfg.Leaderboard.CacheTTL = "30s"
	cfg.Leaderboard.RefreshDelay = "1s"
	cfg.Log.Level = "info"
	cfg.Log.Format = "pretty"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QUIZBATTLE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("QUIZBATTLE_TOKEN_STORE"); v != "" {
		cfg.Auth.TokenStore = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".quizbattle", "token")
	}
	return filepath.Join(home, ".quizbattle", "token")
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
