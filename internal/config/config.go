package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Yahoo struct {
	BaseURL               string `json:"base_url"`
	UserAgent             string `json:"user_agent"`
	TimeoutSec            int    `json:"timeout_sec"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	Burst                 int    `json:"burst"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
}

type Config struct {
	LogLevel string `json:"log_level"`
	Yahoo    Yahoo  `json:"yahoo"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Yahoo: Yahoo{
			BaseURL:    "https://query1.finance.yahoo.com",
			UserAgent:  "yfmcp/1.0",
			TimeoutSec: 30,
			// Rate limiting is off by default; each exposed operation
			// makes at most a handful of upstream calls.
			MaxRequestsPerMinute:  0,
			Burst:                 0,
			MinRequestIntervalSec: 0,
		},
	}
}

// Load reads JSON config from path. If path is empty or the file does
// not exist, it returns defaults. Environment variables override select
// fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}
	if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
		cfg.Yahoo.UserAgent = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Yahoo.TimeoutSec = x
		}
	}
	if v := os.Getenv("YAHOO_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Yahoo.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("YAHOO_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Yahoo.Burst = x
		}
	}
	if v := os.Getenv("YAHOO_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Yahoo.MinRequestIntervalSec = x
		}
	}
}
