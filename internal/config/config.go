// Package config loads service configuration from an optional config.yaml
// overlaid with LEADS_-prefixed environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Storage     StorageConfig     `koanf:"storage"`
	Idempotency IdempotencyConfig `koanf:"idempotency"`
	Territory   TerritoryConfig   `koanf:"territory"`
	Enrichment  EnrichmentConfig  `koanf:"enrichment"`
	Gemini      GeminiConfig      `koanf:"gemini"`
	CRM         CRMConfig         `koanf:"crm"`
	Similarity  SimilarityConfig  `koanf:"similarity"`
	Slack       SlackConfig       `koanf:"slack"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type IdempotencyConfig struct {
	TTL time.Duration `koanf:"ttl"`
	// FailOpen processes leads without a dedup guarantee when the guard
	// store is down. Default is fail-closed: reject the submission.
	FailOpen bool `koanf:"fail_open"`
}

type TerritoryConfig struct {
	Path string `koanf:"path"`
}

type EnrichmentConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
	// RPS bounds outbound calls to the provider's quota.
	RPS float64 `koanf:"rps"`
}

type GeminiConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type CRMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type SimilarityConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Index   string        `koanf:"index"`
	Timeout time.Duration `koanf:"timeout"`
	TopK    int           `koanf:"top_k"`
}

type SlackConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	Channel    string        `koanf:"channel"`
	AlertsURL  string        `koanf:"alerts_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// Load reads configPath (skipped when missing) and then the environment.
// LEADS_SERVER_PORT=9000 maps to server.port and so on.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("LEADS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LEADS_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":         8080,
		"storage.type":        "sqlite",
		"storage.sqlite.path": "./data/leads.db",
		"idempotency.ttl":     time.Hour,
		"territory.path":      "./routing.yaml",
		"enrichment.timeout":  20 * time.Second,
		"enrichment.rps":      5.0,
		"gemini.model":        "gemini-2.0-flash",
		"gemini.timeout":      30 * time.Second,
		"crm.timeout":         20 * time.Second,
		"similarity.timeout":  10 * time.Second,
		"similarity.top_k":    3,
		"slack.timeout":       10 * time.Second,
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}
}
