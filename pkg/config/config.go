// Package config defines process configuration and its loading order:
// defaults, then an optional YAML file, then PASSNET_ environment variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration for the API server and the worker.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Neo4jURL is the bolt/neo4j connection URL.
	Neo4jURL string `koanf:"neo4j_url"`

	// Neo4jUser and Neo4jPassword authenticate the driver. Empty user means
	// no auth.
	Neo4jUser     string `koanf:"neo4j_user"`
	Neo4jPassword string `koanf:"neo4j_password"`

	// NatsURL connects the queued-import path. Empty disables it.
	NatsURL string `koanf:"nats_url"`

	// CORSOrigin is the allowed origin for browser clients.
	CORSOrigin string `koanf:"cors_origin"`

	// ImportRate and ImportBurst bound the import endpoint's token bucket.
	ImportRate  float64 `koanf:"import_rate"`
	ImportBurst int     `koanf:"import_burst"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":8080",
		Neo4jURL:    "neo4j://localhost:7687",
		CORSOrigin:  "*",
		ImportRate:  1,
		ImportBurst: 5,
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PASSNET_CONFIG is set
//  3. env (prefix PASSNET_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PASSNET_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Map env keys like PASSNET_NEO4J_URL -> neo4j_url (flat keys).
	envProvider := env.Provider("PASSNET_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "passnet_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.Neo4jURL == "" {
		return nil, errors.New("neo4j_url must not be empty")
	}
	return &cfg, nil
}
