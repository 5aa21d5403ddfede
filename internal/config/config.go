// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads engine configuration from YAML with embedded
// defaults. A missing file is not an error; an invalid file reports its
// validation problems and the caller keeps running on the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"docscrub/internal/detector"
	"docscrub/internal/logging"
	"docscrub/internal/ml"
	"docscrub/internal/pipeline"
)

// Config is the root configuration.
type Config struct {
	Logging logging.Config `yaml:"logging"`
	Engine  EngineConfig   `yaml:"engine"`
	ML      MLConfig       `yaml:"ml"`
	Server  ServerConfig   `yaml:"server"`
	Paths   PathsConfig    `yaml:"paths"`
}

// EngineConfig carries detection defaults. MinConfidence maps a document
// type to its confidence floor; types without an entry use the UNKNOWN
// floor.
type EngineConfig struct {
	Language      string             `yaml:"language"`
	Country       string             `yaml:"country"`
	DenyList      bool               `yaml:"deny_list"`
	Context       bool               `yaml:"context"`
	MinConfidence map[string]float64 `yaml:"min_confidence"`

	// Address scoring thresholds. Review flags a group for a human,
	// AutoAnonymize replaces it without one.
	ReviewThreshold        float64 `yaml:"review_threshold"`
	AutoAnonymizeThreshold float64 `yaml:"auto_anonymize_threshold"`
}

// MLConfig configures the token classifier. When Enabled is false, or the
// model cannot be loaded, the engine runs rule-only.
type MLConfig struct {
	Enabled    bool    `yaml:"enabled"`
	ModelPath  string  `yaml:"model_path"`
	VocabPath  string  `yaml:"vocab_path"`
	MaxSeqLen  int     `yaml:"max_seq_len"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PathsConfig points at optional external definition files.
type PathsConfig struct {
	DenyList     string `yaml:"deny_list"`
	Recognizers  string `yaml:"recognizers"`
	ContextWords string `yaml:"context_words"`
}

// Default returns the embedded configuration.
func Default() *Config {
	return &Config{
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			Language: detector.LangEN,
			Country:  detector.CountryCH,
			DenyList: true,
			Context:  true,
			MinConfidence: map[string]float64{
				detector.DocTypeUnknown: pipeline.MinConfidenceUnknown,
			},
			ReviewThreshold:        0.60,
			AutoAnonymizeThreshold: 0.85,
		},
		ML: MLConfig{
			Enabled:    true,
			MaxSeqLen:  ml.DefaultMaxSeqLen,
			RatePerSec: ml.DefaultRatePerSec,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8088,
		},
	}
}

// Load reads path and merges it over the defaults. A missing file returns
// the defaults without error. A file that fails to parse or validate
// returns the defaults together with the error so the caller keeps
// running.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Default(), fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded values. It reports the first problem found.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q: must be json or console", c.Logging.Format)
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level %q: %w", c.Logging.Level, err)
		}
	}

	switch c.Engine.Language {
	case detector.LangEN, detector.LangFR, detector.LangDE:
	default:
		return fmt.Errorf("engine.language %q: must be en, fr or de", c.Engine.Language)
	}
	for docType, min := range c.Engine.MinConfidence {
		if min < 0 || min > 1 {
			return fmt.Errorf("engine.min_confidence[%s] %v: must be within [0,1]", docType, min)
		}
	}
	if t := c.Engine.ReviewThreshold; t < 0 || t > 1 {
		return fmt.Errorf("engine.review_threshold %v: must be within [0,1]", t)
	}
	if t := c.Engine.AutoAnonymizeThreshold; t < 0 || t > 1 {
		return fmt.Errorf("engine.auto_anonymize_threshold %v: must be within [0,1]", t)
	}
	if c.Engine.AutoAnonymizeThreshold < c.Engine.ReviewThreshold {
		return fmt.Errorf("engine.auto_anonymize_threshold %v below review_threshold %v",
			c.Engine.AutoAnonymizeThreshold, c.Engine.ReviewThreshold)
	}

	if c.ML.MaxSeqLen < 8 {
		return fmt.Errorf("ml.max_seq_len %d: must be at least 8", c.ML.MaxSeqLen)
	}
	if c.ML.RatePerSec <= 0 {
		return fmt.Errorf("ml.rate_per_sec %v: must be positive", c.ML.RatePerSec)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d: out of range", c.Server.Port)
	}
	return nil
}
