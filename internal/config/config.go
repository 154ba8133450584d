// Package config loads the pipeline's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Zero values are filled with
// defaults by Load.
type Config struct {
	Defects4J  Defects4JConfig  `yaml:"defects4j"`
	Generation GenerationConfig `yaml:"generation"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Store      StoreConfig      `yaml:"store"`
}

// Defects4JConfig locates the build tool and bounds its operations.
type Defects4JConfig struct {
	Binary             string `yaml:"binary"`
	CheckoutTimeoutSec int    `yaml:"checkout_timeout_sec"`
	CompileTimeoutSec  int    `yaml:"compile_timeout_sec"`
	TestTimeoutSec     int    `yaml:"test_timeout_sec"`
}

// GenerationConfig controls the generator collaborator.
type GenerationConfig struct {
	SamplesPerBug int     `yaml:"samples_per_bug"`
	Model         string  `yaml:"model"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	NumExamples   int     `yaml:"num_examples"`
	ExamplesFile  string  `yaml:"examples_file"`
}

// RankingConfig holds the agreement threshold.
type RankingConfig struct {
	AgreementThreshold int `yaml:"agreement_threshold"`
}

// PipelineConfig bounds per-bug concurrency and locates scratch space.
type PipelineConfig struct {
	Workers       int    `yaml:"workers"`
	WorkDir       string `yaml:"work_dir"`
	KeepCheckouts bool   `yaml:"keep_checkouts"`
}

// StoreConfig locates the audit database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Defects4J: Defects4JConfig{
			Binary:             "defects4j",
			CheckoutTimeoutSec: 120,
			CompileTimeoutSec:  180,
			TestTimeoutSec:     120,
		},
		Generation: GenerationConfig{
			SamplesPerBug: 10,
			Model:         "gemini-2.0-flash",
			MaxTokens:     256,
			Temperature:   0.7,
			NumExamples:   2,
		},
		Ranking:  RankingConfig{AgreementThreshold: 1},
		Pipeline: PipelineConfig{Workers: 2, WorkDir: os.TempDir()},
		Store:    StoreConfig{Path: "libro.db"},
	}
}

// Load reads path and overlays it on the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Generation.SamplesPerBug <= 0 {
		return fmt.Errorf("generation.samples_per_bug must be positive, got %d", c.Generation.SamplesPerBug)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Ranking.AgreementThreshold < 0 {
		return fmt.Errorf("ranking.agreement_threshold must not be negative, got %d", c.Ranking.AgreementThreshold)
	}
	return nil
}

// CheckoutTimeout returns the checkout deadline as a duration.
func (c Defects4JConfig) CheckoutTimeout() time.Duration {
	return time.Duration(c.CheckoutTimeoutSec) * time.Second
}

// CompileTimeout returns the compile deadline as a duration.
func (c Defects4JConfig) CompileTimeout() time.Duration {
	return time.Duration(c.CompileTimeoutSec) * time.Second
}

// TestTimeout returns the single-test deadline as a duration.
func (c Defects4JConfig) TestTimeout() time.Duration {
	return time.Duration(c.TestTimeoutSec) * time.Second
}
