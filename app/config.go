// Package app wires the questionnaire bot on top of the reusable core.
package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/anketabot/app/intake"
	coreconfig "github.com/m3rciful/anketabot/core/config"
)

// IntakeConfig holds questionnaire-specific settings.
type IntakeConfig struct {
	// MaxSessions caps concurrent questionnaires; 0 -> default
	MaxSessions int `yaml:"max_sessions" envconfig:"INTAKE_MAX_SESSIONS"`
	// MediaDir is where uploaded photos and videos land.
	MediaDir string `yaml:"media_dir" envconfig:"INTAKE_MEDIA_DIR"`
	// MaxVideoSeconds rejects longer videos; 0 -> default
	MaxVideoSeconds int `yaml:"max_video_seconds" envconfig:"INTAKE_MAX_VIDEO_SECONDS"`
}

// Config aggregates the core configuration with the intake section.
type Config struct {
	Core   coreconfig.Config `yaml:",inline"`
	Intake IntakeConfig      `yaml:"intake"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// LoadConfig reads the YAML config, applies environment overrides, and
// validates both the core and intake sections.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeIntake(&cfg.Intake); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeIntake(cfg *IntakeConfig) error {
	if cfg.MaxSessions < 0 {
		return fmt.Errorf("intake.max_sessions must be >= 0")
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = intake.DefaultMaxSessions
	}
	if cfg.MaxVideoSeconds < 0 {
		return fmt.Errorf("intake.max_video_seconds must be >= 0")
	}
	if cfg.MaxVideoSeconds == 0 {
		cfg.MaxVideoSeconds = intake.DefaultMaxVideoSeconds
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "uploads"
	}
	return nil
}
