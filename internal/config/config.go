package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcncl/evosave/internal/savegame"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for evosave
type Config struct {
	// Game is the game savegames are encoded for when no --game flag is
	// given. Empty means the game stored in the document.
	Game     string         `yaml:"game"`
	Checksum ChecksumConfig `yaml:"checksum"`
	Output   OutputConfig   `yaml:"output"`
	Dev      DevConfig      `yaml:"dev"`
}

// ChecksumConfig controls checksum verification when decoding
type ChecksumConfig struct {
	Mode string `yaml:"mode"` // warn, strict or ignore
}

// OutputConfig controls JSON document output
type OutputConfig struct {
	Indent string `yaml:"indent"`
	Width  int    `yaml:"width"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Checksum: ChecksumConfig{
			Mode: string(savegame.ChecksumWarn),
		},
		Output: OutputConfig{
			Indent: "  ",
			Width:  80,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".evosave.yml", ".evosave.yaml", "evosave.yml", "evosave.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks the game and checksum mode names
func (c *Config) Validate() error {
	if c.Game != "" {
		if _, err := savegame.ParseGameType(c.Game); err != nil {
			return fmt.Errorf("invalid game %q: %w", c.Game, err)
		}
	}
	if _, err := savegame.ParseChecksumMode(c.Checksum.Mode); err != nil {
		return err
	}
	if c.Output.Width < 0 {
		return fmt.Errorf("invalid output width %d in config", c.Output.Width)
	}
	return nil
}

// GameType returns the configured game, or false when none is set
func (c *Config) GameType() (savegame.GameType, bool) {
	if c.Game == "" {
		return "", false
	}
	g, err := savegame.ParseGameType(c.Game)
	if err != nil {
		return "", false
	}
	return g, true
}

// ChecksumMode returns the configured checksum mode, defaulting to warn
func (c *Config) ChecksumMode() savegame.ChecksumMode {
	mode, err := savegame.ParseChecksumMode(c.Checksum.Mode)
	if err != nil {
		return savegame.ChecksumWarn
	}
	return mode
}

// MergeConfigs merges CLI overrides into a base config
// Non-empty values from override take precedence over base values
func MergeConfigs(base, override *Config) *Config {
	merged := *base

	if override.Game != "" {
		merged.Game = override.Game
	}
	if override.Checksum.Mode != "" {
		merged.Checksum.Mode = override.Checksum.Mode
	}
	if override.Output.Indent != "" {
		merged.Output.Indent = override.Output.Indent
	}
	if override.Output.Width != 0 {
		merged.Output.Width = override.Output.Width
	}

	// A debug flag can only switch debugging on
	merged.Dev.Debug = base.Dev.Debug || override.Dev.Debug

	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath, cliGame, cliChecksumMode string, cliDebug bool) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg = MergeConfigs(cfg, &Config{
		Game:     cliGame,
		Checksum: ChecksumConfig{Mode: cliChecksumMode},
		Dev:      DevConfig{Debug: cliDebug},
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
