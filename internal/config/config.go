// Package config is used to load the configuration file
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shibukawa/configdir"
	"github.com/spf13/viper"
)

// DefaultAutorun is run once the shell is up unless disabled.
const DefaultAutorun = "info metadata segments sections loads"

type shell struct {
	Autorun      string `mapstructure:"autorun"`
	History      string `mapstructure:"history"`
	ParallelInfo bool   `mapstructure:"parallel-info"`
}

type disass struct {
	CacheSize       int `mapstructure:"cache-size"`
	MaxInstructions int `mapstructure:"max-instructions"`
}

// Config is the configuration struct
type Config struct {
	Verbose   bool     `mapstructure:"verbose"`
	Color     bool     `mapstructure:"color"`
	Arch      string   `mapstructure:"arch"`
	Demangle  bool     `mapstructure:"demangle"`
	NoAutorun bool     `mapstructure:"no-autorun"`
	Commands  []string `mapstructure:"command"`

	Shell  shell  `mapstructure:"shell"`
	Disass disass `mapstructure:"disass"`
}

// SetDefaults registers the default values with viper.
func SetDefaults() {
	viper.SetDefault("shell.autorun", DefaultAutorun)
	viper.SetDefault("shell.parallel-info", false)
	viper.SetDefault("disass.cache-size", 256)
	viper.SetDefault("disass.max-instructions", 100)
}

func (c *Config) verify() error {
	if c.Disass.CacheSize < 0 {
		return fmt.Errorf("config: disass.cache-size must not be negative (got %d)", c.Disass.CacheSize)
	}
	if c.Disass.MaxInstructions < 0 {
		return fmt.Errorf("config: disass.max-instructions must not be negative (got %d)", c.Disass.MaxInstructions)
	}
	if c.Shell.History == "" {
		cacheDir := configdir.New("strongarm", "shell").QueryCacheFolder()
		if err := cacheDir.MkdirAll(); err == nil {
			c.Shell.History = filepath.Join(cacheDir.Path, "history")
		}
	}
	return nil
}

// AutorunLines returns the shell lines to run at startup. Lines in
// shell.autorun are separated by ';'.
func (c *Config) AutorunLines() []string {
	if c.NoAutorun {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(c.Shell.Autorun, ";") {
		if line = strings.TrimSpace(line); len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// LoadConfig loads the configuration file
func LoadConfig() (*Config, error) {
	var c *Config

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}
	if c == nil {
		c = &Config{}
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return c, nil
}
