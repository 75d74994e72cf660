package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	TableDir string `mapstructure:"table_dir"`

	Repl struct {
		Prompt  string `mapstructure:"prompt"`
		History string `mapstructure:"history"`
	} `mapstructure:"repl"`

	Remote struct {
		TimeoutMs int `mapstructure:"timeout_ms"`
	} `mapstructure:"remote"`
}

// LoadConfig reads an optional yaml config file; a missing file falls
// back to the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("table_dir", "./tables")
	v.SetDefault("repl.prompt", "query> ")
	v.SetDefault("repl.history", defaultHistoryPath())
	v.SetDefault("remote.timeout_ms", 5000)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.linesql_history"
}
