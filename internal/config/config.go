// Package config loads the server configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ragline/ragline/pkg/logsink"
)

// Config is the full server configuration.
type Config struct {
	Server       ServerConfig                `yaml:"server"`
	LogLevel     string                      `yaml:"log_level"`
	DataDir      string                      `yaml:"data_dir"`
	Destinations []logsink.DestinationConfig `yaml:"destinations"`
}

// ServerConfig names the MCP server as announced to clients.
type ServerConfig struct {
	Name string `yaml:"name"`
}

// Default returns the configuration used when no file is present: info-level
// logging and a SQLite log store under the data dir.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Name: "ragline"},
		LogLevel: "info",
		DataDir:  ".ragline",
		Destinations: []logsink.DestinationConfig{
			{
				Type:    "sqlite",
				Enabled: true,
				Settings: map[string]any{
					"path": ".ragline/logs.db",
				},
			},
		},
	}
}

// Load reads the YAML file at path. A missing file is not an error: the
// defaults apply. Unknown fields are rejected so typos surface early.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
