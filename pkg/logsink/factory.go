package logsink

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DestinationConfig declares one log destination. Settings are destination
// specific and decoded per type.
type DestinationConfig struct {
	Type     string         `yaml:"type" mapstructure:"type"`
	Enabled  bool           `yaml:"enabled" mapstructure:"enabled"`
	Settings map[string]any `yaml:"settings" mapstructure:"settings"`
}

// SQLiteSettings configures the "sqlite" destination.
type SQLiteSettings struct {
	Path string `mapstructure:"path"`
}

// RedisSettings configures the "redis" destination.
type RedisSettings struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	Prefix     string `mapstructure:"prefix"`
	MaxLen     int64  `mapstructure:"max_len"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// New builds the active sink from the declared destinations.
//
// Selection policy: the FIRST enabled destination wins; later enabled
// destinations are ignored (no fan-out). When nothing is enabled, records
// are mirrored to the given logger so they are at least visible.
func New(configs []DestinationConfig, logger *slog.Logger) (Sink, error) {
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		sink, err := newDestination(cfg, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	logger.Warn("no log destination enabled, mirroring records to stderr")
	return NewSlogSink(logger), nil
}

func newDestination(cfg DestinationConfig, logger *slog.Logger) (Sink, error) {
	switch cfg.Type {
	case "sqlite":
		var settings SQLiteSettings
		if err := decodeSettings(cfg, &settings); err != nil {
			return nil, err
		}
		if settings.Path == "" {
			return nil, fmt.Errorf("logsink: sqlite destination requires a path")
		}
		return NewSQLiteSink(settings.Path)

	case "redis":
		var settings RedisSettings
		if err := decodeSettings(cfg, &settings); err != nil {
			return nil, err
		}
		if settings.Addr == "" {
			return nil, fmt.Errorf("logsink: redis destination requires an addr")
		}
		var opts []RedisOption
		if settings.Prefix != "" {
			opts = append(opts, WithPrefix(settings.Prefix))
		}
		if settings.MaxLen > 0 {
			opts = append(opts, WithMaxLen(settings.MaxLen))
		}
		if settings.TTLSeconds > 0 {
			opts = append(opts, WithTTL(time.Duration(settings.TTLSeconds)*time.Second))
		}
		return NewRedisSink(settings.Addr, settings.Password, settings.DB, opts...), nil

	case "stderr":
		return NewSlogSink(logger), nil

	default:
		return nil, fmt.Errorf("logsink: unknown destination type %q", cfg.Type)
	}
}

func decodeSettings(cfg DestinationConfig, out any) error {
	if err := mapstructure.Decode(cfg.Settings, out); err != nil {
		return fmt.Errorf("logsink: decode %s settings: %w", cfg.Type, err)
	}
	return nil
}
