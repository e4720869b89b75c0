package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/zjsonctl/internal/logging"
	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/protocol/frame"
	"github.com/danmuck/zjsonctl/internal/protocol/stream"
	"github.com/danmuck/zjsonctl/internal/source"
)

// Config is the zjsonctl file configuration.
type Config struct {
	Revision     string        `toml:"revision"`
	MaxLineBytes int           `toml:"max_line_bytes"`
	Compression  string        `toml:"compression"`
	Log          LogConfig     `toml:"log"`
	Metrics      MetricsConfig `toml:"metrics"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	JSON      bool   `toml:"json"`
}

// MetricsConfig controls the optional /metrics and /health listener. An
// empty Addr disables it.
type MetricsConfig struct {
	Addr        string   `toml:"addr"`
	Node        string   `toml:"node"`
	CorsOrigins []string `toml:"cors_origins"`
}

func Default() Config {
	return Config{
		Revision:     protocol.RevisionID.String(),
		MaxLineBytes: frame.DefaultLimits().MaxLineBytes,
		Compression:  source.CompressionAuto.String(),
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Metrics: MetricsConfig{
			Node: "zjsonctl",
		},
	}
}

// Load reads path over Default. Only keys present in the file override the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
	}

	if meta.IsDefined("revision") {
		cfg.Revision = strings.TrimSpace(raw.Revision)
	}
	if meta.IsDefined("max_line_bytes") {
		cfg.MaxLineBytes = raw.MaxLineBytes
	}
	if meta.IsDefined("compression") {
		cfg.Compression = strings.TrimSpace(raw.Compression)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}
	if meta.IsDefined("metrics", "addr") {
		cfg.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)
	}
	if meta.IsDefined("metrics", "node") {
		cfg.Metrics.Node = strings.TrimSpace(raw.Metrics.Node)
	}
	if meta.IsDefined("metrics", "cors_origins") {
		cfg.Metrics.CorsOrigins = raw.Metrics.CorsOrigins
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, err := protocol.ParseRevision(cfg.Revision); err != nil {
		return err
	}
	if cfg.MaxLineBytes <= 0 {
		return fmt.Errorf("max_line_bytes must be positive")
	}
	if _, err := source.ParseCompression(cfg.Compression); err != nil {
		return err
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	if strings.TrimSpace(cfg.Metrics.Addr) != "" && strings.TrimSpace(cfg.Metrics.Node) == "" {
		return fmt.Errorf("metrics node required when metrics addr is set")
	}
	return nil
}

// Stream returns the decoder configuration. cfg must have passed Validate.
func (c Config) Stream() stream.Config {
	rev, _ := protocol.ParseRevision(c.Revision)
	out := stream.DefaultConfig()
	out.Revision = rev
	out.Limits.MaxLineBytes = c.MaxLineBytes
	return out
}

// SourceCompression returns the configured codec, auto when unset.
func (c Config) SourceCompression() source.Compression {
	comp, err := source.ParseCompression(c.Compression)
	if err != nil {
		return source.CompressionAuto
	}
	return comp
}

// Logging maps the [log] table onto the runtime logging profile.
func (c Config) Logging() logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	if level, ok := logging.ParseLevel(c.Log.Level); ok {
		out.Level = level
	}
	out.Timestamp = c.Log.Timestamp
	out.JSON = c.Log.JSON
	return out
}
