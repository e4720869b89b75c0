package main

import (
	"fmt"

	"github.com/danmuck/zjsonctl/internal/config"
	"github.com/danmuck/zjsonctl/internal/logging"
	"github.com/spf13/pflag"
)

// streamOptions are the flags shared by commands that read a stream. Flags
// that were set explicitly override the config file.
type streamOptions struct {
	configPath   string
	revision     string
	compression  string
	maxLineBytes int
	metricsAddr  string
}

func (o *streamOptions) bind(fs *pflag.FlagSet, withMetrics bool) {
	def := config.Default()
	fs.StringVarP(&o.configPath, "config", "c", "", "path to a zjsonctl TOML config")
	fs.StringVarP(&o.revision, "revision", "r", def.Revision, "protocol revision: id, named, legacy")
	fs.StringVar(&o.compression, "compression", def.Compression, "input compression: auto, none, gzip, zstd, lz4")
	fs.IntVar(&o.maxLineBytes, "max-line-bytes", def.MaxLineBytes, "maximum size of one input line")
	if withMetrics {
		fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address while decoding")
	}
}

func (o *streamOptions) resolve(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if fs.Changed("revision") {
		cfg.Revision = o.revision
	}
	if fs.Changed("compression") {
		cfg.Compression = o.compression
	}
	if fs.Changed("max-line-bytes") {
		cfg.MaxLineBytes = o.maxLineBytes
	}
	if fs.Lookup("metrics-addr") != nil && fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid options: %w", err)
	}
	logging.ConfigureWith(cfg.Logging())
	return cfg, nil
}

func inputPath(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
