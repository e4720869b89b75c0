package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/zjsonctl/internal/protocol"
	"github.com/danmuck/zjsonctl/internal/source"
	"github.com/danmuck/zjsonctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zjsonctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
revision = "legacy"
compression = "zstd"

[log]
level = "debug"

[metrics]
addr = "127.0.0.1:9464"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Revision != "legacy" {
		t.Fatalf("unexpected revision: %q", cfg.Revision)
	}
	if cfg.MaxLineBytes != Default().MaxLineBytes {
		t.Fatalf("expected default max_line_bytes, got %d", cfg.MaxLineBytes)
	}
	if !cfg.Log.Timestamp {
		t.Fatalf("expected default timestamp enabled")
	}
	if cfg.Metrics.Node != "zjsonctl" {
		t.Fatalf("unexpected metrics node: %q", cfg.Metrics.Node)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics addr: %q", cfg.Metrics.Addr)
	}

	sc := cfg.Stream()
	if sc.Revision != protocol.RevisionLegacy {
		t.Fatalf("expected legacy revision, got %s", sc.Revision)
	}
	if sc.Limits.MaxLineBytes != cfg.MaxLineBytes {
		t.Fatalf("unexpected line limit: %d", sc.Limits.MaxLineBytes)
	}
	if cfg.SourceCompression() != source.CompressionZstd {
		t.Fatalf("unexpected compression: %s", cfg.SourceCompression())
	}
	if lc := cfg.Logging(); lc.Level != zerolog.DebugLevel || !lc.Timestamp {
		t.Fatalf("unexpected logging config: %+v", lc)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"revision":    `revision = "v9"`,
		"line limit":  `max_line_bytes = 0`,
		"compression": `compression = "brotli"`,
		"log level":   "[log]\nlevel = \"loud\"",
		"node":        "[metrics]\naddr = \":9464\"\nnode = \"\"",
		"unknown key": `revisoin = "id"`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected load to fail", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("expected load failure, got %v", err)
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "zjsonctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected existing config to be kept")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	def := Default()
	if cfg.Revision != def.Revision || cfg.Compression != def.Compression || cfg.MaxLineBytes != def.MaxLineBytes {
		t.Fatalf("template does not match defaults: %+v", cfg)
	}
	if cfg.Log.Level != def.Log.Level || cfg.Metrics.Node != def.Metrics.Node {
		t.Fatalf("template does not match defaults: %+v", cfg)
	}
}
