package spotd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "spotd.toml")
	data := []byte("" +
		"[server]\n" +
		"listen = \"127.0.0.1:6000\"\n" +
		"log_level = \"debug\"\n" +
		"\n" +
		"[engine.vlc]\n" +
		"enabled = true\n" +
		"base_url = \"http://localhost:8080\"\n" +
		"\n" +
		"[modules.mqtt_bridge]\n" +
		"enabled = true\n" +
		"node_id = \"spotd:living-room\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:6000" {
		t.Fatalf("expected listen")
	}
	if cfg.Server.RecvTimeoutMS != 100 {
		t.Fatalf("expected default receive timeout, got %d", cfg.Server.RecvTimeoutMS)
	}
	if !cfg.Engine.VLC.Enabled || cfg.Engine.VLC.BaseURL != "http://localhost:8080" {
		t.Fatalf("expected vlc engine")
	}
	if !cfg.Modules.MQTTBridge.Enabled {
		t.Fatalf("expected mqtt bridge enabled")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadDefaultConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if cfg.Server.Listen != DefaultConfig().Server.Listen {
		t.Fatalf("expected defaults")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default config path: %v", err)
	}
	if path == "" {
		t.Fatalf("expected path")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	for _, cfg := range []LogConfig{
		{Level: "debug", Format: "json", Output: "stderr", UTC: true},
		{Level: "error", Format: "text", AddSource: true},
		{},
	} {
		if NewLogger(cfg) == nil {
			t.Fatalf("expected logger for %+v", cfg)
		}
	}
}
