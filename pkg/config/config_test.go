package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"stremio2m3u/pkg/apperr"
	"stremio2m3u/pkg/env"
	"stremio2m3u/pkg/logger"
)

func TestLoad_Defaults(t *testing.T) {
	logger.Init("DEBUG")
	t.Setenv(env.DataDir, t.TempDir())
	t.Setenv(env.AddonURL, "")
	t.Setenv(env.OutputFile, "")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AddonURL != DefaultAddonURL {
		t.Errorf("AddonURL = %q, want fallback %q", cfg.AddonURL, DefaultAddonURL)
	}
	if cfg.OutputFile != "playlist.m3u" {
		t.Errorf("OutputFile = %q, want playlist.m3u", cfg.OutputFile)
	}
	if cfg.UserAgent != "stremio2m3u/test" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.M3UAttributes {
		t.Error("M3UAttributes should default to false")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	logger.Init("DEBUG")
	dir := t.TempDir()
	t.Setenv(env.DataDir, dir)

	data := `{"addon_url": "https://file.example/", "output_file": "file.m3u", "http_timeout_seconds": 5,
		"fields": {"name_fields": ["title"], "url_fields": ["stream"], "logo_fields": ["logo"]}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(env.AddonURL, "")
	t.Setenv(env.OutputFile, "env.m3u")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AddonURL != "https://file.example/" {
		t.Errorf("AddonURL = %q, want value from config.json", cfg.AddonURL)
	}
	if cfg.OutputFile != "env.m3u" {
		t.Errorf("OutputFile = %q, want env override", cfg.OutputFile)
	}
	if cfg.HTTPTimeoutSeconds != 5 {
		t.Errorf("HTTPTimeoutSeconds = %d, want 5", cfg.HTTPTimeoutSeconds)
	}
	if !reflect.DeepEqual(cfg.Fields.URL, []string{"stream"}) {
		t.Errorf("Fields.URL = %v", cfg.Fields.URL)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	logger.Init("DEBUG")
	dir := t.TempDir()
	t.Setenv(env.DataDir, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load("test")
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("Load() error = %v, want config error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty addon url", mutate: func(c *Config) { c.AddonURL = "  " }, wantErr: true},
		{name: "relative addon url", mutate: func(c *Config) { c.AddonURL = "addon.example/manifest.json" }, wantErr: true},
		{name: "ftp addon url", mutate: func(c *Config) { c.AddonURL = "ftp://addon.example/" }, wantErr: true},
		{name: "missing host", mutate: func(c *Config) { c.AddonURL = "https:///path" }, wantErr: true},
		{name: "empty output", mutate: func(c *Config) { c.OutputFile = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTPTimeoutSeconds = 0 }, wantErr: true},
		{name: "unknown preference", mutate: func(c *Config) { c.StreamPreference = "random" }, wantErr: true},
		{name: "best preference", mutate: func(c *Config) { c.StreamPreference = PreferBest }},
		{name: "no url fields", mutate: func(c *Config) { c.Fields.URL = nil }, wantErr: true},
		{name: "socks proxy", mutate: func(c *Config) { c.AddonProxy = "socks5://127.0.0.1:1080" }},
		{name: "bad proxy scheme", mutate: func(c *Config) { c.AddonProxy = "gopher://127.0.0.1" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("test")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrConfig) {
					t.Errorf("Validate() = %v, want config error", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
