package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"stremio2m3u/pkg/apperr"
	"stremio2m3u/pkg/env"
	"stremio2m3u/pkg/logger"
	"stremio2m3u/pkg/paths"
	"stremio2m3u/pkg/stremio"
)

// DefaultAddonURL is used when neither config.json nor ADDON_URL set one.
const DefaultAddonURL = "https://da5f663b4690-minhatv.baby-beamup.club/"

// Stream preferences
const (
	PreferFirst = "first"
	PreferBest  = "best"
)

// FieldConfig lists the JSON fields tried, in order, when reading addon items.
// Addons disagree on naming, so extraction is driven by these lists.
type FieldConfig struct {
	Name []string `json:"name_fields"`
	URL  []string `json:"url_fields"`
	Logo []string `json:"logo_fields"`
}

// Config holds application configuration
type Config struct {
	// Addon settings
	AddonURL           string `json:"addon_url"`
	HTTPTimeoutSeconds int    `json:"http_timeout_seconds"`
	AddonProxy         string `json:"addon_proxy"`
	UserAgent          string `json:"user_agent"`
	ResolveStreams     bool   `json:"resolve_streams"`
	StreamPreference   string `json:"stream_preference"` // "first" or "best"

	// Field extraction
	Fields FieldConfig `json:"fields"`

	// Output settings
	OutputFile    string `json:"output_file"`
	M3UAttributes bool   `json:"m3u_attributes"` // tvg-logo / group-title on EXTINF lines
	MetricsFile   string `json:"metrics_file"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  bool   `json:"log_file"`

	// Internal - where was this config loaded from?
	LoadedPath string `json:"-"`
}

// Default returns the built-in configuration.
func Default(version string) *Config {
	fields := stremio.DefaultFields()
	return &Config{
		AddonURL:           DefaultAddonURL,
		HTTPTimeoutSeconds: 30,
		UserAgent:          "stremio2m3u/" + version,
		ResolveStreams:     true,
		StreamPreference:   PreferFirst,
		Fields: FieldConfig{
			Name: fields.Name,
			URL:  fields.URL,
			Logo: fields.Logo,
		},
		OutputFile: "playlist.m3u",
		LogLevel:   "INFO",
	}
}

// Load builds the configuration for one run.
// Priority: Environment variables (if not empty) > config.json > defaults
func Load(version string) (*Config, error) {
	configPath := filepath.Join(paths.GetDataDir(), "config.json")
	cfg := Default(version)
	cfg.LoadedPath = configPath

	if err := cfg.LoadFile(configPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, apperr.Config("read "+configPath, err)
		}
		logger.Debug("No config file, using defaults and environment", "path", configPath)
	} else {
		logger.Info("Loaded configuration", "path", configPath)
	}

	ApplyEnvOverrides(cfg, env.ReadConfigOverrides())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overrides config with values from a JSON file
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment-derived overrides to cfg.
// Only variables that were set replace file values.
func ApplyEnvOverrides(cfg *Config, o env.ConfigOverrides) {
	if o.AddonURL != nil {
		cfg.AddonURL = *o.AddonURL
	}
	if o.OutputFile != nil {
		cfg.OutputFile = *o.OutputFile
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.LogFile = *o.LogFile
	}
	if o.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeoutSeconds = *o.HTTPTimeoutSeconds
	}
	if o.AddonProxy != nil {
		cfg.AddonProxy = *o.AddonProxy
	}
	if o.UserAgent != nil {
		cfg.UserAgent = *o.UserAgent
	}
	if o.ResolveStreams != nil {
		cfg.ResolveStreams = *o.ResolveStreams
	}
	if o.StreamPreference != nil {
		cfg.StreamPreference = strings.ToLower(*o.StreamPreference)
	}
	if o.M3UAttributes != nil {
		cfg.M3UAttributes = *o.M3UAttributes
	}
	if len(o.NameFields) > 0 {
		cfg.Fields.Name = o.NameFields
	}
	if len(o.URLFields) > 0 {
		cfg.Fields.URL = o.URLFields
	}
	if len(o.LogoFields) > 0 {
		cfg.Fields.Logo = o.LogoFields
	}
	if o.MetricsFile != nil {
		cfg.MetricsFile = *o.MetricsFile
	}
}

// Validate reports the first setting that would make a run impossible.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AddonURL) == "" {
		return apperr.Config("addon url", fmt.Errorf("%s is empty", env.AddonURL))
	}
	if err := checkHTTPURL(c.AddonURL); err != nil {
		return apperr.Config("addon url", err)
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return apperr.Config("output file", fmt.Errorf("%s is empty", env.OutputFile))
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return apperr.Config("http timeout", fmt.Errorf("must be positive, got %d", c.HTTPTimeoutSeconds))
	}
	switch c.StreamPreference {
	case PreferFirst, PreferBest:
	default:
		return apperr.Config("stream preference", fmt.Errorf("unknown value %q (want %q or %q)", c.StreamPreference, PreferFirst, PreferBest))
	}
	if len(c.Fields.URL) == 0 {
		return apperr.Config("url fields", fmt.Errorf("at least one field name is required"))
	}
	if c.AddonProxy != "" {
		u, err := url.Parse(c.AddonProxy)
		if err != nil {
			return apperr.Config("addon proxy", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return apperr.Config("addon proxy", fmt.Errorf("unsupported scheme %q", u.Scheme))
		}
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}
