// Package env consolidates all environment variable reading for the application.
// Overrides are read once at startup (see config.Load).
package env

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names (single source of truth)
const (
	AddonURL           = "ADDON_URL"
	OutputFile         = "OUTPUT_FILE"
	LOGLevel           = "LOG_LEVEL"
	LOGFile            = "LOG_FILE"
	HTTPTimeoutSeconds = "HTTP_TIMEOUT_SECONDS"
	AddonProxy         = "ADDON_PROXY"
	UserAgent          = "USER_AGENT"
	ResolveStreams     = "RESOLVE_STREAMS"
	StreamPreference   = "STREAM_PREFERENCE"
	M3UAttributes      = "M3U_ATTRIBUTES"
	NameFields         = "NAME_FIELDS"
	URLFields          = "URL_FIELDS"
	LogoFields         = "LOGO_FIELDS"
	MetricsFile        = "METRICS_FILE"
	DataDir            = "DATA_DIR"
	TZVar              = "TZ"
)

// TZ returns the TZ environment variable (e.g. for logger timezone).
func TZ() string {
	return os.Getenv(TZVar)
}

// LogLevel returns LOG_LEVEL with default "INFO" (for early logger init before config).
func LogLevel() string {
	if v := os.Getenv(LOGLevel); v != "" {
		return v
	}
	return "INFO"
}

// LogToFile reports whether LOG_FILE asks for a dated log file next to the data.
func LogToFile() bool {
	return getEnvBool(LOGFile, false)
}

// ConfigOverrides holds all config values that can be set via environment variables.
// Pointer fields are nil when the variable is unset or unparsable, so config.json
// values survive.
type ConfigOverrides struct {
	AddonURL           *string
	OutputFile         *string
	LogLevel           *string
	LogFile            *bool
	HTTPTimeoutSeconds *int
	AddonProxy         *string
	UserAgent          *string
	ResolveStreams     *bool
	StreamPreference   *string
	M3UAttributes      *bool
	NameFields         []string
	URLFields          []string
	LogoFields         []string
	MetricsFile        *string
}

// ReadConfigOverrides reads all relevant environment variables once.
func ReadConfigOverrides() ConfigOverrides {
	var o ConfigOverrides

	o.AddonURL = lookupString(AddonURL)
	o.OutputFile = lookupString(OutputFile)
	o.LogLevel = lookupString(LOGLevel)
	o.LogFile = lookupBool(LOGFile)
	o.HTTPTimeoutSeconds = lookupInt(HTTPTimeoutSeconds)
	o.AddonProxy = lookupString(AddonProxy)
	o.UserAgent = lookupString(UserAgent)
	o.ResolveStreams = lookupBool(ResolveStreams)
	o.StreamPreference = lookupString(StreamPreference)
	o.M3UAttributes = lookupBool(M3UAttributes)
	o.NameFields = getEnvList(NameFields)
	o.URLFields = getEnvList(URLFields)
	o.LogoFields = getEnvList(LogoFields)
	o.MetricsFile = lookupString(MetricsFile)

	return o
}

func lookupString(key string) *string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return &v
	}
	return nil
}

func lookupInt(key string) *int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &n
		}
	}
	return nil
}

func lookupBool(key string) *bool {
	if v := os.Getenv(key); v != "" {
		b := parseBool(v)
		return &b
	}
	return nil
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var list []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return parseBool(v)
	}
	return defaultVal
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}
