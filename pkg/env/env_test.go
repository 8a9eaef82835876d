package env

import (
	"reflect"
	"testing"
)

func TestReadConfigOverrides(t *testing.T) {
	t.Setenv(AddonURL, " https://addon.example/ ")
	t.Setenv(HTTPTimeoutSeconds, "15")
	t.Setenv(M3UAttributes, "1")
	t.Setenv(URLFields, "stream, ,externalUrl,")
	t.Setenv(ResolveStreams, "no")

	o := ReadConfigOverrides()

	if o.AddonURL == nil || *o.AddonURL != "https://addon.example/" {
		t.Errorf("AddonURL = %v, want trimmed value", o.AddonURL)
	}
	if o.HTTPTimeoutSeconds == nil || *o.HTTPTimeoutSeconds != 15 {
		t.Errorf("HTTPTimeoutSeconds = %v, want 15", o.HTTPTimeoutSeconds)
	}
	if o.M3UAttributes == nil || !*o.M3UAttributes {
		t.Errorf("M3UAttributes = %v, want true", o.M3UAttributes)
	}
	if o.ResolveStreams == nil || *o.ResolveStreams {
		t.Errorf("ResolveStreams = %v, want false", o.ResolveStreams)
	}
	if want := []string{"stream", "externalUrl"}; !reflect.DeepEqual(o.URLFields, want) {
		t.Errorf("URLFields = %v, want %v", o.URLFields, want)
	}
	if o.OutputFile != nil {
		t.Errorf("OutputFile = %q, want nil when unset", *o.OutputFile)
	}
}

func TestReadConfigOverrides_InvalidInt(t *testing.T) {
	t.Setenv(HTTPTimeoutSeconds, "soon")

	if o := ReadConfigOverrides(); o.HTTPTimeoutSeconds != nil {
		t.Errorf("HTTPTimeoutSeconds = %d, want nil for unparsable value", *o.HTTPTimeoutSeconds)
	}
}

func TestLogLevelDefault(t *testing.T) {
	t.Setenv(LOGLevel, "")
	if got := LogLevel(); got != "INFO" {
		t.Errorf("LogLevel() = %q, want INFO", got)
	}
}
