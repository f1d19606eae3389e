// config_test.go - Tests fuer die Environment-Konfiguration
package envconfig

import (
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHost(t *testing.T) {
	cases := map[string]struct {
		value  string
		expect string
	}{
		"empty":        {"", "http://127.0.0.1:11500"},
		"only address": {"1.2.3.4", "http://1.2.3.4:11500"},
		"only port":    {":1234", "http://:1234"},
		"address+port": {"1.2.3.4:1234", "http://1.2.3.4:1234"},
		"https":        {"https://example.com", "https://example.com:443"},
		"path":         {"http://example.com/subword", "http://example.com:80/subword"},
		"bad port":     {"1.2.3.4:99999", "http://1.2.3.4:11500"},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SUBWORD_HOST", tt.value)
			if host := Host(); host.String() != tt.expect {
				t.Errorf("Host() = %q, erwartet %q", host.String(), tt.expect)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"1":     slog.LevelDebug,
		"true":  slog.LevelDebug,
		"2":     slog.Level(-8),
	}

	for value, want := range cases {
		t.Setenv("SUBWORD_DEBUG", value)
		if got := LogLevel(); got != want {
			t.Errorf("SUBWORD_DEBUG=%q: LogLevel() = %v, erwartet %v", value, got, want)
		}
	}
}

func TestNumbers(t *testing.T) {
	t.Setenv("SUBWORD_MAX_VOCAB", "")
	if got := MaxVocab(); got != 50000 {
		t.Errorf("MaxVocab() = %d, erwartet 50000", got)
	}
	t.Setenv("SUBWORD_MAX_VOCAB", "1000")
	if got := MaxVocab(); got != 1000 {
		t.Errorf("MaxVocab() = %d, erwartet 1000", got)
	}
	t.Setenv("SUBWORD_MAX_VOCAB", "viele")
	if got := MaxVocab(); got != 50000 {
		t.Errorf("ungueltiger Wert: MaxVocab() = %d, erwartet 50000", got)
	}

	t.Setenv("SUBWORD_MASK_RATE", "0.3")
	if got := MaskRate(); got != 0.3 {
		t.Errorf("MaskRate() = %v, erwartet 0.3", got)
	}
	t.Setenv("SUBWORD_MASK_RATE", "x")
	if got := MaskRate(); got != 0.15 {
		t.Errorf("ungueltiger Wert: MaskRate() = %v, erwartet 0.15", got)
	}
}

func TestStoreSettings(t *testing.T) {
	t.Setenv("SUBWORD_STORE", "'/tmp/subword'")
	if got := StoreDir(); got != "/tmp/subword" {
		t.Errorf("StoreDir() = %q", got)
	}

	for value, want := range map[string]string{"": "disk", "DISK": "disk", "sqlite": "sqlite"} {
		t.Setenv("SUBWORD_STORE_BACKEND", value)
		if got := StoreBackend(); got != want {
			t.Errorf("SUBWORD_STORE_BACKEND=%q: %q, erwartet %q", value, got, want)
		}
	}
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("SUBWORD_ORIGINS", "http://a.example,http://b.example")
	origins := AllowedOrigins()
	if diff := cmp.Diff([]string{"http://a.example", "http://b.example"}, origins[:2]); diff != "" {
		t.Errorf("AllowedOrigins (-want +got):\n%s", diff)
	}
	if len(origins) != 2+12 {
		t.Errorf("%d Origins, erwartet 14", len(origins))
	}
}

func TestValuesCoversAsMap(t *testing.T) {
	vals := Values()
	for k := range AsMap() {
		if _, ok := vals[k]; !ok {
			t.Errorf("Values() ohne %s", k)
		}
	}
}
