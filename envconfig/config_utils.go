// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint/Float: Zahlen-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Zahlen-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Float gibt eine Funktion zurueck, die einen float64 mit Default-Wert liest
func Float(key string, defaultValue float64) func() float64 {
	return func() float64 {
		if s := Var(key); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return f
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SUBWORD_DEBUG":         {"SUBWORD_DEBUG", LogLevel(), "Show additional debug information (e.g. SUBWORD_DEBUG=1)"},
		"SUBWORD_HOST":          {"SUBWORD_HOST", Host(), "IP Address for the subword server (default 127.0.0.1:11500)"},
		"SUBWORD_ORIGINS":       {"SUBWORD_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"SUBWORD_STORE":         {"SUBWORD_STORE", StoreDir(), "The path to the model store"},
		"SUBWORD_STORE_BACKEND": {"SUBWORD_STORE_BACKEND", StoreBackend(), "Store backend: disk or sqlite (default: disk)"},
		"SUBWORD_MAX_VOCAB":     {"SUBWORD_MAX_VOCAB", MaxVocab(), "Maximum vocabulary size, 0 for unbounded (default: 50000)"},
		"SUBWORD_BATCH_LINES":   {"SUBWORD_BATCH_LINES", BatchLines(), "Corpus rows per training chunk (default: 10)"},
		"SUBWORD_NORMALIZE":     {"SUBWORD_NORMALIZE", Normalize(), "Apply NFC normalization to the corpus"},
		"SUBWORD_MAX_TOKENS":    {"SUBWORD_MAX_TOKENS", MaxTokens(), "Row width of encoded batches (default: 150)"},
		"SUBWORD_MASK_RATE":     {"SUBWORD_MASK_RATE", MaskRate(), "Share of masked tokens for MLM (default: 0.15)"},
		"SUBWORD_SPACES":        {"SUBWORD_SPACES", Spaces(), "Handling of space runs: preserve, collapse or reject (default: preserve)"},
		"SUBWORD_NUM_PARALLEL":  {"SUBWORD_NUM_PARALLEL", NumParallel(), "Maximum number of parallel encodings"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
