package logutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelTrace)
	log.Log(t.Context(), LevelTrace, "hallo", "n", 1)

	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("TRACE fehlt in %q", out)
	}
	if !strings.Contains(out, "source=logutil_test.go:") {
		t.Errorf("Quelle fehlt in %q", out)
	}
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelInfo)
	log.Debug("unsichtbar")
	log.Info("sichtbar")

	if strings.Contains(buf.String(), "unsichtbar") || !strings.Contains(buf.String(), "sichtbar") {
		t.Errorf("unerwartete Ausgabe %q", buf.String())
	}
	if strings.Contains(buf.String(), "source=") {
		t.Errorf("Quelle bei Info-Level: %q", buf.String())
	}
}
