package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		infoOut bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			if logger.IsDebugMode() != tt.debug {
				t.Errorf("IsDebugMode() = %v, want %v", logger.IsDebugMode(), tt.debug)
			}

			logger.Info("hello %s", "world")
			if got := strings.Contains(buf.String(), `msg="hello world"`); got != tt.infoOut {
				t.Errorf("info output present = %v, want %v: %q", got, tt.infoOut, buf.String())
			}
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	logger.WithFields(Fields{"format": "pdf"}).WithField("bytes", 42).WithError(errors.New("boom")).Error("Export failed")

	out := buf.String()
	for _, want := range []string{"level=error", `msg="Export failed"`, "format=pdf", "bytes=42", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q is missing %q", out, want)
		}
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "error")
	derived := logger.WithField("component", "loader")

	derived.Warn("dropped")
	logger.SetLevel("warn")
	derived.Warn("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("level change should reach derived loggers: %q", buf.String())
	}
}

func TestGlobalLogger(t *testing.T) {
	previous := GetLogger()
	defer SetLogger(previous)

	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, "debug"))

	Debug("template %s", "cached")
	WithField("ref", "t.docx").Warn("slow fetch")

	out := buf.String()
	if !strings.Contains(out, `msg="template cached"`) || !strings.Contains(out, "ref=t.docx") {
		t.Errorf("global logger output unexpected: %q", out)
	}
}
