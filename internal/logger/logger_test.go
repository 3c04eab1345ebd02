package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   Level
		wantOK bool
	}{
		{"debug", DebugLevel, true},
		{"INFO", InfoLevel, true},
		{" warn ", WarnLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"verbose", InfoLevel, false},
		{"", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init("warn", "text", &buf)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)
	Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("Expected warn and error lines, got %q", out)
	}
	if !Enabled(ErrorLevel) || Enabled(InfoLevel) {
		t.Error("Enabled disagrees with the configured level")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "json", &buf)

	Info("loaded %d events", 42)

	var line struct {
		Time  string `json:"time"`
		Level string `json:"level"`
		Msg   string `json:"msg"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("Expected one JSON object, got %q: %v", buf.String(), err)
	}
	if line.Level != "info" || line.Msg != "loaded 42 events" || line.Time == "" {
		t.Errorf("Unexpected line %+v", line)
	}
}

func TestUninitialised(t *testing.T) {
	defaultLogger = nil
	// Must not panic.
	Info("nobody is listening")
	if Enabled(ErrorLevel) {
		t.Error("Expected nothing enabled before Init")
	}
}
