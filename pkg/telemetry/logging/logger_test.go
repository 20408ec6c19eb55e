package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"platform-hq/proxydeploy/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"ERROR", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.input, err)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("visible", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not one JSON record: %v\n%s", err, buf.String())
	}
	if record["msg"] != "visible" || record["key"] != "value" {
		t.Errorf("record = %v", record)
	}
}

func TestSetupWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}

	logger.Debug("low level detail")
	if !strings.Contains(buf.String(), "low level detail") {
		t.Errorf("debug record missing at debug level:\n%s", buf.String())
	}
}

func TestSetupWriterRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if _, err := SetupWriter(config.LoggingConfig{Format: "xml"}, &buf); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
