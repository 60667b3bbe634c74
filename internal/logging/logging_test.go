package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithComponentTagsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(zerolog.New(&buf), "feed")

	logger.Info().Msg("connected")

	var event map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("decoding log line: %v", err)
	}
	if event["component"] != "feed" {
		t.Errorf("component = %v, want feed", event["component"])
	}
	if event["message"] != "connected" {
		t.Errorf("message = %v", event["message"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	if cfg.Level != "info" {
		t.Errorf("level = %q", cfg.Level)
	}
	if !cfg.Console || !cfg.File {
		t.Errorf("writers = console %v, file %v; want both", cfg.Console, cfg.File)
	}
	if !strings.HasSuffix(cfg.FilePath, "ram2.log") {
		t.Errorf("file path = %q", cfg.FilePath)
	}
}
