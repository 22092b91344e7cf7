package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_ConsoleLevels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantDebug bool
		wantInfo  bool
	}{
		{name: "default", cfg: Config{}, wantDebug: false, wantInfo: true},
		{name: "verbose", cfg: Config{Verbose: true}, wantDebug: true, wantInfo: true},
		{name: "quiet", cfg: Config{Quiet: true}, wantDebug: false, wantInfo: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cfg.Console = &buf

			log, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			log.Debug("debug line")
			log.Info("info line")
			log.Sync()

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("expected debug logged=%v, output %q", tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("expected info logged=%v, output %q", tt.wantInfo, out)
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	log, err := New(Config{FilePath: path, Quiet: true, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug("normalized asset", zap.String("asset", "ppt/media/media1.wav"), zap.Float64("gain_db", 6.3))
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", data, err)
	}
	if entry["msg"] != "normalized asset" || entry["asset"] != "ppt/media/media1.wav" {
		t.Errorf("unexpected log entry: %v", entry)
	}
	if entry["level"] != "debug" {
		t.Errorf("expected debug level in file, got %v", entry["level"])
	}
}
