package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// recorder installs a fake notify-send that appends its arguments to a file
func recorder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, "calls.log")
	script := filepath.Join(dir, "notify-send")
	content := "#!/bin/sh\nfor a in \"$@\"; do printf '%s|' \"$a\" >> " + log + "; done\necho >> " + log + "\n"
	if err := os.WriteFile(script, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}

	prev := command
	command = script
	t.Cleanup(func() { command = prev })
	return log
}

func TestContainerComplete(t *testing.T) {
	log := recorder(t)

	if err := ContainerComplete("/out/lecture.pptx", 3, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(log)
	line := string(data)
	if !strings.Contains(line, "lecture.pptx saved (3 normalized, 1 skipped)") {
		t.Errorf("unexpected body: %q", line)
	}
	if !strings.Contains(line, "--urgency=normal") {
		t.Errorf("expected normal urgency, got %q", line)
	}
}

func TestBatchComplete_Failures(t *testing.T) {
	log := recorder(t)

	if err := BatchComplete(2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(log)
	if !strings.Contains(string(data), "--urgency=critical") {
		t.Errorf("expected critical urgency for failures, got %q", data)
	}
}

func TestContainerFailed(t *testing.T) {
	log := recorder(t)

	if err := ContainerFailed("/in/talk.mp4", errors.New("no audio stream")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(log)
	if !strings.Contains(string(data), "talk.mp4 failed: no audio stream") {
		t.Errorf("unexpected body: %q", data)
	}
}
