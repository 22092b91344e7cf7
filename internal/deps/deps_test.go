package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeBinary writes an executable shell script and returns its path
func fakeBinary(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveTools_Overrides(t *testing.T) {
	ffmpeg := fakeBinary(t, "ffmpeg-custom")
	ffprobe := fakeBinary(t, "ffprobe-custom")

	tools, missing := ResolveTools(ffmpeg, ffprobe)
	if len(missing) != 0 {
		t.Fatalf("expected nothing missing, got %v", missing)
	}
	if tools.FFmpeg != ffmpeg || tools.FFprobe != ffprobe {
		t.Errorf("expected overrides used, got %+v", tools)
	}
	if !tools.Complete() {
		t.Error("expected complete tools")
	}
}

func TestResolveTools_Missing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	tools, missing := ResolveTools("", "/nonexistent/ffprobe")
	if tools.Complete() {
		t.Error("expected incomplete tools")
	}
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(missing))
	}

	text := FormatMissing(missing)
	if !strings.Contains(text, "ffmpeg (REQUIRED)") {
		t.Errorf("expected ffmpeg listed as required, got %q", text)
	}
	if !strings.Contains(text, "/nonexistent/ffprobe") {
		t.Errorf("expected configured path reported, got %q", text)
	}
}

func TestFormatMissing_Empty(t *testing.T) {
	if got := FormatMissing(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestCheckAll(t *testing.T) {
	required, optional := CheckAll("", "")
	if len(required) != len(RequiredDeps) {
		t.Errorf("expected %d required results, got %d", len(RequiredDeps), len(required))
	}
	if len(optional) != len(OptionalDeps) {
		t.Errorf("expected %d optional results, got %d", len(OptionalDeps), len(optional))
	}
}
