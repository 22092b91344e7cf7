package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspace_Lifecycle(t *testing.T) {
	ws, err := New("narration-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := ws.Path("ppt/media/media1.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(p, ws.Dir()) {
		t.Errorf("expected %s inside %s", p, ws.Dir())
	}
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write into workspace: %v", err)
	}

	dir := ws.Dir()
	if err := ws.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected workspace removed, stat returned %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
}

func TestWorkspace_PathStaysInside(t *testing.T) {
	ws, err := New("narration-test")
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	for _, name := range []string{"../../etc/passwd", "/abs/media.wav", "a/../../b.wav"} {
		p, err := ws.Path(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		rel, err := filepath.Rel(ws.Dir(), p)
		if err != nil || strings.HasPrefix(rel, "..") {
			t.Errorf("%s: path %s escapes workspace", name, p)
		}
	}
}
