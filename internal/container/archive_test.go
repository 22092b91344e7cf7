package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kartoza/kartoza-narration-tuner/internal/testutil"
	"github.com/kartoza/kartoza-narration-tuner/internal/workspace"
)

func deckEntries() []testutil.Entry {
	tone := testutil.Signal(testutil.SignalOptions{DurationSecs: 1, ToneFreq: 440, ToneLevel: -20})
	entries := testutil.SlideDeckEntries()
	entries = append(entries,
		testutil.Entry{Name: "ppt/media/media2.wav", Data: testutil.WAV16(tone), Method: zip.Deflate},
		testutil.Entry{Name: "ppt/media/media1.mp3", Data: []byte("ID3 fake mp3"), Method: zip.Store},
		testutil.Entry{Name: "ppt/media/jingle.aiff", Data: []byte("FORM fake aiff"), Method: zip.Store},
		testutil.Entry{Name: "docProps/narration.wav", Data: []byte("outside the media dir"), Method: zip.Store},
	)
	return entries
}

func openDeck(t *testing.T) (*Archive, *workspace.Workspace, string) {
	t.Helper()
	dir := t.TempDir()
	path := testutil.WriteArchive(t, dir, "deck.pptx", deckEntries())

	a, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	ws, err := workspace.New("archive-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ws.Close() })

	return a, ws, dir
}

func TestOpenArchive_Invalid(t *testing.T) {
	dir := t.TempDir()

	notZip := filepath.Join(dir, "text.pptx")
	if err := os.WriteFile(notZip, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenArchive(notZip); !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer for non-zip, got %v", err)
	}

	wrongLayout := testutil.WriteArchive(t, dir, "other.zip", []testutil.Entry{
		{Name: "word/document.xml", Data: []byte("<doc/>"), Method: zip.Deflate},
		{Name: "[Content_Types].xml", Data: []byte("<Types/>"), Method: zip.Deflate},
	})
	if _, err := OpenArchive(wrongLayout); !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer for non-presentation package, got %v", err)
	}

	if _, err := OpenArchive(filepath.Join(dir, "missing.pptx")); !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer for missing file, got %v", err)
	}
}

func TestIsAudioEntry(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ppt/media/media1.wav", true},
		{"ppt/media/media1.MP3", true},
		{"ppt/media/sound.m4a", true},
		{"ppt/media/image1.png", false},
		{"ppt/media/video1.mp4", false},
		{"ppt/media/", false},
		{"ppt/slides/media1.wav", false},
		{"media/media1.wav", false},
	}

	for _, tt := range tests {
		if got := IsAudioEntry(tt.name); got != tt.want {
			t.Errorf("IsAudioEntry(%q): expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestArchive_Extract(t *testing.T) {
	a, ws, _ := openDeck(t)

	assets, err := a.Extract(ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"ppt/media/jingle.aiff", "ppt/media/media1.mp3", "ppt/media/media2.wav"}
	if len(assets) != len(want) {
		t.Fatalf("expected %d assets, got %d", len(want), len(assets))
	}
	for i, asset := range assets {
		if asset.Name != want[i] {
			t.Errorf("asset %d: expected %s, got %s", i, want[i], asset.Name)
		}
		data, err := os.ReadFile(asset.Path)
		if err != nil {
			t.Fatalf("extracted file missing: %v", err)
		}
		if int64(len(data)) != asset.Size {
			t.Errorf("%s: expected size %d, got %d", asset.Name, asset.Size, len(data))
		}
	}
	if assets[2].Codec != "wav" {
		t.Errorf("expected codec wav, got %s", assets[2].Codec)
	}
	if a.State() != ArchiveExtracted {
		t.Errorf("expected state extracted, got %s", a.State())
	}

	if _, err := a.Extract(ws); err == nil {
		t.Error("expected error extracting twice")
	}
}

func TestArchive_ReconstructIdentity(t *testing.T) {
	a, ws, dir := openDeck(t)
	if _, err := a.Extract(ws); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out.pptx")
	if err := a.Reconstruct(dest, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in, inOrder := testutil.ReadArchive(t, a.Path())
	out, outOrder := testutil.ReadArchive(t, dest)

	if len(inOrder) != len(outOrder) {
		t.Fatalf("expected %d entries, got %d", len(inOrder), len(outOrder))
	}
	for i := range inOrder {
		if inOrder[i] != outOrder[i] {
			t.Errorf("entry %d: expected %s, got %s", i, inOrder[i], outOrder[i])
		}
		if !bytes.Equal(in[inOrder[i]], out[inOrder[i]]) {
			t.Errorf("entry %s changed", inOrder[i])
		}
	}

	assertRawEqual(t, a.Path(), dest, nil)

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	if zr.Comment != "test deck" {
		t.Errorf("expected archive comment preserved, got %q", zr.Comment)
	}
}

func TestArchive_ReconstructReplaced(t *testing.T) {
	a, ws, dir := openDeck(t)
	assets, err := a.Extract(ws)
	if err != nil {
		t.Fatal(err)
	}

	replacement := []byte("processed narration bytes")
	target := assets[2]
	processed := target.Path + ".out"
	if err := os.WriteFile(processed, replacement, 0644); err != nil {
		t.Fatal(err)
	}
	target.Path = processed
	target.Replaced = true

	dest := filepath.Join(dir, "out.pptx")
	if err := a.Reconstruct(dest, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.State() != ArchiveReconstructed {
		t.Errorf("expected state reconstructed, got %s", a.State())
	}

	out, order := testutil.ReadArchive(t, dest)
	if !bytes.Equal(out[target.Name], replacement) {
		t.Errorf("expected %s replaced", target.Name)
	}

	_, inOrder := testutil.ReadArchive(t, a.Path())
	for i := range inOrder {
		if inOrder[i] != order[i] {
			t.Errorf("entry %d: expected %s, got %s", i, inOrder[i], order[i])
		}
	}

	assertRawEqual(t, a.Path(), dest, map[string]bool{target.Name: true})

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == target.Name && f.Method != zip.Deflate {
			t.Errorf("expected replaced entry to keep deflate, got method %d", f.Method)
		}
	}
}

func TestArchive_OverwriteRefused(t *testing.T) {
	a, ws, dir := openDeck(t)
	if _, err := a.Extract(ws); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "existing.pptx")
	if err := os.WriteFile(dest, []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}

	err := a.Reconstruct(dest, false)
	if !errors.Is(err, ErrOverwriteRefused) {
		t.Fatalf("expected ErrOverwriteRefused, got %v", err)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "keep me" {
		t.Error("existing output was modified")
	}
	assertNoTempFiles(t, dir)

	if err := a.Reconstruct(dest, true); err != nil {
		t.Fatalf("expected overwrite to succeed, got %v", err)
	}
	if _, order := testutil.ReadArchive(t, dest); len(order) != len(deckEntries()) {
		t.Errorf("expected %d entries after overwrite, got %d", len(deckEntries()), len(order))
	}
}

func TestArchive_RefusesInputAsOutput(t *testing.T) {
	a, ws, _ := openDeck(t)
	if _, err := a.Extract(ws); err != nil {
		t.Fatal(err)
	}

	before, _ := os.ReadFile(a.Path())
	err := a.Reconstruct(a.Path(), true)
	if !errors.Is(err, ErrOverwriteRefused) {
		t.Fatalf("expected ErrOverwriteRefused, got %v", err)
	}
	after, _ := os.ReadFile(a.Path())
	if !bytes.Equal(before, after) {
		t.Error("input archive was modified")
	}
}

func TestArchive_ReconstructBeforeExtract(t *testing.T) {
	a, _, dir := openDeck(t)
	if err := a.Reconstruct(filepath.Join(dir, "out.pptx"), false); err == nil {
		t.Error("expected error reconstructing before extract")
	}
}

func TestStripSizeFields(t *testing.T) {
	extra := []byte{
		0x55, 0x54, 0x05, 0x00, 1, 2, 3, 4, 5, // extended timestamp
		0x0a, 0x00, 0x02, 0x00, 9, 9, // NTFS-ish, kept
		0x01, 0x00, 0x00, 0x00, // zip64, empty
	}
	got := stripSizeFields(extra)
	want := []byte{0x0a, 0x00, 0x02, 0x00, 9, 9}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// assertRawEqual checks that entries outside skip kept their compressed
// bytes and metadata
func assertRawEqual(t *testing.T, inPath, outPath string, skip map[string]bool) {
	t.Helper()

	in, err := zip.OpenReader(inPath)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	out, err := zip.OpenReader(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	byName := make(map[string]*zip.File)
	for _, f := range out.File {
		byName[f.Name] = f
	}
	for _, f := range in.File {
		if skip[f.Name] {
			continue
		}
		g, ok := byName[f.Name]
		if !ok {
			t.Errorf("entry %s missing from output", f.Name)
			continue
		}
		if f.Method != g.Method || f.CRC32 != g.CRC32 || f.CompressedSize64 != g.CompressedSize64 {
			t.Errorf("entry %s not copied raw", f.Name)
		}
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(dir, ".*.tmp-*"))
	if len(matches) > 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}
