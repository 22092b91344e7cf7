package container

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/workspace"
)

const (
	contentTypesEntry = "[Content_Types].xml"
	presentationDir   = "ppt/"
	// MediaDir is where slide-deck packages keep embedded media
	MediaDir = "ppt/media/"
)

// audioExtensions are the media entries treated as narration audio.
// Extensions the bridge cannot transcode are still discovered so they are
// reported as skipped rather than silently ignored.
var audioExtensions = map[string]bool{
	"wav": true, "mp3": true, "m4a": true, "wma": true, "aac": true,
	"flac": true, "ogg": true, "aif": true, "aiff": true, "mid": true,
	"midi": true, "au": true,
}

// ArchiveState is the lifecycle position of an Archive
type ArchiveState int

const (
	ArchiveUnopened ArchiveState = iota
	ArchiveExtracted
	ArchiveReconstructed
)

func (s ArchiveState) String() string {
	switch s {
	case ArchiveUnopened:
		return "unopened"
	case ArchiveExtracted:
		return "extracted"
	case ArchiveReconstructed:
		return "reconstructed"
	default:
		return "unknown"
	}
}

// Archive is a slide-deck package whose media entries can be replaced
type Archive struct {
	path   string
	reader *zip.ReadCloser
	assets map[string]*models.AudioAsset
	state  ArchiveState
}

// OpenArchive opens a slide-deck package and checks its layout
func OpenArchive(path string) (*Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContainer, path, err)
	}

	hasTypes, hasPresentation := false, false
	for _, f := range reader.File {
		if f.Name == contentTypesEntry {
			hasTypes = true
		}
		if strings.HasPrefix(f.Name, presentationDir) {
			hasPresentation = true
		}
	}
	if !hasTypes || !hasPresentation {
		reader.Close()
		return nil, fmt.Errorf("%w: %s is not a presentation package", ErrInvalidContainer, path)
	}

	return &Archive{path: path, reader: reader, assets: make(map[string]*models.AudioAsset)}, nil
}

// Path returns the input archive path
func (a *Archive) Path() string {
	return a.path
}

// State returns the current lifecycle state
func (a *Archive) State() ArchiveState {
	return a.state
}

// Close releases the input archive
func (a *Archive) Close() error {
	return a.reader.Close()
}

// IsAudioEntry reports whether an entry name follows the media audio
// convention
func IsAudioEntry(name string) bool {
	if !strings.HasPrefix(name, MediaDir) || strings.HasSuffix(name, "/") {
		return false
	}
	return audioExtensions[models.CodecFromName(name)]
}

// Extract writes every audio entry into ws and returns the assets sorted
// by entry name
func (a *Archive) Extract(ws *workspace.Workspace) ([]*models.AudioAsset, error) {
	if a.state != ArchiveUnopened {
		return nil, fmt.Errorf("cannot extract archive in state %s", a.state)
	}

	var assets []*models.AudioAsset
	for _, f := range a.reader.File {
		if !IsAudioEntry(f.Name) {
			continue
		}

		path, err := ws.Path(f.Name)
		if err != nil {
			return nil, err
		}
		if err := extractEntry(f, path); err != nil {
			return nil, err
		}

		asset := &models.AudioAsset{
			Name:  f.Name,
			Path:  path,
			Codec: models.CodecFromName(f.Name),
			Size:  int64(f.UncompressedSize64),
		}
		a.assets[f.Name] = asset
		assets = append(assets, asset)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Name < assets[j].Name
	})

	a.state = ArchiveExtracted
	return assets, nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to extract entry %s: %w", f.Name, err)
	}
	return out.Close()
}

// Reconstruct writes a new archive to dest. Entries keep their original
// order. Replaced audio entries are re-compressed with the original method
// and metadata; every other entry is copied as raw compressed bytes.
func (a *Archive) Reconstruct(dest string, overwrite bool) error {
	if a.state != ArchiveExtracted {
		return fmt.Errorf("cannot reconstruct archive in state %s", a.state)
	}
	if err := checkDistinct(a.path, dest); err != nil {
		return err
	}

	out, err := PrepareOutput(dest, overwrite)
	if err != nil {
		return err
	}

	if err := a.writeTo(out.File()); err != nil {
		out.Abort()
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	a.state = ArchiveReconstructed
	return nil
}

func (a *Archive) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, f := range a.reader.File {
		asset, ok := a.assets[f.Name]
		if !ok || !asset.Replaced {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy entry %s: %w", f.Name, err)
			}
			continue
		}

		if err := writeReplaced(zw, f, asset.Path); err != nil {
			return err
		}
	}

	if err := zw.SetComment(a.reader.Comment); err != nil {
		return fmt.Errorf("failed to set archive comment: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func writeReplaced(zw *zip.Writer, f *zip.File, src string) error {
	header := &zip.FileHeader{
		Name:           f.Name,
		Comment:        f.Comment,
		Method:         f.Method,
		Modified:       f.Modified,
		ModifiedTime:   f.ModifiedTime,
		ModifiedDate:   f.ModifiedDate,
		Extra:          stripSizeFields(f.Extra),
		ExternalAttrs:  f.ExternalAttrs,
		CreatorVersion: f.CreatorVersion,
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", f.Name, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open processed %s: %w", f.Name, err)
	}
	defer in.Close()

	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", f.Name, err)
	}
	return nil
}

// stripSizeFields drops extra fields the writer regenerates: zip64 sizes
// (0x0001) and extended timestamps (0x5455)
func stripSizeFields(extra []byte) []byte {
	var out []byte
	for len(extra) >= 4 {
		tag := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		if 4+size > len(extra) {
			break
		}
		if tag != 0x0001 && tag != 0x5455 {
			out = append(out, extra[:4+size]...)
		}
		extra = extra[4+size:]
	}
	return out
}
