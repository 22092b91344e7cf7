package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/container"
	"github.com/kartoza/kartoza-narration-tuner/internal/loudness"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/workspace"
)

// extracted is a container opened into a workspace for read-only use
type extracted struct {
	ws     *workspace.Workspace
	assets []*models.AudioAsset
	close  func()
}

// extract opens a container of either kind and pulls its audio assets into
// a fresh workspace. The caller must call close.
func (p *Pipeline) extract(ctx context.Context, in string) (*extracted, error) {
	kind, err := KindOf(in)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.New(workspacePrefix)
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.KindArchive:
		archive, err := container.OpenArchive(in)
		if err != nil {
			ws.Close()
			return nil, err
		}
		assets, err := archive.Extract(ws)
		if err != nil {
			archive.Close()
			ws.Close()
			return nil, err
		}
		return &extracted{ws: ws, assets: assets, close: func() {
			archive.Close()
			ws.Close()
		}}, nil

	default:
		track, err := container.ValidateTrack(ctx, p.bridge, in)
		if err != nil {
			ws.Close()
			return nil, err
		}
		asset, err := track.ExtractAudio(ctx, ws)
		if err != nil {
			ws.Close()
			return nil, err
		}
		return &extracted{ws: ws, assets: []*models.AudioAsset{asset}, close: func() { ws.Close() }}, nil
	}
}

// Measure reports the loudness and true peak of every audio asset in a
// container without writing anything
func (p *Pipeline) Measure(ctx context.Context, in string) ([]models.LoudnessMeasurement, error) {
	ex, err := p.extract(ctx, in)
	if err != nil {
		return nil, err
	}
	defer ex.close()

	measurements := make([]models.LoudnessMeasurement, 0, len(ex.assets))
	for _, asset := range ex.assets {
		m := models.LoudnessMeasurement{Asset: asset.Name, Stage: models.StagePre}

		buf, err := p.bridge.Decode(ctx, asset)
		if err != nil {
			m.SkipReason = skipReason(fmt.Errorf("decode failed: %w", err))
			measurements = append(measurements, m)
			continue
		}
		m.Duration = buf.Seconds()
		m.TruePeakDB = loudness.ToDB(loudness.TruePeak(buf))

		lufs, err := loudness.Measure(buf)
		if err != nil {
			m.SkipReason = skipReason(err)
		} else {
			m.LUFS = lufs
		}

		p.logger.Debug("measured asset",
			zap.String("asset", asset.Name),
			zap.Float64("lufs", m.LUFS),
			zap.Float64("true_peak_db", m.TruePeakDB),
			zap.String("skip_reason", m.SkipReason))
		measurements = append(measurements, m)
	}
	return measurements, nil
}

// ExportAssets copies the encoded audio assets of a container into dir,
// for consumers such as speech-to-text tools. It returns the written paths.
func (p *Pipeline) ExportAssets(ctx context.Context, in, dir string) ([]string, error) {
	ex, err := p.extract(ctx, in)
	if err != nil {
		return nil, err
	}
	defer ex.close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	dests := exportNames(ex.assets, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)))
	for i := range dests {
		dests[i] = filepath.Join(dir, dests[i])
		if err := container.CheckOutput(dests[i], p.opts.Overwrite); err != nil {
			return nil, err
		}
	}

	var written []string
	for i, asset := range ex.assets {
		if err := copyFile(asset.Path, dests[i]); err != nil {
			return written, err
		}
		written = append(written, dests[i])
	}

	p.logger.Info("exported audio assets", zap.String("input", in), zap.Int("count", len(written)))
	return written, nil
}

// exportNames maps assets to unique file names. Entries sharing a base name
// in different media folders get a numeric suffix.
func exportNames(assets []*models.AudioAsset, stem string) []string {
	names := make([]string, len(assets))
	used := make(map[string]bool)
	for i, asset := range assets {
		name := asset.BaseName()
		if asset.Name == models.TrackAssetName {
			name = stem + ".wav"
		}
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
