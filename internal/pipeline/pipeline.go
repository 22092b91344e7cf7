// Package pipeline sequences decoding, denoising, measurement, gain and
// re-encoding for every narration asset in a container, and aggregates the
// results into container reports and batch summaries.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/bridge"
	"github.com/kartoza/kartoza-narration-tuner/internal/container"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// EventKind identifies a progress event
type EventKind int

const (
	EventContainerStarted EventKind = iota
	EventAssetStarted
	EventAssetFinished
	EventTranscodeProgress
	EventContainerFinished
)

// Event reports pipeline progress to an observer
type Event struct {
	Kind      EventKind
	Container string
	Asset     string
	// Index is the zero-based asset position, Total the asset count
	Index   int
	Total   int
	Percent float64
	Outcome models.Outcome
	Report  *models.ContainerReport
	Err     error
}

// Observer receives progress events. It is called synchronously.
type Observer func(Event)

// Pipeline normalizes narration audio inside containers
type Pipeline struct {
	bridge   *bridge.Bridge
	opts     models.NormalizeOptions
	logger   *zap.Logger
	observer Observer

	// current container and asset, used for transcoder progress events
	container string
	asset     string
}

// New creates a Pipeline. The bridge carries the transcoder capability
// resolved at startup.
func New(b *bridge.Bridge, opts models.NormalizeOptions, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{bridge: b, opts: opts, logger: logger}
	b.SetPercentCallback(func(percent float64) {
		p.emit(Event{Kind: EventTranscodeProgress, Container: p.container, Asset: p.asset, Percent: percent})
	})
	return p
}

// SetObserver sets the progress observer
func (p *Pipeline) SetObserver(o Observer) {
	p.observer = o
}

// Options returns the normalization options in use
func (p *Pipeline) Options() models.NormalizeOptions {
	return p.opts
}

func (p *Pipeline) emit(e Event) {
	if p.observer != nil {
		p.observer(e)
	}
}

// KindOf returns the container kind handling path, by extension
func KindOf(path string) (models.ContainerKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx":
		return models.KindArchive, nil
	case ".mp4":
		return models.KindTrack, nil
	default:
		return "", fmt.Errorf("%w: %s", container.ErrUnsupportedFormat, path)
	}
}

// OutputPath returns the default output path for an input: the input name
// with a suffix, inside outputDir (or next to the input when empty)
func OutputPath(input, outputDir, suffix string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+suffix+ext)
}
