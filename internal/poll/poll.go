// Package poll waits for an external asynchronous task that exposes two
// independent completion signals: an explicit status probe and the size
// of the file it is writing.
package poll

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrTimedOut is returned when neither signal fired before the timeout
var ErrTimedOut = errors.New("timed out waiting for completion")

// State is the position of a Poller in its lifecycle
type State int

const (
	Pending State = iota
	// Stable means the output size stopped changing
	Stable
	// Signaled means the status probe reported completion
	Signaled
	Done
	TimedOut
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Stable:
		return "stable"
	case Signaled:
		return "signaled"
	case Done:
		return "done"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions happen
func (s State) Terminal() bool {
	return s == Done || s == TimedOut
}

// Defaults for Config fields left zero
const (
	DefaultInterval    = time.Second
	DefaultStablePolls = 3
	DefaultTimeout     = 30 * time.Minute
)

// Config describes what to poll. Either signal may be nil.
type Config struct {
	// Signal returns true once the task reports completion
	Signal func() (bool, error)
	// Size returns the current size of the task's output
	Size func() (int64, error)
	// StablePolls is how many consecutive polls must see the same
	// non-zero size
	StablePolls int
	Interval    time.Duration
	Timeout     time.Duration
}

// Poller is an explicit completion state machine
type Poller struct {
	cfg         Config
	state       State
	start       time.Time
	lastSize    int64
	stableCount int
	lastErr     error
}

// New creates a Poller in the Pending state
func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.StablePolls <= 0 {
		cfg.StablePolls = DefaultStablePolls
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Poller{cfg: cfg, lastSize: -1}
}

// State returns the current state
func (p *Poller) State() State {
	return p.state
}

// LastErr returns the most recent error reported by a signal
func (p *Poller) LastErr() error {
	return p.lastErr
}

// Step samples both signals once at time now and advances the state.
// Stable and Signaled move to Done on the following step.
func (p *Poller) Step(now time.Time) State {
	switch p.state {
	case Done, TimedOut:
		return p.state
	case Stable, Signaled:
		p.state = Done
		return p.state
	}

	if p.start.IsZero() {
		p.start = now
	}

	if p.cfg.Signal != nil {
		ok, err := p.cfg.Signal()
		if err != nil {
			p.lastErr = err
		} else if ok {
			p.state = Signaled
			return p.state
		}
	}

	if p.cfg.Size != nil {
		size, err := p.cfg.Size()
		switch {
		case err != nil:
			p.lastErr = err
			p.stableCount = 0
			p.lastSize = -1
		case size > 0 && size == p.lastSize:
			p.stableCount++
			if p.stableCount >= p.cfg.StablePolls {
				p.state = Stable
				return p.state
			}
		default:
			p.stableCount = 0
			p.lastSize = size
		}
	}

	if now.Sub(p.start) >= p.cfg.Timeout {
		p.state = TimedOut
	}
	return p.state
}

// Run steps the poller every Interval until it reaches a terminal state.
// It returns ErrTimedOut on timeout and the context error on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if p.Step(time.Now()).Terminal() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if p.state == TimedOut {
		if p.lastErr != nil {
			return errors.Join(ErrTimedOut, p.lastErr)
		}
		return ErrTimedOut
	}
	return nil
}

// MarkerSuffix is appended to an output path to form its completion marker
const MarkerSuffix = ".done"

// FileSignals returns signals for an exporter writing path: the marker
// file path+MarkerSuffix appearing, or the size of path holding steady
func FileSignals(path string) (signal func() (bool, error), size func() (int64, error)) {
	signal = func() (bool, error) {
		_, err := os.Stat(path + MarkerSuffix)
		if err == nil {
			return true, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	size = func() (int64, error) {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}
	return signal, size
}
