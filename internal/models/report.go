package models

import "time"

// ContainerKind identifies which reconstruction strategy handles a file
type ContainerKind string

const (
	KindArchive ContainerKind = "archive"
	KindTrack   ContainerKind = "track"
)

// ContainerState represents the lifecycle of one container in a run
type ContainerState string

const (
	StatePending    ContainerState = "pending"
	StateProcessing ContainerState = "processing"
	StateWritten    ContainerState = "written"
	StateFailed     ContainerState = "failed"
)

// Job is one container to normalize
type Job struct {
	Kind   ContainerKind `json:"kind"`
	Input  string        `json:"input"`
	Output string        `json:"output"`
}

// ContainerReport is the result of running the pipeline over one container
type ContainerReport struct {
	Kind     ContainerKind  `json:"kind"`
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	State    ContainerState `json:"state"`
	Outcomes []Outcome      `json:"-"`
	Err      error          `json:"-"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
}

// Stats returns one NormalizationStats per asset in discovery order
func (r *ContainerReport) Stats() []NormalizationStats {
	stats := make([]NormalizationStats, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		stats = append(stats, o.Stats())
	}
	return stats
}

// Succeeded returns true once the output was fully written
func (r *ContainerReport) Succeeded() bool {
	return r.Err == nil && r.State == StateWritten
}

// Elapsed returns the wall time spent on the container
func (r *ContainerReport) Elapsed() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// BatchSummary aggregates container reports for one run
type BatchSummary struct {
	RunID     string            `json:"run_id"`
	Reports   []ContainerReport `json:"-"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	// Cancelled counts containers never started because the run was stopped
	Cancelled int `json:"cancelled"`
}

// Add records a finished container report
func (s *BatchSummary) Add(r ContainerReport) {
	s.Reports = append(s.Reports, r)
	if r.Succeeded() {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// Total returns the number of containers seen by the run
func (s *BatchSummary) Total() int {
	return len(s.Reports) + s.Cancelled
}
