package notify

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// Urgency levels for notifications
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

const appTitle = "Narration Tuner"

// command is swapped in tests
var command = "notify-send"

// Send sends a desktop notification using notify-send
func Send(title, body string, urgency Urgency, icon string) error {
	args := []string{title, body}

	if urgency != "" {
		args = append(args, "--urgency="+string(urgency))
	}

	if icon != "" {
		args = append(args, "--icon="+icon)
	}

	cmd := exec.Command(command, args...)
	return cmd.Run()
}

// Info sends an informational notification
func Info(title, body string) error {
	return Send(title, body, UrgencyNormal, "audio-x-generic")
}

// Error sends an error notification
func Error(title, body string) error {
	return Send(title, body, UrgencyCritical, "dialog-error")
}

// ContainerComplete notifies that one output file was written
func ContainerComplete(output string, processed, skipped int) error {
	body := fmt.Sprintf("%s saved (%d normalized, %d skipped)", filepath.Base(output), processed, skipped)
	return Info(appTitle, body)
}

// ContainerFailed notifies that a container could not be processed
func ContainerFailed(input string, err error) error {
	return Error(appTitle, fmt.Sprintf("%s failed: %v", filepath.Base(input), err))
}

// BatchComplete notifies that a batch run finished
func BatchComplete(succeeded, failed int) error {
	if failed > 0 {
		return Error(appTitle, fmt.Sprintf("Batch finished: %d written, %d failed", succeeded, failed))
	}
	return Info(appTitle, fmt.Sprintf("Batch finished: %d written", succeeded))
}
