package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kartoza/kartoza-narration-tuner/internal/bridge"
)

// Dependency represents an external program the tool can use
type Dependency struct {
	Name        string // Command name (e.g., "ffmpeg")
	Description string // Human-readable description
	Required    bool   // If true, transcoding cannot run without it
	// Override is an explicit path from configuration, used instead of
	// a PATH lookup when set
	Override string
}

// CheckResult contains the result of checking a dependency
type CheckResult struct {
	Dependency Dependency
	Available  bool
	Path       string // Path to the executable if found
	Error      error  // Error if check failed
}

// RequiredDeps lists the transcoder binaries
var RequiredDeps = []Dependency{
	{
		Name:        "ffmpeg",
		Description: "Audio transcoding and video re-muxing",
		Required:    true,
	},
	{
		Name:        "ffprobe",
		Description: "Audio and video stream inspection",
		Required:    true,
	},
}

// OptionalDeps lists optional dependencies that enhance functionality
var OptionalDeps = []Dependency{
	{
		Name:        "notify-send",
		Description: "Desktop notifications",
		Required:    false,
	},
}

// Check verifies if a single dependency is available
func Check(dep Dependency) CheckResult {
	result := CheckResult{Dependency: dep}

	name := dep.Name
	if dep.Override != "" {
		name = dep.Override
	}

	path, err := exec.LookPath(name)
	if err != nil {
		result.Available = false
		result.Error = err
	} else {
		result.Available = true
		result.Path = path
	}

	return result
}

// withOverrides returns RequiredDeps with configured paths applied
func withOverrides(ffmpeg, ffprobe string) []Dependency {
	deps := make([]Dependency, len(RequiredDeps))
	copy(deps, RequiredDeps)
	for i := range deps {
		switch deps[i].Name {
		case "ffmpeg":
			deps[i].Override = ffmpeg
		case "ffprobe":
			deps[i].Override = ffprobe
		}
	}
	return deps
}

// CheckAll verifies all required and optional dependencies
func CheckAll(ffmpeg, ffprobe string) (required []CheckResult, optional []CheckResult) {
	for _, dep := range withOverrides(ffmpeg, ffprobe) {
		required = append(required, Check(dep))
	}
	for _, dep := range OptionalDeps {
		optional = append(optional, Check(dep))
	}
	return required, optional
}

// ResolveTools looks up the transcoder once. Missing binaries leave the
// corresponding Tools field empty and are returned as missing results.
func ResolveTools(ffmpeg, ffprobe string) (bridge.Tools, []CheckResult) {
	var tools bridge.Tools
	var missing []CheckResult

	for _, dep := range withOverrides(ffmpeg, ffprobe) {
		result := Check(dep)
		if !result.Available {
			missing = append(missing, result)
			continue
		}
		switch dep.Name {
		case "ffmpeg":
			tools.FFmpeg = result.Path
		case "ffprobe":
			tools.FFprobe = result.Path
		}
	}

	return tools, missing
}

// HasNotifier reports whether desktop notifications can be sent
func HasNotifier() bool {
	for _, dep := range OptionalDeps {
		if dep.Name == "notify-send" {
			return Check(dep).Available
		}
	}
	return false
}

// FormatMissing returns a formatted string of missing dependencies
func FormatMissing(results []CheckResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing dependencies:\n\n")

	for _, r := range results {
		status := "MISSING"
		if r.Dependency.Required {
			status = "REQUIRED"
		}
		sb.WriteString(fmt.Sprintf("  • %s (%s)\n", r.Dependency.Name, status))
		sb.WriteString(fmt.Sprintf("    %s\n", r.Dependency.Description))
		if r.Dependency.Override != "" {
			sb.WriteString(fmt.Sprintf("    Configured path not found: %s\n", r.Dependency.Override))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// InstallHint returns a platform-appropriate hint for installing ffmpeg
func InstallHint() string {
	if _, err := os.Stat("/etc/debian_version"); err == nil {
		return "sudo apt install ffmpeg"
	}
	if _, err := os.Stat("/etc/fedora-release"); err == nil {
		return "sudo dnf install ffmpeg"
	}
	return "install ffmpeg from https://ffmpeg.org/download.html or set FFMPEG_PATH and FFPROBE_PATH"
}
