package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"torrentify/internal/config"
)

// Requirement defines an external binary torrentify relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries a run with cfg needs.
func Requirements(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "MediaInfo",
			Command:     cfg.Tools.Mediainfo,
			Description: "Required for technical reports",
		},
		{
			Name:        "mkbrr",
			Command:     cfg.Tools.Mkbrr,
			Description: "Required for package creation and retagging",
		},
	}
	if cfg.Tools.Guessit {
		requirements = append(requirements, Requirement{
			Name:        "Python",
			Command:     cfg.Tools.Python,
			Description: "Runs guessit for title extraction; the built-in parser is used without it",
			Optional:    true,
		})
	}
	return requirements
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the unavailable non-optional entries of statuses.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
