// Package deps reports the availability of the external tools exifpipe
// shells out to. The engine has exactly one: exiftool itself.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// versionCommand builds the process used to probe the exiftool version.
// Overridable in tests.
var versionCommand = exec.Command

// Status reports the availability of the exiftool dependency.
type Status struct {
	Name      string
	Command   string
	Available bool
	Detail    string
}

// CheckExifTool verifies the configured exiftool binary exists on PATH and
// responds to a version probe. The detected version is reported in Detail;
// Command is rewritten to the resolved absolute path on success.
func CheckExifTool(binary string) Status {
	status := Status{
		Name:    "ExifTool",
		Command: strings.TrimSpace(binary),
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}

	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Command = resolved

	output, err := versionCommand(resolved, "-ver").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status
	}
	version := strings.TrimSpace(string(output))
	if version == "" {
		status.Detail = "version probe returned no output"
		return status
	}

	status.Available = true
	status.Detail = "version " + version
	return status
}
