package deps

import (
	"context"
	"fmt"
	"strings"

	"torrentify/internal/services"
)

// CheckPythonModule reports whether python can import module.
func CheckPythonModule(ctx context.Context, runner services.CommandRunner, python, module string) Status {
	status := Status{
		Name:        module,
		Command:     strings.TrimSpace(python),
		Description: fmt.Sprintf("Python module %s", module),
		Optional:    true,
	}
	if status.Command == "" {
		status.Detail = "python not configured"
		return status
	}
	if _, err := runner.Run(ctx, status.Command, "-c", "import "+module); err != nil {
		status.Detail = fmt.Sprintf("import %s failed: %v", module, err)
		return status
	}
	status.Available = true
	return status
}
