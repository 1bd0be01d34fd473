package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner abstracts blocking process execution so tool adapters can be
// exercised with stubs.
type CommandRunner interface {
	Run(ctx context.Context, binary string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec, capturing stdout and stderr.
// A positive Timeout bounds each invocation.
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes binary with args and returns its stdout. Non-zero exits are
// reported with the trimmed stderr output.
func (r ExecRunner) Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("command binary required")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s exceeded %s", ErrTimeout, binary, r.Timeout)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return nil, fmt.Errorf("%s: %w: %s", binary, err, detail)
		}
		return nil, fmt.Errorf("%s: %w", binary, err)
	}
	return stdout.Bytes(), nil
}
