package services_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"torrentify/internal/services"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	requireShell(t)
	out, err := services.ExecRunner{}.Run(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("unexpected stdout %q", out)
	}
}

func TestExecRunnerReportsStderr(t *testing.T) {
	requireShell(t)
	_, err := services.ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	requireShell(t)
	runner := services.ExecRunner{Timeout: 50 * time.Millisecond}
	_, err := runner.Run(context.Background(), "sh", "-c", "sleep 5")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestExecRunnerRequiresBinary(t *testing.T) {
	if _, err := (services.ExecRunner{}).Run(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
