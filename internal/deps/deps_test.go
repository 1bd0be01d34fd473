package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torrentify/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %s", results[2].Detail)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.Guessit = false
	if got := len(Requirements(&cfg)); got != 2 {
		t.Fatalf("expected 2 requirements without guessit, got %d", got)
	}
	cfg.Tools.Guessit = true
	reqs := Requirements(&cfg)
	if len(reqs) != 3 || !reqs[2].Optional || reqs[2].Command != "python3" {
		t.Fatalf("unexpected requirements: %#v", reqs)
	}
}

func TestMissingRequiredIgnoresOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0].Name != "c" {
		t.Fatalf("unexpected missing list: %#v", missing)
	}
}

type stubRunner struct {
	args []string
	err  error
}

func (s *stubRunner) Run(_ context.Context, binary string, args ...string) ([]byte, error) {
	s.args = append([]string{binary}, args...)
	return nil, s.err
}

func TestCheckPythonModule(t *testing.T) {
	runner := &stubRunner{}
	status := CheckPythonModule(context.Background(), runner, "python3", "guessit")
	if !status.Available {
		t.Fatalf("expected module available, got %#v", status)
	}
	if strings.Join(runner.args, " ") != "python3 -c import guessit" {
		t.Fatalf("unexpected invocation: %v", runner.args)
	}

	runner.err = errors.New("ModuleNotFoundError")
	status = CheckPythonModule(context.Background(), runner, "python3", "guessit")
	if status.Available || !strings.Contains(status.Detail, "ModuleNotFoundError") {
		t.Fatalf("expected failure detail, got %#v", status)
	}
}
