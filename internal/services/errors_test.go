package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"torrentify/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "package", "mkbrr create", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"package", "mkbrr create", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := map[string]error{
		"":              nil,
		"configuration": services.Wrap(services.ErrConfiguration, "config", "", "missing trackers", nil),
		"external_tool": fmt.Errorf("outer: %w", services.Wrap(services.ErrExternalTool, "metadata", "mediainfo", "", nil)),
		"not_found":     services.ErrNotFound,
		"transient":     errors.New("io"),
		"timeout":       services.Wrap(services.ErrTimeout, "lookup", "tmdb search", "", context.DeadlineExceeded),
	}
	for want, err := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
