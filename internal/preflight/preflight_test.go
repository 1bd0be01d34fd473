package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"torrentify/internal/config"
	"torrentify/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_MissingButCreatable(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSourceDirectory_MissingIsOptional(t *testing.T) {
	result := CheckSourceDirectory("source", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || !result.Optional {
		t.Fatalf("expected optional failure, got %#v", result)
	}
	if len(Failed([]Result{result})) != 0 {
		t.Fatal("optional failures must not count as failed")
	}
}

func TestCheckTMDB_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" || r.URL.Query().Get("api_key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckTMDB(context.Background(), srv.URL, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckTMDB_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckTMDB(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckTMDB_MissingKey(t *testing.T) {
	result := CheckTMDB(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoryChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithCategory(config.CategoryFilms, "mkv"),
	)
	cfg.Tools.Guessit = false

	results := RunAll(context.Background(), cfg, Options{})
	// mediainfo, mkbrr, films source, output, state
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %#v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}
}

func TestRunAll_MissingBinaryFails(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("mediainfo"),
		testsupport.WithCategory(config.CategoryMusic, "flac"),
	)
	cfg.Tools.Mkbrr = filepath.Join(testsupport.BaseDir(cfg), "missing-mkbrr")
	cfg.Tools.Guessit = false

	failed := Failed(RunAll(context.Background(), cfg, Options{}))
	if len(failed) != 1 || failed[0].Name != "mkbrr" {
		t.Fatalf("expected only mkbrr to fail, got %#v", failed)
	}
}
