package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torrentify/internal/config"
	"torrentify/internal/runstats"
	"torrentify/internal/workflow"
)

type cliTestEnv struct {
	base       string
	configPath string
	cacheDir   string
	statePath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"ENABLE_FILMS", "ENABLE_SERIES", "ENABLE_MUSIQUES", "PARALLEL_JOBS", "TRACKERS", "TMDB_API_KEY"} {
		t.Setenv(key, "")
	}
	base := t.TempDir()
	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		cacheDir:   filepath.Join(base, "cache_itunes"),
		statePath:  filepath.Join(base, "state"),
	}
	content := fmt.Sprintf(`[paths]
dest_dir = %q
tmdb_cache_dir = %q
itunes_cache_dir = %q
fingerprint_file = %q
state_dir = %q
log_dir = ""

[categories.music]
enabled = true
source_dir = %q

[trackers]
announce = ["https://tracker.example/announce"]

[retag]
journal = false
`,
		filepath.Join(base, "out"),
		filepath.Join(base, "cache_tmdb"),
		env.cacheDir,
		filepath.Join(base, "state", "trackers.sha256"),
		env.statePath,
		filepath.Join(base, "musiques"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "config", "validate", "-c", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Trackers: 1")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigValidateRejectsMissingTrackers(t *testing.T) {
	env := setupCLITestEnv(t)
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	stripped := strings.Replace(string(data), `announce = ["https://tracker.example/announce"]`, "", 1)
	if err := os.WriteFile(env.configPath, []byte(stripped), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = runCLI(t, "config", "validate", "-c", env.configPath)
	if err == nil || !strings.Contains(err.Error(), "trackers.announce") {
		t.Fatalf("expected tracker validation error, got %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.cacheDir, "artist_album.json"), []byte(`{"collectionId": 7}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "cache", "list", "-c", env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "artist_album")

	out, err = runCLI(t, "cache", "show", "--provider", "itunes", "artist_album", "-c", env.configPath)
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, `"collectionId": 7`)

	if _, err := runCLI(t, "cache", "remove", "artist_album", "-c", env.configPath); err == nil {
		t.Fatal("expected remove without --provider to fail")
	}
	out, err = runCLI(t, "cache", "remove", "--provider", "itunes", "artist_album", "-c", env.configPath)
	if err != nil {
		t.Fatalf("cache remove: %v", err)
	}
	requireContains(t, out, "Removed artist_album")

	out, err = runCLI(t, "cache", "clear", "-c", env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared 0 itunes entries")
}

func TestFingerprintShowAndAccept(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, "fingerprint", "show", "-c", env.configPath)
	if err != nil {
		t.Fatalf("fingerprint show: %v", err)
	}
	requireContains(t, out, "(none)")

	out, err = runCLI(t, "fingerprint", "accept", "-c", env.configPath)
	if err != nil {
		t.Fatalf("fingerprint accept: %v", err)
	}
	requireContains(t, out, "Stored digest")

	out, err = runCLI(t, "fingerprint", "accept", "-c", env.configPath)
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	requireContains(t, out, "already current")
}

func TestSelectCategories(t *testing.T) {
	cfg := config.Default()
	cfg.Categories.Films.Enabled = true
	cfg.Categories.Music.Enabled = true

	got, err := selectCategories(&cfg, []string{"Music"})
	if err != nil || len(got) != 1 || got[0] != config.CategoryMusic {
		t.Fatalf("selectCategories = %v, %v", got, err)
	}
	if _, err := selectCategories(&cfg, []string{"anime"}); err == nil {
		t.Fatal("expected unknown category error")
	}
	if _, err := selectCategories(&cfg, []string{"series"}); err == nil {
		t.Fatal("expected error when no requested category is enabled")
	}
	if got, err := selectCategories(&cfg, nil); err != nil || got != nil {
		t.Fatalf("empty selection = %v, %v", got, err)
	}
}

func TestRenderSummary(t *testing.T) {
	stats := runstats.New(config.CategoryNames...)
	stats.AddDiscovered(config.CategoryFilms, 2)
	stats.Processed(config.CategoryFilms)
	stats.Failed(config.CategoryFilms)
	stats.LookupFound(runstats.ProviderTMDB)
	stats.Finish()

	out := renderSummary(workflow.Summary{
		RunID: "run-1",
		Stats: stats.Snapshot(),
		Failures: []workflow.Failure{{
			Category: config.CategoryFilms,
			Item:     "Broken.2001",
			Kind:     "external_tool",
			Err:      errors.New("mkbrr: exit status 1"),
		}},
	}, false)

	requireContains(t, out, "Run summary (with errors)")
	requireContains(t, out, "films")
	requireContains(t, out, "Broken.2001")
	if strings.Contains(out, "\x1b[") {
		t.Fatal("uncolored summary must not contain escape sequences")
	}
	if strings.Contains(out, "series") {
		t.Fatal("categories without items should be omitted")
	}
}

func TestLogsCommandFiltersLastRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torrentify.log")
	content := `{"ts":"2026-10-17T08:00:00Z","level":"info","msg":"old run","run_id":"r1"}
{"ts":"2026-10-17T09:00:00Z","level":"info","msg":"new run","run_id":"r2"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "logs", "--file", path, "--last-run")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "new run")
	if strings.Contains(out, "old run") {
		t.Fatalf("expected only the last run, got:\n%s", out)
	}
}
