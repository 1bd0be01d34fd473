package release_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"torrentify/internal/discovery"
	"torrentify/internal/identification"
	"torrentify/internal/release"
	"torrentify/internal/runstats"
)

type fakeInspector struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeInspector) Inspect(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "General\nComplete name : " + filepath.Base(path), nil
}

type fakeCreator struct {
	mu      sync.Mutex
	calls   int
	outputs []string
	err     error
}

func (f *fakeCreator) Create(_ context.Context, _, output string, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.outputs = append(f.outputs, output)
	if f.err != nil {
		_ = os.WriteFile(output, []byte("half"), 0o644)
		return f.err
	}
	return os.WriteFile(output, []byte("d8:announce0:e"), 0o644)
}

type fakeResolver struct {
	mu     sync.Mutex
	calls  int
	tag    string
	found  bool
	cached map[string]bool
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, item discovery.Item) (identification.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return identification.Result{}, f.err
	}
	if f.found {
		if f.cached == nil {
			f.cached = map[string]bool{}
		}
		f.cached[item.Name] = true
	}
	return identification.Result{Tag: f.tag, Found: f.found, Provider: runstats.ProviderTMDB}, nil
}

func (f *fakeResolver) TagCurrent(_ context.Context, item discovery.Item, tag string) (bool, error) {
	if tag == identification.TMDBNotFound {
		return true, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached[item.Name], nil
}

type fixture struct {
	inspector *fakeInspector
	creator   *fakeCreator
	resolver  *fakeResolver
	stats     *runstats.Stats
	processor *release.Processor
}

func newFixture(t *testing.T, partial map[string][]string) *fixture {
	t.Helper()
	f := &fixture{
		inspector: &fakeInspector{},
		creator:   &fakeCreator{},
		resolver:  &fakeResolver{tag: "ID TMDB : 42", found: true},
		stats:     runstats.New("films", "music"),
	}
	processor, err := release.NewProcessor(release.Options{
		Inspector:         f.inspector,
		Creator:           f.creator,
		Resolver:          f.resolver,
		Trackers:          []string{"https://t/announce"},
		PartialExtensions: partial,
		Stats:             f.stats,
		Now:               func() time.Time { return time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	f.processor = processor
	return f
}

func fileItem(t *testing.T, out string) discovery.Item {
	t.Helper()
	src := filepath.Join(t.TempDir(), "Movie 2020.mkv")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return discovery.Item{
		Name:      "Movie.2020",
		Category:  "films",
		Kind:      discovery.KindFile,
		Sources:   []string{src},
		Root:      src,
		Reference: src,
		OutputDir: filepath.Join(out, "Movie.2020"),
	}
}

func TestProcessWritesAllArtifacts(t *testing.T) {
	f := newFixture(t, nil)
	item := fileItem(t, t.TempDir())

	outcome, err := f.processor.Process(context.Background(), item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome != release.Processed {
		t.Fatalf("outcome = %s", outcome)
	}
	a := release.ArtifactsFor(item)
	nfo, err := os.ReadFile(a.NFO)
	if err != nil {
		t.Fatalf("read nfo: %v", err)
	}
	for _, want := range []string{"Release Name : Movie.2020", "Added On    : 2024-03-01 10:20:30", "Complete name : Movie 2020.mkv", "Generated by torrentify"} {
		if !strings.Contains(string(nfo), want) {
			t.Fatalf("nfo missing %q:\n%s", want, nfo)
		}
	}
	if _, err := os.Stat(a.Package); err != nil {
		t.Fatalf("package missing: %v", err)
	}
	if _, err := os.Stat(a.PartialPackage()); !os.IsNotExist(err) {
		t.Fatalf("partial package left behind: %v", err)
	}
	tag, _ := os.ReadFile(a.Tag)
	if string(tag) != "ID TMDB : 42" {
		t.Fatalf("tag = %q", tag)
	}
	if f.stats.Snapshot().TMDB.Found != 1 {
		t.Fatalf("expected one found lookup, got %+v", f.stats.Snapshot().TMDB)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	item := fileItem(t, t.TempDir())
	ctx := context.Background()

	if _, err := f.processor.Process(ctx, item); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	a := release.ArtifactsFor(item)
	before, _ := os.ReadFile(a.NFO)

	outcome, err := f.processor.Process(ctx, item)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if outcome != release.Skipped {
		t.Fatalf("expected skipped, got %s", outcome)
	}
	if f.inspector.calls != 1 || f.creator.calls != 1 || f.resolver.calls != 1 {
		t.Fatalf("collaborators re-invoked: inspect=%d create=%d resolve=%d", f.inspector.calls, f.creator.calls, f.resolver.calls)
	}
	after, _ := os.ReadFile(a.NFO)
	if string(before) != string(after) {
		t.Fatal("nfo changed on second run")
	}
}

func TestProcessResumesOnlyMissingStages(t *testing.T) {
	f := newFixture(t, nil)
	item := fileItem(t, t.TempDir())
	ctx := context.Background()
	if _, err := f.processor.Process(ctx, item); err != nil {
		t.Fatalf("Process: %v", err)
	}
	a := release.ArtifactsFor(item)
	if err := os.Remove(a.Package); err != nil {
		t.Fatalf("remove package: %v", err)
	}

	outcome, err := f.processor.Process(ctx, item)
	if err != nil || outcome != release.Processed {
		t.Fatalf("resume = %s, %v", outcome, err)
	}
	if f.inspector.calls != 1 || f.creator.calls != 2 || f.resolver.calls != 1 {
		t.Fatalf("unexpected calls: inspect=%d create=%d resolve=%d", f.inspector.calls, f.creator.calls, f.resolver.calls)
	}
}

func TestStatusLookupRequiresCacheUnlessSentinel(t *testing.T) {
	f := newFixture(t, nil)
	item := fileItem(t, t.TempDir())
	ctx := context.Background()
	a := release.ArtifactsFor(item)
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(a.Tag, []byte("ID TMDB : 42"), 0o644); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	status, err := f.processor.Status(ctx, item)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Lookup != release.Pending {
		t.Fatal("positive tag without cache entry must be pending")
	}
	if got := status.Pending(); len(got) != 3 {
		t.Fatalf("expected all stages pending, got %v", got)
	}

	if err := os.WriteFile(a.Tag, []byte(identification.TMDBNotFound+"\n"), 0o644); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}
	status, _ = f.processor.Status(ctx, item)
	if status.Lookup != release.Done {
		t.Fatal("sentinel tag must count as done")
	}
}

func TestProcessStageFailureStopsItem(t *testing.T) {
	f := newFixture(t, nil)
	f.creator.err = errors.New("mkbrr exited 1")
	item := fileItem(t, t.TempDir())

	if _, err := f.processor.Process(context.Background(), item); err == nil {
		t.Fatal("expected package failure")
	}
	a := release.ArtifactsFor(item)
	if _, err := os.Stat(a.NFO); err != nil {
		t.Fatalf("completed metadata stage should be kept: %v", err)
	}
	for _, path := range []string{a.Package, a.PartialPackage(), a.Tag} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist: %v", filepath.Base(path), err)
		}
	}
	if f.resolver.calls != 0 {
		t.Fatal("lookup must not run after a failed stage")
	}
}

func TestProcessRemovesStalePartialPackage(t *testing.T) {
	f := newFixture(t, nil)
	item := fileItem(t, t.TempDir())
	a := release.ArtifactsFor(item)
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(a.PartialPackage(), []byte("stale"), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	if _, err := f.processor.Process(context.Background(), item); err != nil {
		t.Fatalf("Process: %v", err)
	}
	data, _ := os.ReadFile(a.Package)
	if string(data) == "stale" {
		t.Fatal("stale partial package was promoted")
	}
}

func TestProcessLookupTransportErrorLeavesTagAbsent(t *testing.T) {
	f := newFixture(t, nil)
	f.resolver.err = errors.New("connection refused")
	item := fileItem(t, t.TempDir())

	if _, err := f.processor.Process(context.Background(), item); err == nil {
		t.Fatal("expected lookup failure")
	}
	if _, err := os.Stat(release.ArtifactsFor(item).Tag); !os.IsNotExist(err) {
		t.Fatalf("tag must not be written on transport failure: %v", err)
	}
}

func TestProcessNotFoundWritesSentinel(t *testing.T) {
	f := newFixture(t, nil)
	f.resolver.tag, f.resolver.found = identification.TMDBNotFound, false
	item := fileItem(t, t.TempDir())

	if _, err := f.processor.Process(context.Background(), item); err != nil {
		t.Fatalf("Process: %v", err)
	}
	tag, _ := os.ReadFile(release.ArtifactsFor(item).Tag)
	if string(tag) != identification.TMDBNotFound {
		t.Fatalf("tag = %q", tag)
	}
	if f.stats.Snapshot().TMDB.Missing != 1 {
		t.Fatal("expected a missing lookup")
	}
	outcome, _ := f.processor.Process(context.Background(), item)
	if outcome != release.Skipped {
		t.Fatalf("sentinel item should be skipped next run, got %s", outcome)
	}
}

func TestProcessDefersPartialFolders(t *testing.T) {
	f := newFixture(t, map[string][]string{"music": {"part", "tmp"}})
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "01.flac"), []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "02.flac.part"), []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := t.TempDir()
	item := discovery.Item{
		Name: "Album", Category: "music", Kind: discovery.KindFolder,
		Root: src, Reference: filepath.Join(src, "01.flac"), OutputDir: filepath.Join(out, "Album"),
	}

	outcome, err := f.processor.Process(context.Background(), item)
	if err != nil || outcome != release.Deferred {
		t.Fatalf("expected deferred, got %s, %v", outcome, err)
	}
	if _, err := os.Stat(filepath.Join(out, "Album")); !os.IsNotExist(err) {
		t.Fatal("deferred item must not create its output directory")
	}

	film := item
	film.Category = "films"
	if outcome, _ := f.processor.Process(context.Background(), film); outcome != release.Processed {
		t.Fatalf("categories without guard are not deferred, got %s", outcome)
	}
}

func TestProcessEmptyFolder(t *testing.T) {
	f := newFixture(t, nil)
	item := discovery.Item{Name: "Empty", Category: "films", Kind: discovery.KindFolder, Root: t.TempDir(), OutputDir: filepath.Join(t.TempDir(), "Empty")}
	outcome, err := f.processor.Process(context.Background(), item)
	if err != nil || outcome != release.Empty {
		t.Fatalf("expected empty, got %s, %v", outcome, err)
	}
}

func TestNewProcessorValidates(t *testing.T) {
	if _, err := release.NewProcessor(release.Options{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
	_, err := release.NewProcessor(release.Options{Inspector: &fakeInspector{}, Creator: &fakeCreator{}, Resolver: &fakeResolver{}})
	if err == nil {
		t.Fatal("expected error for missing trackers")
	}
}

func TestFormatNFO(t *testing.T) {
	got := release.FormatNFO("Name", time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600)), "\nReport\n")
	want := strings.Join([]string{
		"============================================================",
		"Release Name : Name",
		"Added On    : 2024-01-02 02:04:05",
		"============================================================",
		"",
		"Report",
		"",
		"============================================================",
		"Generated by torrentify",
		"============================================================",
	}, "\n")
	if got != want {
		t.Fatalf("FormatNFO =\n%s\nwant\n%s", got, want)
	}
}
