package retagjournal_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"torrentify/internal/retagjournal"
)

func openJournal(t *testing.T, path string) *retagjournal.Journal {
	t.Helper()
	j, err := retagjournal.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndCompleted(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, filepath.Join(t.TempDir(), "state", "retag.db"))

	for _, p := range []string{"/out/b.torrent", "/out/a.torrent", "/out/a.torrent"} {
		if err := j.Record(ctx, "digest-1", p); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := j.Record(ctx, "digest-0", "/out/old.torrent"); err != nil {
		t.Fatal(err)
	}

	done, err := j.Completed(ctx, "digest-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 2 {
		t.Fatalf("completed = %v, want 2 entries", done)
	}
	if _, ok := done["/out/a.torrent"]; !ok {
		t.Fatal("expected a.torrent recorded")
	}
	if n, _ := j.Count(ctx, "digest-0"); n != 1 {
		t.Fatalf("count digest-0 = %d", n)
	}

	if err := j.Prune(ctx, "digest-1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := j.Count(ctx, "digest-0"); n != 0 {
		t.Fatalf("expected prune to drop digest-0, count = %d", n)
	}

	if err := j.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := j.Count(ctx, "digest-1"); n != 0 {
		t.Fatalf("expected empty after reset, count = %d", n)
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "retag.db")

	j, err := retagjournal.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(ctx, "d", "/x.torrent"); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := openJournal(t, path)
	done, err := reopened.Completed(ctx, "d")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := done["/x.torrent"]; !ok {
		t.Fatal("expected record to persist across reopen")
	}
}

func TestConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t, filepath.Join(t.TempDir(), "retag.db"))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- j.Record(ctx, "d", fmt.Sprintf("/out/%02d.torrent", n))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if n, _ := j.Count(ctx, "d"); n != 20 {
		t.Fatalf("count = %d, want 20", n)
	}
}

func TestSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "retag.db")
	j, err := retagjournal.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	_ = j.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := retagjournal.Open(ctx, path); !errors.Is(err, retagjournal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
