package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"torrentify/internal/logs"
)

const sample = `{"ts":"2026-10-17T08:00:00Z","level":"info","msg":"run started","component":"workflow","run_id":"r1"}
not json
{"ts":"2026-10-17T08:00:01Z","level":"error","msg":"item failed","component":"workflow","run_id":"r1","category":"films","item":"Broken.2001","error_kind":"external_tool"}
{"ts":"2026-10-17T08:00:02Z","level":"debug","msg":"stage completed","component":"release","run_id":"r1","category":"films","item":"Inception.2010"}
{"ts":"2026-10-17T09:00:00Z","level":"info","msg":"run started","component":"workflow","run_id":"r2"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "torrentify.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastRecords(t *testing.T) {
	path := writeLog(t, sample)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %#v", result.Records)
	}
	if result.Records[0].Message != "item failed" || result.Records[1].RunID != "r2" {
		t.Fatalf("unexpected records: %#v", result.Records)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestTailFilters(t *testing.T) {
	path := writeLog(t, sample)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{
		Offset: -1,
		Limit:  10,
		Filter: logs.Filter{RunID: "r1", Category: "FILMS", MinLevel: "debug"},
	})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected both film records, got %#v", result.Records)
	}

	result, err = logs.Tail(context.Background(), path, logs.TailOptions{
		Offset: 0,
		Filter: logs.Filter{MinLevel: "warn"},
	})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Item != "Broken.2001" {
		t.Fatalf("expected only the error record, got %#v", result.Records)
	}
}

func TestLastRunID(t *testing.T) {
	path := writeLog(t, sample)
	id, err := logs.LastRunID(path)
	if err != nil {
		t.Fatalf("LastRunID: %v", err)
	}
	if id != "r2" {
		t.Fatalf("LastRunID = %q", id)
	}

	id, err = logs.LastRunID(filepath.Join(t.TempDir(), "missing.log"))
	if err != nil || id != "" {
		t.Fatalf("missing file: %q %v", id, err)
	}
}

func TestRecordFormat(t *testing.T) {
	rec, ok := logs.ParseRecord(`{"ts":"2026-10-17T08:00:01Z","level":"error","msg":"item failed","component":"workflow","category":"films","item":"Broken.2001","error_kind":"external_tool"}`)
	if !ok {
		t.Fatal("expected record to parse")
	}
	line := rec.Format()
	for _, want := range []string{"ERROR", "[workflow]", "films/Broken.2001:", "item failed", "error_kind=external_tool"} {
		if !strings.Contains(line, want) {
			t.Fatalf("formatted line %q missing %q", line, want)
		}
	}
	if _, ok := logs.ParseRecord("plain text"); ok {
		t.Fatal("plain text must not parse")
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, sample)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Records) != 1 || res.Records[0].Message != "later" {
			t.Errorf("unexpected follow records: %#v", res.Records)
		}
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString(`{"ts":"2026-10-17T09:00:05Z","level":"info","msg":"later"}` + "\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}
