package runstats

import (
	"sync"
	"testing"
	"time"
)

func TestConcurrentIncrements(t *testing.T) {
	stats := New("films", "music")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			switch n % 5 {
			case 0:
				stats.Processed("films")
				stats.LookupFound(ProviderTMDB)
			case 1:
				stats.Skipped("films")
			case 2:
				stats.Failed("music")
			case 3:
				stats.Deferred("music")
			case 4:
				stats.Processed("music")
				stats.LookupMissing(ProviderITunes)
			}
		}(i)
	}
	wg.Wait()
	stats.Finish()

	snap := stats.Snapshot()
	if snap.Processed != 20 || snap.Skipped != 10 || snap.Failed != 10 || snap.Deferred != 10 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if snap.TMDB.Found != 10 || snap.ITunes.Missing != 10 {
		t.Fatalf("unexpected lookups: tmdb=%+v itunes=%+v", snap.TMDB, snap.ITunes)
	}
	if len(snap.Categories) != 2 || snap.Categories[0].Name != "films" {
		t.Fatalf("unexpected categories: %+v", snap.Categories)
	}
	if snap.Categories[0].Processed != 10 || snap.Categories[1].Processed != 10 || snap.Categories[1].Failed != 10 {
		t.Fatalf("unexpected category counters: %+v", snap.Categories)
	}
}

func TestUnknownCategoryOnlyCountsTotals(t *testing.T) {
	stats := New("films")
	stats.Processed("series")
	stats.LookupFound("other")
	snap := stats.Snapshot()
	if snap.Processed != 1 || snap.Categories[0].Processed != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestFinishKeepsFirstStamp(t *testing.T) {
	stats := New()
	stats.Finish()
	first := stats.Snapshot().Ended
	time.Sleep(2 * time.Millisecond)
	stats.Finish()
	if !stats.Snapshot().Ended.Equal(first) {
		t.Fatal("expected Finish to be idempotent")
	}
}

func TestRetagAndChanged(t *testing.T) {
	stats := New()
	if stats.Snapshot().Changed() {
		t.Fatal("fresh stats should be unchanged")
	}
	stats.RetagStarted(3)
	stats.RetagUpdated()
	stats.RetagResumed()
	stats.RetagFailed()
	snap := stats.Snapshot()
	if !snap.Retag.Triggered || snap.Retag.Scanned != 3 || snap.Retag.Updated != 1 || snap.Retag.Resumed != 1 || snap.Retag.Failed != 1 {
		t.Fatalf("unexpected retag snapshot: %+v", snap.Retag)
	}
	if !snap.Changed() {
		t.Fatal("expected retag activity to count as change")
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(3723 * time.Second); got != "1h 2m 3s" {
		t.Fatalf("FormatDuration = %q", got)
	}
	if got := FormatDuration(-time.Second); got != "0h 0m 0s" {
		t.Fatalf("FormatDuration negative = %q", got)
	}
}
