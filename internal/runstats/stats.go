package runstats

import (
	"sync/atomic"
	"time"
)

// Provider names used for lookup counters.
const (
	ProviderTMDB   = "tmdb"
	ProviderITunes = "itunes"
)

type categoryCounters struct {
	discovered atomic.Int64
	processed  atomic.Int64
	skipped    atomic.Int64
	deferred   atomic.Int64
	empty      atomic.Int64
	failed     atomic.Int64
}

type lookupCounters struct {
	found   atomic.Int64
	missing atomic.Int64
}

// Stats holds the counters of one run. The zero value is not usable; call New.
type Stats struct {
	started time.Time
	ended   atomic.Pointer[time.Time]

	processed atomic.Int64
	skipped   atomic.Int64
	deferred  atomic.Int64
	empty     atomic.Int64
	failed    atomic.Int64

	retagTriggered atomic.Bool
	retagScanned   atomic.Int64
	retagUpdated   atomic.Int64
	retagFailed    atomic.Int64
	retagResumed   atomic.Int64

	lookups    map[string]*lookupCounters
	categories map[string]*categoryCounters
	order      []string
}

// New creates a Stats with counters for the given categories.
func New(categories ...string) *Stats {
	s := &Stats{
		started:    time.Now(),
		lookups:    map[string]*lookupCounters{ProviderTMDB: {}, ProviderITunes: {}},
		categories: make(map[string]*categoryCounters, len(categories)),
	}
	for _, name := range categories {
		if _, ok := s.categories[name]; ok {
			continue
		}
		s.categories[name] = &categoryCounters{}
		s.order = append(s.order, name)
	}
	return s
}

func (s *Stats) category(name string) *categoryCounters {
	return s.categories[name]
}

// AddDiscovered records items found by discovery.
func (s *Stats) AddDiscovered(category string, n int) {
	if c := s.category(category); c != nil {
		c.discovered.Add(int64(n))
	}
}

// Processed records an item whose pipeline produced at least one artifact.
func (s *Stats) Processed(category string) {
	s.processed.Add(1)
	if c := s.category(category); c != nil {
		c.processed.Add(1)
	}
}

// Skipped records an item whose artifacts were all present.
func (s *Stats) Skipped(category string) {
	s.skipped.Add(1)
	if c := s.category(category); c != nil {
		c.skipped.Add(1)
	}
}

// Deferred records an item postponed by the partial-content guard.
func (s *Stats) Deferred(category string) {
	s.deferred.Add(1)
	if c := s.category(category); c != nil {
		c.deferred.Add(1)
	}
}

// Empty records an item without a usable media file.
func (s *Stats) Empty(category string) {
	s.empty.Add(1)
	if c := s.category(category); c != nil {
		c.empty.Add(1)
	}
}

// Failed records an item whose pipeline stopped on an error.
func (s *Stats) Failed(category string) {
	s.failed.Add(1)
	if c := s.category(category); c != nil {
		c.failed.Add(1)
	}
}

// LookupFound records a positive lookup for provider.
func (s *Stats) LookupFound(provider string) {
	if l := s.lookups[provider]; l != nil {
		l.found.Add(1)
	}
}

// LookupMissing records a not-found sentinel for provider.
func (s *Stats) LookupMissing(provider string) {
	if l := s.lookups[provider]; l != nil {
		l.missing.Add(1)
	}
}

// RetagStarted marks that a tracker change triggered a sweep over scanned artifacts.
func (s *Stats) RetagStarted(scanned int) {
	s.retagTriggered.Store(true)
	s.retagScanned.Add(int64(scanned))
}

// RetagUpdated records a package whose trackers were replaced.
func (s *Stats) RetagUpdated() { s.retagUpdated.Add(1) }

// RetagFailed records a package whose update failed.
func (s *Stats) RetagFailed() { s.retagFailed.Add(1) }

// RetagResumed records a package skipped because the journal already holds it.
func (s *Stats) RetagResumed() { s.retagResumed.Add(1) }

// Finish stamps the end time. Later calls keep the first stamp.
func (s *Stats) Finish() {
	now := time.Now()
	s.ended.CompareAndSwap(nil, &now)
}

// CategorySnapshot is the per-category part of a Snapshot.
type CategorySnapshot struct {
	Name       string
	Discovered int64
	Processed  int64
	Skipped    int64
	Deferred   int64
	Empty      int64
	Failed     int64
}

// LookupSnapshot holds the lookup counters of one provider.
type LookupSnapshot struct {
	Found   int64
	Missing int64
}

// RetagSnapshot holds the sweep counters.
type RetagSnapshot struct {
	Triggered bool
	Scanned   int64
	Updated   int64
	Failed    int64
	Resumed   int64
}

// Snapshot is a plain copy of the counters.
type Snapshot struct {
	Started    time.Time
	Ended      time.Time
	Duration   time.Duration
	Processed  int64
	Skipped    int64
	Deferred   int64
	Empty      int64
	Failed     int64
	TMDB       LookupSnapshot
	ITunes     LookupSnapshot
	Retag      RetagSnapshot
	Categories []CategorySnapshot
}

// Snapshot copies the current counters. Duration runs to now until Finish.
func (s *Stats) Snapshot() Snapshot {
	end := time.Now()
	if p := s.ended.Load(); p != nil {
		end = *p
	}
	snap := Snapshot{
		Started:   s.started,
		Ended:     end,
		Duration:  end.Sub(s.started),
		Processed: s.processed.Load(),
		Skipped:   s.skipped.Load(),
		Deferred:  s.deferred.Load(),
		Empty:     s.empty.Load(),
		Failed:    s.failed.Load(),
		TMDB:      s.lookups[ProviderTMDB].snapshot(),
		ITunes:    s.lookups[ProviderITunes].snapshot(),
		Retag: RetagSnapshot{
			Triggered: s.retagTriggered.Load(),
			Scanned:   s.retagScanned.Load(),
			Updated:   s.retagUpdated.Load(),
			Failed:    s.retagFailed.Load(),
			Resumed:   s.retagResumed.Load(),
		},
	}
	for _, name := range s.order {
		c := s.categories[name]
		snap.Categories = append(snap.Categories, CategorySnapshot{
			Name:       name,
			Discovered: c.discovered.Load(),
			Processed:  c.processed.Load(),
			Skipped:    c.skipped.Load(),
			Deferred:   c.deferred.Load(),
			Empty:      c.empty.Load(),
			Failed:     c.failed.Load(),
		})
	}
	return snap
}

func (l *lookupCounters) snapshot() LookupSnapshot {
	return LookupSnapshot{Found: l.found.Load(), Missing: l.missing.Load()}
}

// Changed reports whether the run produced, retagged, or failed anything.
func (s Snapshot) Changed() bool {
	return s.Processed > 0 || s.Failed > 0 || s.Retag.Updated > 0 || s.Retag.Failed > 0
}
