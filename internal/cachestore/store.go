package cachestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"torrentify/internal/fileutil"
	"torrentify/internal/logging"
)

const (
	fileSuffix = ".json"
	// staleTempAge is how old an orphaned write must be before New removes it.
	staleTempAge = time.Hour
)

// Entry is one cached lookup response.
type Entry struct {
	Key     string
	Value   json.RawMessage
	ModTime time.Time
}

// Decode unmarshals the cached value into v.
func (e Entry) Decode(v any) error {
	return json.Unmarshal(e.Value, v)
}

// Store is a directory of JSON entries. It is safe for concurrent use; writes
// to the same key are last-write-wins.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates the cache root when missing and removes temporary files left
// by writes that were interrupted more than an hour ago.
func New(root string, logger *slog.Logger) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("cache root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	s := &Store{root: root, logger: logging.NewComponentLogger(logger, "cachestore")}
	if removed, err := s.sweepTemp(staleTempAge); err != nil {
		logging.WarnWithContext(s.logger, "cache temp sweep failed", "cache_temp_sweep_failed",
			logging.String("root", root),
			logging.Error(err),
			logging.String(logging.FieldImpact, "orphaned temporary files stay on disk"))
	} else if removed > 0 {
		s.logger.Info("removed orphaned cache temp files", logging.Int("count", removed))
	}
	return s, nil
}

// isTemp matches the names WriteFileAtomic uses for in-flight writes.
func isTemp(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp") && strings.Contains(name, fileSuffix+".")
}

// sweepTemp removes in-flight write files older than maxAge; zero removes all.
func (s *Store) sweepTemp(maxAge time.Duration) (int, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read cache root: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, de := range dirEntries {
		if de.IsDir() || !isTemp(de.Name()) {
			continue
		}
		if maxAge > 0 {
			info, err := de.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
		}
		if err := fileutil.RemoveIfExists(filepath.Join(s.root, de.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+fileSuffix)
}

// Get returns the entry for key. Missing, unreadable, or unparsable files are
// misses; the latter two are deleted first.
func (s *Store) Get(key string) (Entry, bool) {
	if !validKey(key) {
		return Entry{}, false
	}
	path := s.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.heal(key, path, err)
		}
		return Entry{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.heal(key, path, err)
		return Entry{}, false
	}
	if !json.Valid(data) {
		s.heal(key, path, errors.New("invalid json"))
		return Entry{}, false
	}
	return Entry{Key: key, Value: json.RawMessage(data), ModTime: info.ModTime()}, true
}

// Put stores value under key. Raw JSON values are re-indented; anything else
// is marshalled.
func (s *Store) Put(key string, value any) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	var data []byte
	var err error
	if raw, ok := value.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return fmt.Errorf("cache %s: value is not valid json", key)
		}
		data, err = indentRaw(raw)
	} else {
		data, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := fileutil.WriteFileAtomic(s.Path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	s.logger.Debug("cache entry stored", logging.String("key", key), logging.Int("bytes", len(data)))
	return nil
}

// Remove deletes the entry for key.
func (s *Store) Remove(key string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	if err := os.Remove(s.Path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cache key %q not found", key)
		}
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// List returns every entry key with its modification time, sorted by key.
// Values are not loaded.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Key: strings.TrimSuffix(name, fileSuffix), ModTime: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Clear removes every entry and any temporary write files, and returns how
// many entries were deleted.
func (s *Store) Clear() (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	if _, err := s.sweepTemp(0); err != nil {
		return 0, fmt.Errorf("remove cache temp files: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if err := fileutil.RemoveIfExists(s.Path(entry.Key)); err != nil {
			return removed, fmt.Errorf("remove cache entry %s: %w", entry.Key, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) heal(key, path string, cause error) {
	removeErr := fileutil.RemoveIfExists(path)
	attrs := []logging.Attr{
		logging.String("key", key),
		logging.String("path", path),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "entry deleted; the next lookup recreates it"),
		logging.String(logging.FieldImpact, "lookup repeated for this key"),
	}
	if removeErr != nil {
		attrs = append(attrs, logging.String("remove_error", removeErr.Error()))
	}
	logging.WarnWithContext(s.logger, "corrupt cache entry removed", "cache_entry_corrupt", attrs...)
}

func validKey(key string) bool {
	if strings.TrimSpace(key) == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}

func indentRaw(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}
