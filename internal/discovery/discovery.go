package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"torrentify/internal/logging"
	"torrentify/internal/textutil"
)

// Kind distinguishes single files from folders.
type Kind string

const (
	KindFile   Kind = "single_file"
	KindFolder Kind = "folder"
)

// Layout selects how a source directory maps to items.
type Layout int

const (
	// LayoutFiles yields one item per media file found recursively.
	LayoutFiles Layout = iota
	// LayoutEntries yields one item per top-level media file or folder.
	LayoutEntries
)

// PackageExtension is the extension of package artifacts.
const PackageExtension = "torrent"

// Item is one unit of work. It is immutable after discovery.
type Item struct {
	Name     string
	Category string
	Kind     Kind
	// Sources lists the media files of the item, sorted.
	Sources []string
	// Root is the path handed to the package creator.
	Root string
	// Reference is the file used for inspection and guessing; empty when a
	// folder holds no media file.
	Reference string
	OutputDir string
}

// Options configures Discover.
type Options struct {
	Category   string
	SourceDir  string
	DestDir    string
	Extensions []string
	Layout     Layout
	Logger     *slog.Logger
}

// Discover lists the items of one category. A missing source directory yields
// no items and no error. Items whose release name is already taken by an
// earlier item are dropped with a warning, so every item owns its output
// directory.
func Discover(opts Options) ([]Item, error) {
	items, err := discover(opts)
	if err != nil {
		return nil, err
	}
	return uniqueNames(items, opts.Logger), nil
}

func discover(opts Options) ([]Item, error) {
	if _, err := os.Stat(opts.SourceDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat source %s: %w", opts.SourceDir, err)
	}
	switch opts.Layout {
	case LayoutFiles:
		files, err := FindFiles(opts.SourceDir, opts.Extensions)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(files))
		for _, file := range files {
			items = append(items, fileItem(opts, file))
		}
		return items, nil
	case LayoutEntries:
		return discoverEntries(opts)
	default:
		return nil, fmt.Errorf("unknown layout %d", opts.Layout)
	}
}

func discoverEntries(opts Options) ([]Item, error) {
	entries, err := ListDir(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	exts := extensionSet(opts.Extensions)
	var items []Item
	for _, entry := range entries {
		switch {
		case entry.IsDir:
			files, err := FindFiles(entry.Path, opts.Extensions)
			if err != nil {
				return nil, err
			}
			name := textutil.ReleaseName(entry.Path, false)
			item := Item{
				Name:      name,
				Category:  opts.Category,
				Kind:      KindFolder,
				Sources:   files,
				Root:      entry.Path,
				OutputDir: filepath.Join(opts.DestDir, name),
			}
			if len(files) > 0 {
				item.Reference = files[0]
			}
			items = append(items, item)
		case entry.IsFile && exts.matches(entry.Path):
			items = append(items, fileItem(opts, entry.Path))
		}
	}
	return items, nil
}

func uniqueNames(items []Item, logger *slog.Logger) []Item {
	if len(items) < 2 {
		return items
	}
	owners := make(map[string]string, len(items))
	kept := items[:0]
	for _, item := range items {
		if owner, taken := owners[item.Name]; taken {
			logging.WarnWithContext(logger, "duplicate release name", "duplicate_release_name",
				logging.String(logging.FieldItem, item.Name),
				logging.String("source", item.Root),
				logging.String("kept", owner),
				logging.String(logging.FieldErrorHint, "rename one of the sources so their release names differ"),
				logging.String(logging.FieldImpact, "item skipped"))
			continue
		}
		owners[item.Name] = item.Root
		kept = append(kept, item)
	}
	return kept
}

func fileItem(opts Options, path string) Item {
	name := textutil.ReleaseName(path, true)
	return Item{
		Name:      name,
		Category:  opts.Category,
		Kind:      KindFile,
		Sources:   []string{path},
		Root:      path,
		Reference: path,
		OutputDir: filepath.Join(opts.DestDir, name),
	}
}

// Entry describes one top-level directory entry.
type Entry struct {
	Name   string
	Path   string
	IsFile bool
	IsDir  bool
}

// ListDir returns the non-hidden entries of root sorted by name. Symlinks are
// resolved so linked folders and files behave like their targets.
func ListDir(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		path := filepath.Join(root, de.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:   de.Name(),
			Path:   path,
			IsFile: info.Mode().IsRegular(),
			IsDir:  info.IsDir(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// FindFiles walks root and returns files whose extension is in exts
// (case-insensitive), sorted lexicographically. Hidden entries are skipped.
func FindFiles(root string, exts []string) ([]string, error) {
	set := extensionSet(exts)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasPrefix(d.Name(), ".") && set.matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// HasPartial reports whether root (a folder) contains any file with one of
// the in-progress transfer extensions.
func HasPartial(root string, exts []string) (bool, error) {
	set := extensionSet(exts)
	found := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && set.matches(path) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scan %s for partial files: %w", root, err)
	}
	return found, nil
}

// FindPackages returns every package artifact under roots, deduplicated and
// sorted. Missing roots are ignored.
func FindPackages(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var packages []string
	for _, root := range roots {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		files, err := FindFiles(root, []string{PackageExtension})
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			clean := filepath.Clean(file)
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			packages = append(packages, clean)
		}
	}
	sort.Strings(packages)
	return packages, nil
}

type extSet map[string]struct{}

func extensionSet(exts []string) extSet {
	set := make(extSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

func (s extSet) matches(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := s[ext]
	return ok
}
