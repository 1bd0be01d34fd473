package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"torrentify/internal/discovery"
	"torrentify/internal/logging"
)

// PartialSuffix ends every in-progress package name.
const PartialSuffix = ".partial." + discovery.PackageExtension

// CleanResult contains the outcome of a cleanup pass.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// IsPartial reports whether name is an in-progress package file name.
func IsPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, PartialSuffix)
}

// CleanStale removes partial packages under roots older than maxAge. Missing
// roots are ignored.
func CleanStale(ctx context.Context, roots []string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	if logger == nil {
		logger = logging.NewNop()
	}
	cutoff := time.Now().Add(-maxAge)
	seen := make(map[string]struct{})

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() || !IsPartial(d.Name()) {
				return nil
			}
			if _, ok := seen[path]; ok {
				return nil
			}
			seen[path] = struct{}{}

			info, err := d.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				return nil
			}
			if !info.ModTime().Before(cutoff) {
				return nil
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logging.WarnWithContext(logger, "failed to remove stale partial package", "partial_cleanup_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check output directory permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"))
				return nil
			}
			result.Removed = append(result.Removed, path)
			logger.Info("removed stale partial package",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "partial_cleanup"))
			return nil
		})
		if err != nil && ctx.Err() != nil {
			return result
		}
	}
	return result
}
