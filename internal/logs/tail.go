package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions controls Tail. A negative Offset reads the last Limit matching
// records; otherwise reading starts at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult carries the records read and the offset to resume from.
type TailResult struct {
	Records []Record
	Offset  int64
}

// Tail reads records from the log file at path. A missing file yields no
// records and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		records, offset, err := readLast(path, opts.Limit, opts.Filter)
		if err != nil {
			return result, err
		}
		result.Records = records
		result.Offset = offset
		if opts.Follow && opts.Wait > 0 && len(records) == 0 {
			return waitForRecords(ctx, path, offset, opts.Wait, opts.Filter)
		}
		return result, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// Truncated or rotated file.
		offset = 0
	}
	records, newOffset, err := readForward(path, offset, opts.Filter)
	if err != nil {
		return result, err
	}
	result.Records = records
	result.Offset = newOffset
	if opts.Follow && opts.Wait > 0 && len(records) == 0 {
		return waitForRecords(ctx, path, newOffset, opts.Wait, opts.Filter)
	}
	return result, nil
}

// LastRunID returns the run id of the most recent record that carries one.
func LastRunID(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	var last string
	err = scan(file, func(rec Record) {
		if rec.RunID != "" {
			last = rec.RunID
		}
	})
	return last, err
}

func readLast(path string, limit int, filter Filter) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		size, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, size, nil
	}

	ring := make([]Record, limit)
	count, idx := 0, 0
	err = scan(file, func(rec Record) {
		if !filter.Match(rec) {
			return
		}
		ring[idx] = rec
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	records := make([]Record, count)
	if count == limit {
		for i := 0; i < count; i++ {
			records[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(records, ring[:count])
	}
	return records, offset, nil
}

func readForward(path string, offset int64, filter Filter) ([]Record, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var records []Record
	err = scan(file, func(rec Record) {
		if filter.Match(rec) {
			records = append(records, rec)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	newOffset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return records, newOffset, nil
}

// scan reads file to EOF, leaving the cursor at the end.
func scan(file *os.File, fn func(Record)) error {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if rec, ok := ParseRecord(scanner.Text()); ok {
			fn(rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	return nil
}

func waitForRecords(ctx context.Context, path string, offset int64, wait time.Duration, filter Filter) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		records, newOffset, err := readForward(path, offset, filter)
		if err != nil {
			return result, err
		}
		offset = newOffset
		if len(records) > 0 {
			result.Records = records
			result.Offset = newOffset
			return result, nil
		}
		if time.Now().After(deadline) {
			result.Offset = newOffset
			return result, nil
		}
		select {
		case <-ctx.Done():
			result.Offset = newOffset
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
