// Package history persists the append-only price log as a single JSON document.
//
// The whole file is read and rewritten on every append. Writes go through a
// temporary file in the same directory followed by a rename, so readers see
// either the old or the new history and never a partial one. Concurrent
// writers are not coordinated; callers must not run two appends at once.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CorruptStoreError reports a history file that exists but cannot be read or decoded.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt price history %q: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

// FileStore keeps the history in a JSON file at Path.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns every record in append order. A missing file is an empty history.
func (s *FileStore) Load(ctx context.Context) ([]PriceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, _, err := s.load()
	return records, err
}

// Latest returns the price of the most recent record. ok is false when
// nothing has been recorded yet.
func (s *FileStore) Latest(ctx context.Context) (price int64, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	records, _, err := s.load()
	if err != nil {
		return 0, false, err
	}
	if len(records) == 0 {
		return 0, false, nil
	}
	return records[len(records)-1].Price, true, nil
}

// Append adds one record at the end of the history and rewrites the file.
func (s *FileStore) Append(ctx context.Context, price int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if price < 0 {
		return fmt.Errorf("refusing to record negative price %d", price)
	}

	records, mode, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, PriceRecord{Price: price, Timestamp: at})

	return s.write(records, mode)
}

func (s *FileStore) load() ([]PriceRecord, fs.FileMode, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []PriceRecord{}, 0o644, nil
	} else if err != nil {
		return nil, 0, &CorruptStoreError{Path: s.path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, &CorruptStoreError{Path: s.path, Err: err}
	}

	var records []PriceRecord
	dec := json.NewDecoder(f)
	if err := dec.Decode(&records); err != nil {
		return nil, 0, &CorruptStoreError{Path: s.path, Err: err}
	}
	if dec.More() {
		return nil, 0, &CorruptStoreError{Path: s.path, Err: errors.New("trailing data after history array")}
	}
	if records == nil {
		// a literal null
		return nil, 0, &CorruptStoreError{Path: s.path, Err: errors.New("history is not an array")}
	}
	return records, info.Mode().Perm(), nil
}

func (s *FileStore) write(records []PriceRecord, mode fs.FileMode) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
