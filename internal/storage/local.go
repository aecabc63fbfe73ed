package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

const (
	resultsDir      = "results"
	timestampLayout = "2006-01-02T15-04-05"

	// RefLatest and RefPrevious name the newest and second newest results
	RefLatest   = "latest"
	RefPrevious = "previous"
)

// ErrNotFound is returned when no stored result matches a reference
var ErrNotFound = errors.New("result not found")

// Entry describes one stored result file
type Entry struct {
	ID       string
	Finished time.Time
	Path     string
	Codec    string
}

var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	baseDir string
	codec   Codec
}

// NewLocal creates a local storage writing JSON files
func NewLocal(baseDir string) *LocalStorage {
	return NewLocalWithCodec(baseDir, JSONCodec{})
}

// NewLocalWithCodec creates a local storage writing files with codec.
// Files written with any supported codec can be read back.
func NewLocalWithCodec(baseDir string, codec Codec) *LocalStorage {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &LocalStorage{
		baseDir: baseDir,
		codec:   codec,
	}
}

// SaveResult stores an aggregated result to disk
func (s *LocalStorage) SaveResult(result *models.Result) (Entry, error) {
	if result.ID == "" {
		return Entry{}, fmt.Errorf("result has no id")
	}
	if !result.Aggregated {
		return Entry{}, fmt.Errorf("result %s has not been aggregated", result.ID)
	}

	dir := filepath.Join(s.baseDir, resultsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("failed to create results directory: %w", err)
	}

	stamp := result.Finished
	if stamp.IsZero() {
		stamp = result.Submitted
	}
	filename := s.formatTimestamp(stamp) + "-" + result.ID + s.codec.Ext()
	path := filepath.Join(dir, filename)

	data, err := s.codec.Marshal(result)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal result: %w", err)
	}

	// Readers only ever see complete files
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return Entry{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Entry{}, fmt.Errorf("failed to store file: %w", err)
	}

	ts, _ := s.parseTimestamp(s.formatTimestamp(stamp))
	return Entry{ID: result.ID, Finished: ts, Path: path, Codec: s.codec.Name()}, nil
}

// LoadResult loads a result by full id, unique id prefix, "latest" or "previous"
func (s *LocalStorage) LoadResult(ref string) (*models.Result, error) {
	entry, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return s.loadResultFromFile(entry.Path)
}

// LoadPair loads both results concurrently and returns once both are read
func (s *LocalStorage) LoadPair(ctx context.Context, leftRef, rightRef string) (*models.Result, *models.Result, error) {
	var left, right *models.Result
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.loadWithContext(ctx, leftRef)
		if err != nil {
			return fmt.Errorf("left %s: %w", leftRef, err)
		}
		left = r
		return nil
	})
	g.Go(func() error {
		r, err := s.loadWithContext(ctx, rightRef)
		if err != nil {
			return fmt.Errorf("right %s: %w", rightRef, err)
		}
		right = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (s *LocalStorage) loadWithContext(ctx context.Context, ref string) (*models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.LoadResult(ref)
}

// Resolve finds the entry a reference points to
func (s *LocalStorage) Resolve(ref string) (Entry, error) {
	entries, err := s.ListResults()
	if err != nil {
		return Entry{}, err
	}

	switch ref {
	case RefLatest:
		if len(entries) == 0 {
			return Entry{}, fmt.Errorf("%w: no results stored", ErrNotFound)
		}
		return entries[len(entries)-1], nil
	case RefPrevious:
		if len(entries) < 2 {
			return Entry{}, fmt.Errorf("%w: need at least 2 stored results", ErrNotFound)
		}
		return entries[len(entries)-2], nil
	}

	var matches []Entry
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
		if ref != "" && strings.HasPrefix(e.ID, ref) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return Entry{}, fmt.Errorf("ambiguous result reference %q matches %d results", ref, len(matches))
	}
}

// GetLatest retrieves the most recently finished result
func (s *LocalStorage) GetLatest() (*models.Result, error) {
	return s.LoadResult(RefLatest)
}

// GetLastN retrieves the last N results, oldest first
func (s *LocalStorage) GetLastN(n int) ([]*models.Result, error) {
	entries, err := s.ListResults()
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no results stored", ErrNotFound)
	}

	start := len(entries) - n
	if start < 0 {
		start = 0
	}

	selected := entries[start:]
	results := make([]*models.Result, 0, len(selected))
	for _, e := range selected {
		r, err := s.loadResultFromFile(e.Path)
		if err != nil {
			// Skip results that fail to load but continue with others
			continue
		}
		results = append(results, r)
	}

	return results, nil
}

// ListResults returns all stored entries sorted chronologically
func (s *LocalStorage) ListResults() ([]Entry, error) {
	dir := filepath.Join(s.baseDir, resultsDir)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []Entry{}, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}

		// Format: 2006-01-02T15-04-05-<id>.<ext>
		name := f.Name()
		ext := filepath.Ext(name)
		codec, err := codecForExt(ext)
		if err != nil {
			continue
		}
		base := strings.TrimSuffix(name, ext)
		if len(base) < len(timestampLayout)+2 || base[len(timestampLayout)] != '-' {
			continue
		}
		ts, err := s.parseTimestamp(base[:len(timestampLayout)])
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			ID:       base[len(timestampLayout)+1:],
			Finished: ts,
			Path:     filepath.Join(dir, name),
			Codec:    codec.Name(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Finished.Equal(entries[j].Finished) {
			return entries[i].Finished.Before(entries[j].Finished)
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

// Delete removes the stored result a reference points to
func (s *LocalStorage) Delete(ref string) (Entry, error) {
	entry, err := s.Resolve(ref)
	if err != nil {
		return Entry{}, err
	}
	if err := os.Remove(entry.Path); err != nil {
		return Entry{}, fmt.Errorf("failed to delete result: %w", err)
	}
	return entry, nil
}

func (s *LocalStorage) loadResultFromFile(path string) (*models.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	codec, err := codecForExt(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	var result models.Result
	if err := codec.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

func (s *LocalStorage) formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func (s *LocalStorage) parseTimestamp(str string) (time.Time, error) {
	return time.Parse(timestampLayout, str)
}

// GetStoragePath returns the full path to the storage directory
func (s *LocalStorage) GetStoragePath() string {
	return s.baseDir
}

// EnsureDirectoryExists creates the storage directory if it doesn't exist
func (s *LocalStorage) EnsureDirectoryExists() error {
	return os.MkdirAll(filepath.Join(s.baseDir, resultsDir), 0755)
}
