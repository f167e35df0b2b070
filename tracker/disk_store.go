package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const fileTimeFormat = "2006-01-02T15-04-05.000000000"

// DiskStore persists outcome history to disk as one JSON file per outcome.
type DiskStore struct {
	dir      string
	logger   *slog.Logger
	maxCount int
	outcomes []Outcome // protected by mu
	files    []string  // protected by mu, parallel to outcomes
	mu       sync.Mutex
}

// NewDiskStore creates a new disk-backed store.
// The directory is created if it doesn't exist, and existing outcomes are loaded.
func NewDiskStore(dir string, maxCount int, logger *slog.Logger) (*DiskStore, error) {
	if maxCount <= 0 {
		return nil, fmt.Errorf("max count must be positive, got %d", maxCount)
	}
	s := &DiskStore{
		dir:      dir,
		logger:   logger,
		maxCount: maxCount,
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	outcomes, files, err := s.load()
	if err != nil {
		logger.Warn("failed to load existing history", "error", err)
	} else {
		s.outcomes = outcomes
		s.files = files
	}

	return s, nil
}

func fileName(o Outcome) string {
	return o.EndedAt.UTC().Format(fileTimeFormat) + "-" + o.Operation + ".json"
}

// History returns all outcomes, most recent first.
func (s *DiskStore) History() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Outcome, len(s.outcomes))
	copy(result, s.outcomes)
	return result
}

// Save persists an outcome to disk and drops the oldest once maxCount is exceeded.
func (s *DiskStore) Save(o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.EndedAt.IsZero() {
		return fmt.Errorf("cannot save outcome without end time")
	}

	name := fileName(o)
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write outcome file: %w", err)
	}

	s.outcomes = append([]Outcome{o}, s.outcomes...)
	s.files = append([]string{name}, s.files...)

	for len(s.outcomes) > s.maxCount {
		last := len(s.outcomes) - 1
		oldest := filepath.Join(s.dir, s.files[last])
		if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove old outcome", "file", oldest, "error", err)
		}
		s.outcomes = s.outcomes[:last]
		s.files = s.files[:last]
	}

	s.logger.Debug("saved outcome to disk", "path", path)
	return nil
}

// Reload re-loads all outcomes from disk.
func (s *DiskStore) Reload() error {
	outcomes, files, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = outcomes
	s.files = files
	return nil
}

type loaded struct {
	outcome Outcome
	file    string
}

// load loads all outcomes from disk, most recent first, capped at maxCount.
func (s *DiskStore) load() ([]Outcome, []string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var all []loaded
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read outcome file", "file", path, "error", err)
			continue
		}

		var o Outcome
		if err := json.Unmarshal(data, &o); err != nil {
			s.logger.Warn("failed to parse outcome file", "file", path, "error", err)
			continue
		}
		all = append(all, loaded{outcome: o, file: entry.Name()})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].outcome.EndedAt.After(all[j].outcome.EndedAt)
	})

	if len(all) > s.maxCount {
		all = all[:s.maxCount]
	}

	outcomes := make([]Outcome, len(all))
	files := make([]string, len(all))
	for i, l := range all {
		outcomes[i] = l.outcome
		files[i] = l.file
	}

	s.logger.Info("loaded outcome history from disk", "count", len(outcomes))
	return outcomes, files, nil
}
