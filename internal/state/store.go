// Package state persists the set of tweet ids the bot has finally handled.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const defaultMaxEntries = 10000

// Store is a bounded, durable set of processed tweet ids backed by a JSON
// list file. All mutation and persistence happens under one lock; the lock is
// never held across network calls.
type Store struct {
	path   string
	max    int
	logger *slog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// New builds a store for the given file path and capacity.
func New(path string, maxEntries int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries <= 0 {
		logger.Warn("state capacity must be positive, using default",
			"got", maxEntries, "default", defaultMaxEntries)
		maxEntries = defaultMaxEntries
	}
	return &Store{
		path:   path,
		max:    maxEntries,
		logger: logger,
		ids:    map[string]struct{}{},
	}
}

// Load reads the state file into memory. A missing or empty file means a
// fresh start; anything unreadable is renamed aside and the store starts
// empty. Load never fails past this boundary.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = map[string]struct{}{}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("state file not found, starting with empty state", "path", s.path)
		return
	}
	if err != nil {
		s.logger.Error("cannot read state file, backing up and starting fresh",
			"path", s.path, "error", err)
		s.backupCorrupt("unexpected_load_error")
		return
	}
	if strings.TrimSpace(string(raw)) == "" {
		s.logger.Info("state file is empty, starting with empty state", "path", s.path)
		return
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		var probe any
		if json.Unmarshal(raw, &probe) == nil {
			s.logger.Error("state file content is not a JSON list, backing up and starting fresh",
				"path", s.path)
			s.backupCorrupt("invalid_format")
		} else {
			s.logger.Error("cannot decode state file, backing up and starting fresh",
				"path", s.path, "error", err)
			s.backupCorrupt("json_decode_error")
		}
		return
	}

	for _, item := range items {
		if id := stringifyID(item); id != "" {
			s.ids[id] = struct{}{}
		}
	}

	// Keep the highest maxEntries ids in sorted order when the file grew
	// beyond capacity under an older limit.
	if len(s.ids) > s.max {
		sorted := s.sortedLocked()
		for _, id := range sorted[:len(sorted)-s.max] {
			delete(s.ids, id)
		}
	}

	s.logger.Info("loaded processed tweet ids",
		"count", len(s.ids), "capacity", s.max, "path", s.path)
}

// IsProcessed reports whether a tweet id has already been handled.
func (s *Store) IsProcessed(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// MarkProcessed records a final disposition for a tweet id. Adding a present
// id is a no-op. At capacity one arbitrary member is evicted first; eviction
// order follows map iteration, not LRU.
func (s *Store) MarkProcessed(id string) {
	if id == "" {
		s.logger.Warn("attempted to mark empty tweet id as processed, skipping")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return
	}

	if len(s.ids) >= s.max {
		for evicted := range s.ids {
			delete(s.ids, evicted)
			s.logger.Debug("evicted processed id at capacity",
				"evicted", evicted, "capacity", s.max)
			break
		}
	}

	s.ids[id] = struct{}{}
}

// Len returns the current number of remembered ids.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Save serializes the set, sorted for stable diffs, via write-temp-then-rename
// so a crash mid-write never corrupts the committed file. The capacity is
// enforced again here as a second safety net.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.sortedLocked()
	if len(ids) > s.max {
		s.logger.Info("state size exceeds capacity, trimming before save",
			"size", len(ids), "capacity", s.max)
		ids = ids[len(ids)-s.max:]
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}

	s.logger.Info("saved processed tweet ids", "count", len(ids), "path", s.path)
	return nil
}

func (s *Store) sortedLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// backupCorrupt renames an unreadable state file aside rather than deleting
// it, disambiguating with a counter when a backup name already exists.
func (s *Store) backupCorrupt(reason string) {
	if _, err := os.Stat(s.path); err != nil {
		return
	}

	backup := fmt.Sprintf("%s.%s.bak", s.path, reason)
	for n := 1; ; n++ {
		if _, err := os.Stat(backup); errors.Is(err, fs.ErrNotExist) {
			break
		}
		backup = fmt.Sprintf("%s.%s_%d.bak", s.path, reason, n)
	}

	if err := os.Rename(s.path, backup); err != nil {
		s.logger.Error("failed to back up corrupt state file",
			"path", s.path, "error", err)
		return
	}
	s.logger.Info("backed up corrupt state file", "backup", backup)
}

func stringifyID(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
