package identity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"usagecli/pkg/contracts/domain"
)

// Store is the durable identity cache document: a JSON mapping from user
// id to identity record. It is read once at open time and rewritten
// wholesale on every save. Concurrent processes sharing the file are not
// coordinated; the last writer wins.
type Store struct {
	path    string
	entries map[string]domain.IdentityRecord
}

// OpenStore loads the cache document at path. A missing file yields an
// empty store; an unreadable document is logged and treated as empty
// rather than failing startup.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		path:    path,
		entries: make(map[string]domain.IdentityRecord),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity store: %w", err)
	}
	if err := json.Unmarshal(data, &store.entries); err != nil {
		logger.Warn("Identity store unreadable, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()))
		store.entries = make(map[string]domain.IdentityRecord)
	}
	return store, nil
}

// Get returns the cached record for a user id, if present.
func (s *Store) Get(userID string) (domain.IdentityRecord, bool) {
	rec, ok := s.entries[userID]
	return rec, ok
}

// Put stores or replaces the record for its user id.
func (s *Store) Put(rec domain.IdentityRecord) {
	s.entries[rec.UserID] = rec
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	return len(s.entries)
}

// All returns every cached record in unspecified order.
func (s *Store) All() []domain.IdentityRecord {
	records := make([]domain.IdentityRecord, 0, len(s.entries))
	for _, rec := range s.entries {
		records = append(records, rec)
	}
	return records
}

// Trim drops the oldest-resolved records beyond max. max <= 0 leaves the
// store unbounded.
func (s *Store) Trim(max int) {
	if max <= 0 || len(s.entries) <= max {
		return
	}
	records := s.All()
	sort.Slice(records, func(i, j int) bool { return records[i].CachedAt > records[j].CachedAt })
	for _, rec := range records[max:] {
		delete(s.entries, rec.UserID)
	}
}

// Save rewrites the whole document to disk, creating parent directories.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create identity store directory: %w", err)
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode identity store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write identity store: %w", err)
	}
	return nil
}
