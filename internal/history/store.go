package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Store manages launch record persistence, one JSON file per launch.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save persists a launch record to disk.
func (s *Store) Save(l *Launch) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create launches directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal launch record: %w", err)
	}

	if err := os.WriteFile(s.Path(l.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write launch record: %w", err)
	}

	return nil
}

// Load reads a launch record from disk by ID.
func (s *Store) Load(id string) (*Launch, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("launch record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read launch record: %w", err)
	}

	var l Launch
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal launch record: %w", err)
	}

	return &l, nil
}

// List returns all launch records, newest first.
func (s *Store) List() ([]*Launch, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Launch{}, nil
		}
		return nil, fmt.Errorf("failed to read launches directory: %w", err)
	}

	var launches []*Launch
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := entry.Name()[:len(entry.Name())-5] // Remove .json extension
		l, err := s.Load(id)
		if err != nil {
			continue // Skip invalid records
		}
		launches = append(launches, l)
	}

	sort.Slice(launches, func(i, j int) bool {
		return launches[i].StartedAt.After(launches[j].StartedAt)
	})

	return launches, nil
}

// Delete removes a launch record.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.Path(id)); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete launch record: %w", err)
	}
	return nil
}

// Prune deletes all but the newest keep records.
func (s *Store) Prune(keep int) error {
	launches, err := s.List()
	if err != nil {
		return err
	}
	if len(launches) <= keep {
		return nil
	}

	for _, l := range launches[keep:] {
		if err := s.Delete(l.ID); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the file path of a record.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Dir returns the record directory.
func (s *Store) Dir() string {
	return s.dir
}
