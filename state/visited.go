package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"jobscout/models"
)

// VisitedStore persists the set of already processed item IDs
type VisitedStore interface {
	// Load returns the persisted set. reset is true when corrupt state was
	// discarded and replaced by an empty set.
	Load(ctx context.Context) (ids models.IDSet, reset bool, err error)
	// Save persists the full set
	Save(ctx context.Context, ids models.IDSet) error
}

// FileVisitedStore keeps the visited set as a JSON array of strings
type FileVisitedStore struct {
	path   string
	logger *slog.Logger
}

// NewFileVisitedStore creates a store backed by the file at path
func NewFileVisitedStore(path string, logger *slog.Logger) *FileVisitedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileVisitedStore{path: path, logger: logger}
}

// Path returns the backing file path
func (s *FileVisitedStore) Path() string {
	return s.path
}

// Load reads the visited set. A missing file is created as "[]". A corrupt
// file is overwritten with "[]" and reported through reset.
func (s *FileVisitedStore) Load(ctx context.Context) (models.IDSet, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("visited file not found, creating it", "path", s.path)
		if err := s.Save(ctx, models.NewIDSet()); err != nil {
			return nil, false, err
		}
		return models.NewIDSet(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read visited file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		s.logger.Info("visited file is empty, starting with an empty set", "path", s.path)
		return models.NewIDSet(), false, nil
	}

	var ids []models.ItemID
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn("visited file is corrupt, resetting it", "path", s.path, "err", err)
		if err := s.Save(ctx, models.NewIDSet()); err != nil {
			return nil, true, err
		}
		return models.NewIDSet(), true, nil
	}

	return models.NewIDSet(ids...), false, nil
}

// Save overwrites the file with the full set
func (s *FileVisitedStore) Save(_ context.Context, ids models.IDSet) error {
	data, err := json.Marshal(ids.Sorted())
	if err != nil {
		return fmt.Errorf("failed to encode visited ids: %w", err)
	}
	return writeFileAtomic(s.path, data)
}
