package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"jobscout/models"
)

// Journal is the result log: an ordered list of outcomes rewritten in full
// on every append
type Journal struct {
	path   string
	logger *slog.Logger
}

// NewJournal creates a journal backed by the file at path
func NewJournal(path string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{path: path, logger: logger}
}

// Path returns the backing file path
func (j *Journal) Path() string {
	return j.path
}

// ErrCorruptResults is returned by Read when the results file cannot be parsed
var ErrCorruptResults = errors.New("results file is corrupt")

// Read returns every recorded outcome in insertion order without touching the
// file. A corrupt file yields ErrCorruptResults.
func (j *Journal) Read() ([]models.ClassificationOutcome, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var outcomes []models.ClassificationOutcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptResults, j.path, err)
	}
	return outcomes, nil
}

// Load is Read for writers: a corrupt file is moved aside rather than
// discarded and the journal restarts empty.
func (j *Journal) Load() ([]models.ClassificationOutcome, error) {
	outcomes, err := j.Read()
	if errors.Is(err, ErrCorruptResults) {
		aside := fmt.Sprintf("%s.corrupt-%d", j.path, time.Now().Unix())
		j.logger.Warn("results file is corrupt, moving it aside", "path", j.path, "moved_to", aside, "err", err)
		if err := os.Rename(j.path, aside); err != nil {
			return nil, fmt.Errorf("failed to move corrupt results file: %w", err)
		}
		return nil, nil
	}
	return outcomes, err
}

// Append adds outcome to the end of the log and rewrites the file
func (j *Journal) Append(outcome models.ClassificationOutcome) error {
	outcomes, err := j.Load()
	if err != nil {
		return err
	}
	outcomes = append(outcomes, outcome)

	data, err := json.MarshalIndent(outcomes, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return writeFileAtomic(j.path, data)
}
