package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nntexpressinc/safetybot/internal/domain"
)

// DateKey renders the archive partition key for a point in time.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Archive is the date-partitioned durable store for canonical event
// records. One JSON file per calendar date; appends rewrite the whole
// partition via a temp file and rename. Daily volumes are small, so the
// read-modify-write is a simplicity tradeoff, not a throughput mechanism.
type Archive struct {
	dir    string
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewArchive(dir string, logger *slog.Logger) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &Archive{dir: dir, logger: logger}, nil
}

func (a *Archive) path(date string) string {
	return filepath.Join(a.dir, fmt.Sprintf("events-%s.json", date))
}

// Append adds records to the partition for date, preserving append order.
func (a *Archive) Append(date string, records ...domain.Event) error {
	if len(records) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.read(date)
	if err != nil {
		return err
	}
	existing = append(existing, records...)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding partition %s: %v", ErrStorageUnavailable, date, err)
	}

	// Write-then-rename so a reader never observes a half-written partition
	// even if the process dies mid-write.
	tmp := a.path(date) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing partition %s: %v", ErrStorageUnavailable, date, err)
	}
	if err := os.Rename(tmp, a.path(date)); err != nil {
		return fmt.Errorf("%w: replacing partition %s: %v", ErrStorageUnavailable, date, err)
	}

	a.logger.Debug("partition appended", "date", date, "added", len(records), "total", len(existing))
	return nil
}

// Load returns the partition for date in append order. A date with no
// partition yields an empty slice, not an error.
func (a *Archive) Load(date string) ([]domain.Event, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.read(date)
}

func (a *Archive) read(date string) ([]domain.Event, error) {
	data, err := os.ReadFile(a.path(date))
	if os.IsNotExist(err) {
		return []domain.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading partition %s: %v", ErrStorageUnavailable, date, err)
	}

	var records []domain.Event
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding partition %s: %v", ErrStorageUnavailable, date, err)
	}
	return records, nil
}
