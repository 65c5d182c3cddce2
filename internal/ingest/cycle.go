// Package ingest orchestrates one polling tick: fetch every category,
// normalize, filter against cursor and severity, archive, advance cursors,
// alert. A category's failure never blocks the remaining categories; only
// a storage-level failure aborts the tick.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/nntexpressinc/safetybot/internal/domain"
	"github.com/nntexpressinc/safetybot/internal/metrics"
	"github.com/nntexpressinc/safetybot/internal/normalize"
	"github.com/nntexpressinc/safetybot/internal/source"
	"github.com/nntexpressinc/safetybot/internal/store"
)

// Notifier delivers the immediate alert for one archived record.
type Notifier interface {
	Alert(ctx context.Context, ev domain.Event) error
}

type Cycle struct {
	source     *source.Client
	normalizer *normalize.Normalizer
	cursors    *store.CursorStore
	archive    *store.Archive
	notifier   Notifier
	logger     *slog.Logger
}

func NewCycle(
	src *source.Client,
	norm *normalize.Normalizer,
	cursors *store.CursorStore,
	archive *store.Archive,
	notifier Notifier,
	logger *slog.Logger,
) *Cycle {
	return &Cycle{
		source:     src,
		normalizer: norm,
		cursors:    cursors,
		archive:    archive,
		notifier:   notifier,
		logger:     logger,
	}
}

// Run executes one tick across all categories. It returns an error only
// when the cursor store or archive is unwritable; fetch and delivery
// problems are logged and retried on the next scheduled tick.
func (c *Cycle) Run(ctx context.Context) error {
	tick := uuid.NewString()
	logger := c.logger.With("tick", tick)
	logger.Info("ingestion tick started")

	for _, category := range domain.Categories {
		if err := c.runCategory(ctx, logger, category); err != nil {
			if errors.Is(err, store.ErrStorageUnavailable) {
				logger.Error("tick aborted, storage unavailable", "category", category, "error", err)
				return err
			}
			logger.Error("category failed", "category", category, "error", err)
		}
	}

	logger.Info("ingestion tick completed")
	return nil
}

func (c *Cycle) runCategory(ctx context.Context, logger *slog.Logger, category domain.Category) error {
	raws, err := c.source.FetchAll(ctx, category)
	if err != nil {
		// Fetch failures skip the category for this tick only; the next
		// scheduled tick retries from the unchanged cursor.
		metrics.FetchFailures.WithLabelValues(string(category)).Inc()
		logger.Warn("fetch failed, skipping category", "category", category, "error", err)
		return nil
	}
	if len(raws) == 0 {
		return nil
	}

	cursor, err := c.cursors.Last(ctx, category)
	if err != nil {
		return err
	}

	// The cursor advances over everything fetched, including records the
	// severity filter discards, so low-severity events are not re-fetched
	// forever.
	batchMax := cursor
	var fresh []domain.Event

	for _, raw := range raws {
		ev, err := c.normalizer.Normalize(raw, category)
		if err != nil {
			metrics.RecordsDropped.Inc()
			logger.Warn("record dropped", "category", category, "error", err)
			continue
		}
		if ev.SourceID > batchMax {
			batchMax = ev.SourceID
		}
		if ev.SourceID > cursor && ev.Severity.Reportable() {
			fresh = append(fresh, ev)
		} else {
			metrics.EventsDiscarded.WithLabelValues(string(category)).Inc()
		}
	}

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].SourceID < fresh[j].SourceID })

	for _, ev := range fresh {
		if err := c.archive.Append(store.DateKey(ev.RecordedAt), ev); err != nil {
			return err
		}
		metrics.EventsIngested.WithLabelValues(string(category)).Inc()
	}

	if batchMax > cursor {
		if err := c.cursors.Advance(ctx, category, batchMax); err != nil {
			return err
		}
	}

	for _, ev := range fresh {
		if err := c.notifier.Alert(ctx, ev); err != nil {
			logger.Warn("alert failed",
				"category", category,
				"source_id", ev.SourceID,
				"error", err,
			)
			continue
		}
		metrics.AlertsSent.Inc()
	}

	if len(fresh) > 0 {
		logger.Info("category ingested",
			"category", category,
			"new_records", len(fresh),
			"cursor", batchMax,
		)
	}
	return nil
}
