// Package report renders one date's archived records into a disposable
// tabular document. The document is regenerable from the partition at any
// time and is deleted by the caller after delivery.
package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"

	"github.com/nntexpressinc/safetybot/internal/domain"
	"github.com/nntexpressinc/safetybot/internal/metrics"
	"github.com/nntexpressinc/safetybot/internal/store"
)

// Placeholder shown in the speed columns for non-speeding categories.
const emDash = "—"

// Document is one rendered report artifact.
type Document struct {
	Date string
	Path string
	Rows int
}

type Builder struct {
	archive *store.Archive
	dir     string
	logger  *slog.Logger
}

func NewBuilder(archive *store.Archive, dir string, logger *slog.Logger) (*Builder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}
	return &Builder{archive: archive, dir: dir, logger: logger}, nil
}

// Build renders the partition for date. An empty partition yields
// (nil, nil): the caller decides to send a "no events" notice instead of an
// empty document. Rebuilding an unchanged partition produces identical
// bytes.
func (b *Builder) Build(date string) (*Document, error) {
	records, err := b.archive.Load(date)
	if err != nil {
		return nil, fmt.Errorf("loading partition %s: %w", date, err)
	}
	if len(records) == 0 {
		b.logger.Info("no records for report", "date", date)
		return nil, nil
	}

	path := filepath.Join(b.dir, fmt.Sprintf("safety-report-%s.txt", date))
	if err := os.WriteFile(path, render(date, records), 0o644); err != nil {
		return nil, fmt.Errorf("writing report %s: %w", path, err)
	}

	metrics.ReportsGenerated.Inc()
	b.logger.Info("report rendered", "date", date, "rows", len(records), "path", path)
	return &Document{Date: date, Path: path, Rows: len(records)}, nil
}

func render(date string, records []domain.Event) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Safety events for %s\n\n", date)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"CATEGORY", "DRIVER", "TIME", "SPEED RANGE", "EXCEEDED BY", "SEVERITY"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	// Rows stay in partition (append) order.
	for _, ev := range records {
		speedRange, exceededBy := ev.SpeedRange, ev.ExceededBy
		if ev.Category != domain.CategorySpeeding {
			speedRange, exceededBy = emDash, emDash
		}
		table.Append([]string{
			ev.Category.Title(),
			ev.DriverName,
			ev.OccurredAt,
			speedRange,
			exceededBy,
			string(ev.Severity),
		})
	}
	table.Render()

	return buf.Bytes()
}
