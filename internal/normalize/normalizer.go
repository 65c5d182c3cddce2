// Package normalize converts raw, hole-ridden API payloads into canonical
// event records. Every field except the identifier degrades to a safe
// default instead of failing: one malformed field in a batch must never
// drop the batch or crash the cycle.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zsefvlol/timezonemapper"

	"github.com/nntexpressinc/safetybot/internal/domain"
)

// ErrMissingID is returned when a raw event has no identifier. The record
// is dropped; it cannot participate in cursor tracking.
var ErrMissingID = errors.New("raw event has no identifier")

const kphToMph = 0.621371

// UnknownDriver is the driver name recorded when the source omits the
// driver block entirely.
const UnknownDriver = "Unknown"

type Normalizer struct {
	defaultLoc *time.Location
	logger     *slog.Logger
}

// NewNormalizer builds a normalizer that localizes timestamps into the zone
// implied by each event's coordinates, falling back to defaultZone (or the
// system zone when empty).
func NewNormalizer(defaultZone string, logger *slog.Logger) (*Normalizer, error) {
	loc := time.Local
	if defaultZone != "" {
		var err error
		loc, err = time.LoadLocation(defaultZone)
		if err != nil {
			return nil, fmt.Errorf("loading default timezone %q: %w", defaultZone, err)
		}
	}
	return &Normalizer{defaultLoc: loc, logger: logger}, nil
}

// Normalize converts a raw event into a canonical record. It fails only
// when the identifier itself is missing.
func (n *Normalizer) Normalize(raw domain.RawEvent, category domain.Category) (domain.Event, error) {
	if raw.ID == nil {
		return domain.Event{}, ErrMissingID
	}

	ev := domain.Event{
		Category:   category,
		DriverName: driverName(raw.Driver),
		Severity:   severity(raw.Metadata),
		OccurredAt: n.localizeTime(raw),
		SourceID:   *raw.ID,
		RecordedAt: time.Now(),
	}

	if category == domain.CategorySpeeding {
		minMph := mph(raw.MinSpeedKPH)
		maxMph := mph(raw.MaxSpeedKPH)
		avgMph := mph(raw.AvgOverSpeedKPH)
		ev.SpeedRange = fmt.Sprintf("%s–%s mph", formatSpeed(minMph), formatSpeed(maxMph))
		ev.ExceededBy = fmt.Sprintf("+%s mph", formatSpeed(avgMph))
	}

	return ev, nil
}

func driverName(d *domain.RawDriver) string {
	if d == nil {
		return UnknownDriver
	}
	name := strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
	if name == "" {
		return UnknownDriver
	}
	return name
}

func severity(m *domain.RawMetadata) domain.Severity {
	if m == nil {
		return domain.SeverityUnknown
	}
	return domain.ParseSeverity(m.Severity)
}

// mph converts an optional km/h reading, treating a missing value as zero
// so derived fields render as "0" rather than failing.
func mph(kph *float64) float64 {
	if kph == nil {
		return 0
	}
	return math.Round(*kph*kphToMph*10) / 10
}

func formatSpeed(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// localizeTime converts the event's UTC end time (start time when the end
// is absent) into the zone implied by its coordinates. Unparseable
// timestamps pass through unchanged.
func (n *Normalizer) localizeTime(raw domain.RawEvent) string {
	ts := raw.EndTime
	if ts == "" {
		ts = raw.StartTime
	}
	if ts == "" {
		return ""
	}

	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		n.logger.Debug("unparseable event timestamp", "value", ts)
		return ts
	}

	loc := n.defaultLoc
	if raw.Lat != nil && raw.Lon != nil {
		if name := timezonemapper.LatLngToTimezoneString(*raw.Lat, *raw.Lon); name != "" {
			if l, err := time.LoadLocation(name); err == nil {
				loc = l
			}
		}
	}

	return t.In(loc).Format("Jan 02 03:04 PM")
}
