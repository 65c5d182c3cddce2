package domain

import "time"

// RawDriver is the nested driver block of a raw API event. The whole block
// may be absent or null.
type RawDriver struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RawMetadata carries the severity the API assigned to the event.
type RawMetadata struct {
	Severity string `json:"severity"`
}

// RawEvent is the transient, category-specific shape fetched from the API.
// Every nested field is optional; only the identifier is required for the
// event to survive normalization. Speed fields are populated for speeding
// events only, start/end times and coordinates for all categories.
type RawEvent struct {
	ID       *int64       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Driver   *RawDriver   `json:"driver"`
	Metadata *RawMetadata `json:"metadata"`

	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	// Speeding-only, km/h as delivered by the API.
	MinSpeedKPH     *float64 `json:"min_vehicle_speed,omitempty"`
	MaxSpeedKPH     *float64 `json:"max_vehicle_speed,omitempty"`
	AvgOverSpeedKPH *float64 `json:"avg_over_speed_in_kph,omitempty"`

	Lat *float64 `json:"start_lat,omitempty"`
	Lon *float64 `json:"start_lon,omitempty"`
}

// Event is the canonical, storage-durable record produced by the
// normalizer. Immutable once archived.
type Event struct {
	Category   Category  `json:"category"`
	DriverName string    `json:"driver_name"`
	Severity   Severity  `json:"severity"`
	OccurredAt string    `json:"occurred_at"`
	SpeedRange string    `json:"speed_range,omitempty"`
	ExceededBy string    `json:"exceeded_by,omitempty"`
	SourceID   int64     `json:"source_id"`
	RecordedAt time.Time `json:"recorded_at"`
}
