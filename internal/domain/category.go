package domain

import "strings"

// Category identifies one monitored event stream. Speeding rides its own
// API endpoint; the remaining categories are driver-performance sub-types
// and share the performance endpoint.
type Category string

const (
	CategorySpeeding         Category = "speeding"
	CategoryHardBrake        Category = "hard_brake"
	CategoryCrash            Category = "crash"
	CategorySeatBelt         Category = "seat_belt_violation"
	CategoryStopSign         Category = "stop_sign_violation"
	CategoryDistraction      Category = "distraction"
	CategoryUnsafeLaneChange Category = "unsafe_lane_change"
)

// Categories is the fixed set of monitored categories, in fetch order.
var Categories = []Category{
	CategorySpeeding,
	CategoryHardBrake,
	CategoryCrash,
	CategorySeatBelt,
	CategoryStopSign,
	CategoryDistraction,
	CategoryUnsafeLaneChange,
}

// IsPerformance reports whether the category is fetched from the
// driver-performance endpoint rather than the speeding endpoint.
func (c Category) IsPerformance() bool {
	return c != CategorySpeeding
}

// Title renders the category for human-facing messages:
// "hard_brake" becomes "Hard Brake".
func (c Category) Title() string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
