package telegram

import (
	"fmt"
	"strings"

	"github.com/nntexpressinc/safetybot/internal/domain"
)

// FormatAlert renders the immediate notification text for one event.
// Speeding alerts carry the speed lines; performance alerts do not.
func FormatAlert(ev domain.Event) string {
	var b strings.Builder
	fmt.Fprintln(&b, ev.Category.Title())
	fmt.Fprintf(&b, "Driver: %s\n", ev.DriverName)
	if ev.OccurredAt != "" {
		fmt.Fprintln(&b, ev.OccurredAt)
	}
	if ev.Category == domain.CategorySpeeding {
		fmt.Fprintf(&b, "Speed range: %s\n", ev.SpeedRange)
		fmt.Fprintf(&b, "Avg. exceeded: %s\n", ev.ExceededBy)
	}
	fmt.Fprintf(&b, "Severity: %s", ev.Severity)
	return b.String()
}
