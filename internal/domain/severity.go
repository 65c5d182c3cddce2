package domain

// Severity is the source-assigned severity of an event. Anything the API
// sends outside the known set (including a missing metadata block) maps to
// SeverityUnknown.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// ParseSeverity maps a raw severity string to a Severity, defaulting to
// SeverityUnknown for unrecognized or empty values.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return SeverityUnknown
	}
}

// Reportable reports whether events of this severity are archived and
// alerted. Low and unknown severities are discarded (their ids still
// advance the cursor).
func (s Severity) Reportable() bool {
	switch s {
	case SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}
