package duration

import "fmt"

const (
	// DefaultSeconds is the fixed value substituted when no strategy and no
	// client hint produced a usable duration.
	DefaultSeconds = 300

	// PlaceholderSeconds is a legacy eight-minute value that older uploads
	// carry when estimation silently fell back. It is indistinguishable from a
	// real eight-minute recording except by provenance, so it is treated as
	// untrustworthy.
	PlaceholderSeconds = 480
)

// IsSuspicious reports whether a stored duration is known to likely originate
// from a fallback or estimation path rather than a real measurement. This is
// the single predicate shared by ingest post-processing, the playback
// reconciler and the bulk repair sweep.
func IsSuspicious(seconds int) bool {
	return seconds == 0 || seconds == DefaultSeconds || seconds == PlaceholderSeconds
}

// SuspiciousValues returns the set of untrustworthy stored durations, for use
// in repository queries.
func SuspiciousValues() []int {
	return []int{0, DefaultSeconds, PlaceholderSeconds}
}

// FormatClock renders whole seconds as m:ss, or h:mm:ss for durations of an
// hour or more.
func FormatClock(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
