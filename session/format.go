package session

import (
	"fmt"
	"time"
)

// FormatRemaining renders a duration for the expiry-warning countdown:
// "2h 5m" above an hour, "42m" below, and "<1m" for anything under a minute.
// Non-positive durations render as "<1m", never as negative output.
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "<1m"
	}

	minutes := int(d / time.Minute)
	hours := minutes / 60
	minutes -= hours * 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
