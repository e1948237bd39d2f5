package shared

import "fmt"

// FormatBytes converts a byte count to a human readable string with one
// decimal place, e.g. 1536 -> "1.5 KB". A nil or negative value returns
// "Unknown".
func FormatBytes(size *int64) string {
	if size == nil || *size < 0 {
		return "Unknown"
	}

	value := float64(*size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", value)
}

// FormatBytesValue is [FormatBytes] for a known byte count.
func FormatBytesValue(size int64) string {
	return FormatBytes(&size)
}

// FormatDuration converts a duration in seconds to "m:ss". Zero or negative
// durations return "Unknown".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatViewCount converts a view count to a compact display string,
// e.g. 1234567 -> "1.2M", 4500 -> "4.5K".
func FormatViewCount(views int64) string {
	switch {
	case views <= 0:
		return "Unknown"
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	default:
		return fmt.Sprintf("%d", views)
	}
}

// TruncateDescription limits a description to max runes, appending "..." when
// truncation happens.
func TruncateDescription(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
