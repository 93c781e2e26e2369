package camera

import "fmt"

// FormatDuration renders a millisecond count as "Xh Ym Zs", "Ym Zs" or "Zs",
// truncating sub-second remainders. Zero and negative inputs yield "0s".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0s"
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
