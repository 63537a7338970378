package diskspace

import "fmt"

// FormatBytes renders a byte count in a human-readable unit.
func FormatBytes(bytes uint64) string {
	const threshold = 1024
	if bytes < threshold {
		return fmt.Sprintf("%d B", bytes)
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	size := float64(bytes)
	unit := 0
	for size >= threshold*threshold && unit < len(units)-1 {
		size /= threshold
		unit++
	}
	return fmt.Sprintf("%.1f %s", size/threshold, units[unit])
}
