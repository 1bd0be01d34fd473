package runstats

import (
	"fmt"
	"time"
)

// FormatDuration renders d as "1h 2m 3s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
