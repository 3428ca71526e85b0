package utils

import "time"

const MillisPerDay = int64(24 * time.Hour / time.Millisecond)

// -----------------------------------------------------------------------------

// RetentionCutoff returns the epoch ms before which snapshots are expired.
func RetentionCutoff(now time.Time, retentionDays int) int64 {
	return now.UnixMilli() - int64(retentionDays)*MillisPerDay
}
