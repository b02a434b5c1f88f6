package timeutil

import "time"

// MsToSec converts a millisecond subtitle offset to seconds.
func MsToSec(ms int64) float64 {
	return float64(ms) / 1000.0
}

func SecToMs(sec float64) int64 {
	return int64(sec * 1000.0)
}

// ClampNonNegative floors a timestamp at zero. Retiming with a negative
// offset may push early sentences before the start of the media.
func ClampNonNegative(sec float64) float64 {
	if sec < 0 {
		return 0
	}
	return sec
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}
