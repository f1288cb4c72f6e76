// Package utils provides common utility functions.
package utils

import "time"

// DateLayout is the wire format for calendar dates (validUntil, lastActionDate).
const DateLayout = "2006-01-02"

// GetCurrentTimeMillis returns current time in milliseconds since epoch.
func GetCurrentTimeMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// MillisToTime converts milliseconds since epoch to time.Time.
func MillisToTime(millis int64) time.Time {
	return time.Unix(0, millis*int64(time.Millisecond))
}

// TimeToMillis converts time.Time to milliseconds since epoch.
func TimeToMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// Today returns the current date truncated to midnight UTC.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// FormatDate renders a date in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a date in the wire format.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
