package models

import "time"

// TimestampLayout renders waitlist timestamps as ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// WaitlistEntry records one signup. Entries are never mutated once stored.
type WaitlistEntry struct {
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// FormatTimestamp renders t the way waitlist entries store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
