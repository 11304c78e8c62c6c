package dbtime

import "time"

// Now returns a standardized timezone used for database resources.
func Now() time.Time {
	return Time(time.Now().UTC())
}

// Time returns a time compatible with Postgres. Postgres only stores
// dates with microsecond precision.
func Time(t time.Time) time.Time {
	return t.Round(time.Microsecond)
}

// StartOfDay truncates t to midnight UTC. Daily summaries are keyed
// on a fixed reference timezone, not the user's local one.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
