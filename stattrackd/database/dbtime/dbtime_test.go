package dbtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database/dbtime"
)

func TestTime(t *testing.T) {
	t.Parallel()

	in := time.Date(2024, 3, 1, 9, 0, 0, 123456789, time.UTC)
	out := dbtime.Time(in)
	require.Equal(t, 123457000, out.Nanosecond(), "rounds to microsecond precision")
}

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	// A time late in the evening of a non-UTC zone can belong to the
	// next UTC day.
	loc := time.FixedZone("UTC-5", -5*60*60)
	in := time.Date(2024, 3, 1, 22, 30, 0, 0, loc)
	out := dbtime.StartOfDay(in)
	require.True(t, out.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, time.UTC, out.Location())
}
