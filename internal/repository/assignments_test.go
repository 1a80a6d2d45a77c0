package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateSetScopesToListedDates(t *testing.T) {
	assert.Equal(t, "$1", dateSet(1))
	assert.Equal(t, "$1, $2", dateSet(2))

	// Non-contiguous runs rely on one placeholder per listed date; a range
	// would also capture the dates in between.
	assert.Equal(t, "$1, $2, $3", dateSet(3))
}

func TestDateArgsKeepsOrder(t *testing.T) {
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)

	args := dateArgs([]time.Time{monday, wednesday})
	require.Len(t, args, 2)
	assert.Equal(t, monday, args[0])
	assert.Equal(t, wednesday, args[1])
}
