package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestManual verifies that the manual clock only moves on Advance and Set.
func TestManual(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 14, 7, 0, 0, 0, time.UTC)
	c := NewManual(start)

	require.Equal(t, start, c.Now())
	require.Equal(t, start.Add(time.Minute), c.Advance(time.Minute))
	require.Equal(t, start.Add(time.Minute), c.Now())

	c.Set(start)
	require.Equal(t, start, c.Now())
}

// TestReal checks the real clock tracks time.Now.
func TestReal(t *testing.T) {
	t.Parallel()

	require.WithinDuration(t, time.Now(), Real{}.Now(), time.Second)
}
