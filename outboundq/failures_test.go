package outboundq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFailureTracker_CooldownExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	ft := newFailureTracker(clock)

	ft.record("r1", now, 200*time.Second)
	require.True(t, ft.hasRecentFailure("r1"))

	now = now.Add(199 * time.Second)
	require.True(t, ft.hasRecentFailure("r1"))

	now = now.Add(2 * time.Second)
	require.False(t, ft.hasRecentFailure("r1"))
}

func TestFailureTracker_ClearAndRemove(t *testing.T) {
	ft := newFailureTracker(time.Now)
	ft.record("r1", time.Now(), time.Hour)
	ft.record("r2", time.Now(), time.Hour)
	require.Equal(t, 2, ft.size())

	ft.remove("r1")
	require.Equal(t, 1, ft.size())
	require.False(t, ft.hasRecentFailure("r1"))

	ft.clearRecentFailures()
	require.Equal(t, 0, ft.size())
	require.False(t, ft.hasRecentFailure("r2"))
}
