package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentra-vms/sentra/internal/cameras"
)

func TestOpenSequence(t *testing.T) {
	s := StateClosed
	s = s.RequestOpen()
	require.Equal(t, StateOpening, s)
	require.False(t, s.Displaying())

	s = s.ApplyStatus(cameras.StatusOpen)
	require.Equal(t, StateOpen, s)
	require.True(t, s.Displaying())

	s = s.RequestClose()
	require.Equal(t, StateClosed, s)
	require.False(t, s.Displaying())
}

func TestServerStatusOverridesPendingOpen(t *testing.T) {
	s := StateClosed.RequestOpen()
	require.Equal(t, StateOpening, s)

	// The registry closed the camera while our open request was in flight.
	s = s.ApplyStatus(cameras.StatusClosed)
	require.Equal(t, StateClosed, s)

	s = StateClosed.RequestOpen().ApplyStatus(cameras.StatusUnavailable)
	require.Equal(t, StateUnavailable, s)
}

func TestOpenWhileOpenStaysOpen(t *testing.T) {
	s := StateOpen.RequestOpen()
	require.Equal(t, StateOpen, s)
}

func TestUnavailableCanBeReopened(t *testing.T) {
	s := StateUnavailable.RequestOpen()
	require.Equal(t, StateOpening, s)

	s = s.ApplyStatus(cameras.StatusOpen)
	require.Equal(t, StateOpen, s)
}

func TestStateStrings(t *testing.T) {
	require.Equal(t, "closed", StateClosed.String())
	require.Equal(t, "opening", StateOpening.String())
	require.Equal(t, "open", StateOpen.String())
	require.Equal(t, "unavailable", StateUnavailable.String())
}
