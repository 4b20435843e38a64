package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCanAdvanceTo(t *testing.T) {
	forward := []struct{ from, to Status }{
		{StatusPosted, StatusClaimed},
		{StatusDiverted, StatusClaimed},
		{StatusClaimed, StatusAccepted},
		{StatusClaimed, StatusPicked},
		{StatusAccepted, StatusPicked},
		{StatusPicked, StatusDelivered},
		{StatusDelivered, StatusConfirmed},
		{StatusPosted, StatusExpired},
		{StatusDiverted, StatusExpired},
	}
	for _, tc := range forward {
		require.True(t, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	backward := []struct{ from, to Status }{
		{StatusClaimed, StatusPosted},
		{StatusPicked, StatusClaimed},
		{StatusDelivered, StatusPicked},
		{StatusConfirmed, StatusDelivered},
		{StatusPosted, StatusDiverted}, // same stage, not an advance
	}
	for _, tc := range backward {
		require.False(t, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	// Terminal states never move again.
	require.False(t, StatusConfirmed.CanAdvanceTo(StatusExpired))
	require.False(t, StatusExpired.CanAdvanceTo(StatusConfirmed))
}

func TestAcceptanceTypeCapabilities(t *testing.T) {
	require.True(t, AcceptEdible.CanEdible())
	require.False(t, AcceptEdible.CanNonEdible())

	require.False(t, AcceptNonEdible.CanEdible())
	require.True(t, AcceptNonEdible.CanNonEdible())

	require.True(t, AcceptBoth.CanEdible())
	require.True(t, AcceptBoth.CanNonEdible())
}
