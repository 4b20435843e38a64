package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sharebite/sharebite/internal/entity"
)

func TestNormalizeQuantity(t *testing.T) {
	cases := []struct {
		rawUnit  string
		quantity float64
		want     float64
		wantUnit entity.Unit
	}{
		{"kg", 5, 5, entity.UnitKg},
		{"g", 2000, 2, entity.UnitKg},
		{"grams", 500, 0.5, entity.UnitKg},
		{"l", 1.5, 1.5, entity.UnitLiters},
		{"ml", 750, 0.75, entity.UnitLiters},
		{"litres", 2, 2, entity.UnitLiters},
		{"packet", 4, 4, entity.UnitPacks},
		{"packs", 4, 4, entity.UnitPacks},
		{"plates", 10, 10, entity.UnitPlates},
		{"pieces", 3, 3, entity.UnitItems},
		{" KG ", 1, 1, entity.UnitKg},
	}

	for _, tc := range cases {
		got, unit, err := normalizeQuantity(tc.quantity, tc.rawUnit)
		require.NoError(t, err, "unit %q", tc.rawUnit)
		require.InDelta(t, tc.want, got, 1e-9, "unit %q", tc.rawUnit)
		require.Equal(t, tc.wantUnit, unit, "unit %q", tc.rawUnit)
	}
}

func TestNormalizeQuantity_UnknownUnit(t *testing.T) {
	_, _, err := normalizeQuantity(1, "barrels")
	require.Error(t, err)
}

func TestParseExpiry_RelativeForms(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		raw  string
		want time.Time
	}{
		{"1 hour", now.Add(time.Hour)},
		{"2 hours", now.Add(2 * time.Hour)},
		{"45 minutes", now.Add(45 * time.Minute)},
		{"1 day", now.Add(24 * time.Hour)},
		{"3 Days", now.Add(72 * time.Hour)},
		{"  6 hours  ", now.Add(6 * time.Hour)},
	}

	for _, tc := range cases {
		got, err := parseExpiry(tc.raw, now)
		require.NoError(t, err, "input %q", tc.raw)
		require.True(t, got.Equal(tc.want), "input %q: got %s want %s", tc.raw, got, tc.want)
	}
}

func TestParseExpiry_RFC3339(t *testing.T) {
	now := time.Now()
	got, err := parseExpiry("2025-12-24T18:00:00Z", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC), got.UTC())
}

func TestParseExpiry_Invalid(t *testing.T) {
	now := time.Now()
	for _, raw := range []string{"", "soon", "0 hours", "-2 hours", "two days", "2025-13-01"} {
		_, err := parseExpiry(raw, now)
		require.Error(t, err, "input %q", raw)
	}
}
