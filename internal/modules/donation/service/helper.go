package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sharebite/sharebite/internal/entity"
)

// normalizeQuantity converts a submitted quantity into its canonical storage
// unit: grams become kilograms, millilitres become liters, and count units
// are pluralized. The returned quantity is in the returned unit.
func normalizeQuantity(quantity float64, rawUnit string) (float64, entity.Unit, error) {
	switch strings.ToLower(strings.TrimSpace(rawUnit)) {
	case "kg", "kilogram", "kilograms":
		return quantity, entity.UnitKg, nil
	case "g", "gram", "grams":
		return quantity / 1000, entity.UnitKg, nil
	case "l", "liter", "liters", "litre", "litres":
		return quantity, entity.UnitLiters, nil
	case "ml", "millilitre", "millilitres", "milliliter", "milliliters":
		return quantity / 1000, entity.UnitLiters, nil
	case "pack", "packs", "packet", "packets":
		return quantity, entity.UnitPacks, nil
	case "plate", "plates":
		return quantity, entity.UnitPlates, nil
	case "item", "items", "piece", "pieces":
		return quantity, entity.UnitItems, nil
	}
	return 0, "", fmt.Errorf("unknown quantity unit %q", rawUnit)
}

var relativeExpiry = regexp.MustCompile(`(?i)^\s*(\d+)\s*(minute|hour|day)s?\s*$`)

// parseExpiry turns the donor's expiry input into a timestamp. Accepted forms
// are the relative strings the donation form offers ("1 hour", "2 hours",
// "45 minutes", "1 day") and RFC 3339 timestamps.
func parseExpiry(raw string, now time.Time) (time.Time, error) {
	if m := relativeExpiry.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("invalid expiry %q", raw)
		}
		switch strings.ToLower(m[2]) {
		case "minute":
			return now.Add(time.Duration(n) * time.Minute), nil
		case "hour":
			return now.Add(time.Duration(n) * time.Hour), nil
		case "day":
			return now.Add(time.Duration(n) * 24 * time.Hour), nil
		}
	}

	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
		return ts, nil
	}

	return time.Time{}, fmt.Errorf("invalid expiry %q", raw)
}
