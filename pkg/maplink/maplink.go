package maplink

import "fmt"

// Directions builds a Google Maps driving-directions URL between two
// coordinate pairs. Pure string formatting, no validation beyond what the
// maps frontend tolerates.
func Directions(originLat, originLon, destLat, destLon float64) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%f,%f&destination=%f,%f&travelmode=driving",
		originLat, originLon, destLat, destLon,
	)
}

// Embed builds an embeddable map URL centered on a single coordinate pair.
func Embed(lat, lon float64) string {
	return fmt.Sprintf("https://maps.google.com/maps?q=%f,%f&z=15&output=embed", lat, lon)
}
