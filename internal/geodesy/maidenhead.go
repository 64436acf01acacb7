// Package geodesy converts latitude/longitude into the Maidenhead grid
// locator and UTM coordinate systems used in the enriched delivery
// output. Neither algorithm has a library counterpart anywhere in the
// example pack, so both are closed-form implementations (see DESIGN.md).
package geodesy

import (
	"fmt"
)

const maidenheadUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Maidenhead returns the grid locator for (lat, lon) at the requested
// precision (number of character pairs; the original defaults to 3,
// yielding a 6-character locator such as "JN58td").
func Maidenhead(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 3
	}

	adjLon := lon + 180
	adjLat := lat + 90

	out := make([]byte, 0, precision*2)

	fieldLon := int(adjLon / 20)
	fieldLat := int(adjLat / 10)
	out = append(out, maidenheadUpper[fieldLon], maidenheadUpper[fieldLat])
	adjLon -= float64(fieldLon) * 20
	adjLat -= float64(fieldLat) * 10

	if precision >= 2 {
		squareLon := int(adjLon / 2)
		squareLat := int(adjLat / 1)
		out = append(out, byte('0'+squareLon), byte('0'+squareLat))
		adjLon -= float64(squareLon) * 2
		adjLat -= float64(squareLat) * 1
	}

	if precision >= 3 {
		subsquareLon := int(adjLon * 12)
		subsquareLat := int(adjLat * 24)
		out = append(out, lowerByte(subsquareLon), lowerByte(subsquareLat))
		adjLon -= float64(subsquareLon) / 12
		adjLat -= float64(subsquareLat) / 24
	}

	if precision >= 4 {
		extSquareLon := int(adjLon * 12 * 10)
		extSquareLat := int(adjLat * 24 * 10)
		out = append(out, byte('0'+extSquareLon%10), byte('0'+extSquareLat%10))
	}

	return string(out)
}

func lowerByte(index int) byte {
	return byte('a' + (index % 26))
}

// FormatMaidenhead renders a (lat, lon) pair plus its locator for display,
// e.g. in enrichment output where both forms are shown side by side.
func FormatMaidenhead(lat, lon float64) string {
	return fmt.Sprintf("%s (%.4f,%.4f)", Maidenhead(lat, lon, 3), lat, lon)
}
