package format

import "strconv"

// trimFloat renders a float64 with the shortest round-trip representation,
// matching the canonical-JSON number formatting used elsewhere (§9
// "Canonical JSON serialisation").
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
