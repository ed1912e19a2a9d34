// Package data holds recorded google_flights responses used by the offline
// fixture provider.
package data

import (
	"embed"
	"strings"
)

// Recorded responses depart from Origin on BaseDate.
const (
	Origin   = "TLV"
	BaseDate = "2026-04-03"
)

//go:embed *.json
var files embed.FS

// Response returns the recorded response for an arrival airport.
func Response(arrivalCode string) ([]byte, bool) {
	b, err := files.ReadFile(strings.ToLower(arrivalCode) + ".json")
	if err != nil {
		return nil, false
	}
	return b, true
}
