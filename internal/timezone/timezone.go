package timezone

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// LocalLayout is the local timestamp format the pricing API uses for
// departures and arrivals.
const LocalLayout = "2006-01-02 15:04"

var airportTimezones = map[string]string{
	// Israel
	"TLV": "Asia/Jerusalem", // Tel Aviv - Ben Gurion
	"ETM": "Asia/Jerusalem", // Eilat - Ramon
	"HFA": "Asia/Jerusalem", // Haifa

	// France
	"CDG": "Europe/Paris", // Paris - Charles de Gaulle
	"ORY": "Europe/Paris", // Paris - Orly
	"BVA": "Europe/Paris", // Paris - Beauvais
	"NCE": "Europe/Paris", // Nice - Cote d'Azur
	"LYS": "Europe/Paris", // Lyon - Saint Exupery

	// United Kingdom
	"LHR": "Europe/London", // London - Heathrow
	"LGW": "Europe/London", // London - Gatwick
	"STN": "Europe/London", // London - Stansted
	"LTN": "Europe/London", // London - Luton
	"LCY": "Europe/London", // London - City
	"MAN": "Europe/London", // Manchester

	// Common connection points
	"ATH": "Europe/Athens",    // Athens
	"IST": "Europe/Istanbul",  // Istanbul
	"SAW": "Europe/Istanbul",  // Istanbul - Sabiha Gokcen
	"FCO": "Europe/Rome",      // Rome - Fiumicino
	"MXP": "Europe/Rome",      // Milan - Malpensa
	"FRA": "Europe/Berlin",    // Frankfurt
	"MUC": "Europe/Berlin",    // Munich
	"BER": "Europe/Berlin",    // Berlin
	"VIE": "Europe/Vienna",    // Vienna
	"ZRH": "Europe/Zurich",    // Zurich
	"AMS": "Europe/Amsterdam", // Amsterdam - Schiphol
	"BRU": "Europe/Brussels",  // Brussels
	"MAD": "Europe/Madrid",    // Madrid
	"BCN": "Europe/Madrid",    // Barcelona
	"LIS": "Europe/Lisbon",    // Lisbon
	"PRG": "Europe/Prague",    // Prague
	"WAW": "Europe/Warsaw",    // Warsaw
	"BUD": "Europe/Budapest",  // Budapest
	"OTP": "Europe/Bucharest", // Bucharest
	"SOF": "Europe/Sofia",     // Sofia
	"LCA": "Asia/Nicosia",     // Larnaca
	"PFO": "Asia/Nicosia",     // Paphos
	"AMM": "Asia/Amman",       // Amman
	"DXB": "Asia/Dubai",       // Dubai
	"AUH": "Asia/Dubai",       // Abu Dhabi
}

var (
	locMu     sync.RWMutex
	locations = make(map[string]*time.Location)
)

// GetTimezoneByAirport returns the IANA zone name for an airport, or "UTC"
// when the airport is unknown.
func GetTimezoneByAirport(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if tz, ok := airportTimezones[code]; ok {
		return tz
	}
	return "UTC"
}

func GetLocationByAirport(code string) *time.Location {
	return GetLocationByName(GetTimezoneByAirport(code))
}

func GetLocationByName(name string) *time.Location {
	locMu.RLock()
	loc, ok := locations[name]
	locMu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}

	locMu.Lock()
	locations[name] = loc
	locMu.Unlock()
	return loc
}

// ParseAirportTime parses a local "YYYY-MM-DD HH:MM" timestamp at the given
// airport and returns it in UTC. RFC 3339 input is accepted as-is.
func ParseAirportTime(timeStr, airportCode string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)
	if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
		return t.UTC(), nil
	}

	loc := GetLocationByAirport(airportCode)
	for _, format := range []string{LocalLayout, "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(format, timeStr, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

func ConvertToAirport(t time.Time, airportCode string) time.Time {
	return t.In(GetLocationByAirport(airportCode))
}

// FormatLocal renders t in the airport's local time using LocalLayout.
func FormatLocal(t time.Time, airportCode string) string {
	return ConvertToAirport(t, airportCode).Format(LocalLayout)
}
