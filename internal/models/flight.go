package models

import (
	"strings"
	"time"
)

type Price struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

type Duration struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"total_minutes"`
}

func NewDuration(totalMinutes int) Duration {
	return Duration{
		Hours:        totalMinutes / 60,
		Minutes:      totalMinutes % 60,
		TotalMinutes: totalMinutes,
	}
}

// Segment times are stored in UTC; renderers convert back to airport local time.
type Segment struct {
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	Airline         string    `json:"airline"`
	FlightNumber    string    `json:"flight_number"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	DurationMinutes int       `json:"duration_minutes"`
	TravelClass     string    `json:"travel_class,omitempty"`
}

type Layover struct {
	Airport   string `json:"airport"`
	Name      string `json:"name,omitempty"`
	Duration  int    `json:"duration_minutes"`
	Overnight bool   `json:"overnight,omitempty"`
}

type Emissions struct {
	ThisFlightKg      float64 `json:"this_flight_kg"`
	TypicalKg         float64 `json:"typical_kg,omitempty"`
	DifferencePercent int     `json:"difference_percent,omitempty"`
}

// Quote is one priced round-trip itinerary. Quotes have no identity beyond
// their content; identical quotes are kept as separate entries.
type Quote struct {
	Provider        string    `json:"provider"`
	DestinationKey  string    `json:"destination"`
	DestinationCity string    `json:"destination_city"`
	OutboundDate    time.Time `json:"outbound_date"`
	ReturnDate      time.Time `json:"return_date"`
	Price           Price     `json:"price"`
	Duration        Duration  `json:"duration"`
	Carriers        []string  `json:"carriers,omitempty"`
	Segments        []Segment `json:"segments,omitempty"`
	Layovers        []Layover `json:"layovers,omitempty"`
	Emissions       Emissions `json:"emissions"`
}

func (q Quote) Stops() int {
	if len(q.Segments) == 0 {
		return len(q.Layovers)
	}
	return len(q.Segments) - 1
}

func (q Quote) Direct() bool {
	return q.Stops() == 0
}

func (q Quote) CarrierNames() string {
	if len(q.Carriers) == 0 {
		return "Unknown"
	}
	return strings.Join(q.Carriers, ", ")
}

func (q Quote) LayoverAirports() []string {
	airports := make([]string, 0, len(q.Layovers))
	for _, l := range q.Layovers {
		airports = append(airports, l.Airport)
	}
	return airports
}

func (q Quote) FlightNumbers() string {
	numbers := make([]string, 0, len(q.Segments))
	for _, s := range q.Segments {
		numbers = append(numbers, s.FlightNumber)
	}
	return strings.Join(numbers, ",")
}
