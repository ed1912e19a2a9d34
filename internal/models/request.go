package models

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Destination is an arrival city served by one or more airports.
type Destination struct {
	Key     string   `json:"key"`
	City    string   `json:"city"`
	Country string   `json:"country,omitempty"`
	Codes   []string `json:"codes"`
}

// ArrivalID joins the airport codes the way the pricing API expects them.
func (d Destination) ArrivalID() string {
	return strings.Join(d.Codes, ",")
}

// PlanEntry is one (outbound, return, destination) query in a plan.
type PlanEntry struct {
	Outbound    time.Time   `json:"outbound_date"`
	Return      time.Time   `json:"return_date"`
	Destination Destination `json:"destination"`
}

func (e PlanEntry) OutboundString() string {
	return e.Outbound.Format(DateLayout)
}

func (e PlanEntry) ReturnString() string {
	return e.Return.Format(DateLayout)
}

type SearchRequest struct {
	Origin     string
	Entry      PlanEntry
	Passengers int
	Currency   string
}

func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if len(r.Entry.Destination.Codes) == 0 {
		return ErrMissingDestination
	}
	if r.Entry.Outbound.IsZero() {
		return ErrMissingDepartureDate
	}
	if r.Passengers <= 0 {
		r.Passengers = 1
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origin is required"
	ErrMissingDestination   ValidationError = "destination airport codes are required"
	ErrMissingDepartureDate ValidationError = "outbound date is required"
)

// QuoteFilters narrow the quotes kept for a query. Nil fields do not filter.
type QuoteFilters struct {
	PriceMax         *float64 `json:"price_max,omitempty"`
	MaxStops         *int     `json:"max_stops,omitempty"`
	DirectOnly       bool     `json:"direct_only,omitempty"`
	Airlines         []string `json:"airlines,omitempty"`
	DepartureTimeMin *string  `json:"departure_time_min,omitempty"`
	DepartureTimeMax *string  `json:"departure_time_max,omitempty"`
	MaxDuration      *int     `json:"max_duration,omitempty"`
}

func (f *QuoteFilters) Empty() bool {
	return f == nil || (f.PriceMax == nil && f.MaxStops == nil && !f.DirectOnly &&
		len(f.Airlines) == 0 && f.DepartureTimeMin == nil && f.DepartureTimeMax == nil && f.MaxDuration == nil)
}
