package aggregator

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

// Aggregate folds per-query results into a ranked report. Error and empty
// results are counted in the diagnostics and excluded from ranking. The
// quote order depends only on quote content, never on result order.
func Aggregate(results []models.SearchResult, meta models.ReportMetadata) models.Report {
	report := models.Report{
		Metadata: meta,
		Quotes:   make([]models.Quote, 0),
		Diagnostics: models.Diagnostics{
			Planned: len(results),
		},
	}

	for _, r := range results {
		report.Diagnostics.CallsUsed += r.Calls
		if r.Cached {
			report.Diagnostics.Cached++
		}

		switch {
		case r.Status == models.StatusError:
			report.Diagnostics.Failed++
			report.Diagnostics.Failures = append(report.Diagnostics.Failures, models.FailedQuery{
				Destination: r.Entry.Destination.Key,
				Outbound:    r.Entry.Outbound,
				Return:      r.Entry.Return,
				Error:       r.Error,
			})
		case r.Status == models.StatusEmpty || len(r.Quotes) == 0:
			report.Diagnostics.Empty++
		default:
			report.Diagnostics.Succeeded++
			report.Quotes = append(report.Quotes, r.Quotes...)
		}
	}

	SortQuotes(report.Quotes)
	report.Statistics = computeStatistics(report.Quotes)
	return report
}

// SortQuotes orders quotes by price, then total duration, then destination
// key, falling back to the remaining content so the order is total.
func SortQuotes(quotes []models.Quote) {
	slices.SortStableFunc(quotes, CompareQuotes)
}

func CompareQuotes(a, b models.Quote) int {
	if c := cmp.Compare(a.Price.Amount, b.Price.Amount); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Duration.TotalMinutes, b.Duration.TotalMinutes); c != 0 {
		return c
	}
	if c := cmp.Compare(a.DestinationKey, b.DestinationKey); c != 0 {
		return c
	}
	if c := a.OutboundDate.Compare(b.OutboundDate); c != 0 {
		return c
	}
	if c := a.ReturnDate.Compare(b.ReturnDate); c != 0 {
		return c
	}
	if c := strings.Compare(a.CarrierNames(), b.CarrierNames()); c != 0 {
		return c
	}
	if c := strings.Compare(a.FlightNumbers(), b.FlightNumbers()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Emissions.ThisFlightKg, b.Emissions.ThisFlightKg); c != 0 {
		return c
	}
	if c := slices.CompareFunc(a.Segments, b.Segments, compareSegments); c != 0 {
		return c
	}
	if c := slices.CompareFunc(a.Layovers, b.Layovers, compareLayovers); c != 0 {
		return c
	}
	if c := strings.Compare(a.Price.Currency, b.Price.Currency); c != 0 {
		return c
	}
	if c := strings.Compare(a.Provider, b.Provider); c != 0 {
		return c
	}
	if c := strings.Compare(a.DestinationCity, b.DestinationCity); c != 0 {
		return c
	}
	if c := slices.Compare(a.Carriers, b.Carriers); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Emissions.TypicalKg, b.Emissions.TypicalKg); c != 0 {
		return c
	}
	return cmp.Compare(a.Emissions.DifferencePercent, b.Emissions.DifferencePercent)
}

func compareSegments(a, b models.Segment) int {
	if c := a.DepartureTime.Compare(b.DepartureTime); c != 0 {
		return c
	}
	if c := a.ArrivalTime.Compare(b.ArrivalTime); c != 0 {
		return c
	}
	if c := strings.Compare(a.TravelClass, b.TravelClass); c != 0 {
		return c
	}
	if c := strings.Compare(a.Origin, b.Origin); c != 0 {
		return c
	}
	if c := strings.Compare(a.Destination, b.Destination); c != 0 {
		return c
	}
	if c := strings.Compare(a.Airline, b.Airline); c != 0 {
		return c
	}
	if c := strings.Compare(a.FlightNumber, b.FlightNumber); c != 0 {
		return c
	}
	return cmp.Compare(a.DurationMinutes, b.DurationMinutes)
}

func compareLayovers(a, b models.Layover) int {
	if c := strings.Compare(a.Airport, b.Airport); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Duration, b.Duration); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	switch {
	case a.Overnight == b.Overnight:
		return 0
	case b.Overnight:
		return -1
	default:
		return 1
	}
}

// TopN returns the n cheapest quotes of the report.
func TopN(report models.Report, n int) []models.Quote {
	if n <= 0 {
		return []models.Quote{}
	}
	if n > len(report.Quotes) {
		n = len(report.Quotes)
	}
	top := make([]models.Quote, n)
	copy(top, report.Quotes[:n])
	return top
}

// GroupByDestination partitions the ranked quotes by destination key, keeping
// the report's price order inside each group. Destinations without quotes are
// absent from the map.
func GroupByDestination(report models.Report) map[string][]models.Quote {
	groups := make(map[string][]models.Quote)
	for _, q := range report.Quotes {
		groups[q.DestinationKey] = append(groups[q.DestinationKey], q)
	}
	return groups
}

// DestinationOrder lists the destination keys of a grouping by cheapest quote.
func DestinationOrder(report models.Report) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, q := range report.Quotes {
		if !seen[q.DestinationKey] {
			seen[q.DestinationKey] = true
			keys = append(keys, q.DestinationKey)
		}
	}
	return keys
}
