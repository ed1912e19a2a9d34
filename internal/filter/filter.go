package filter

import (
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/timezone"
)

// Apply returns the quotes that pass every filter, in their original order.
func Apply(quotes []models.Quote, filters *models.QuoteFilters) []models.Quote {
	if filters.Empty() {
		return quotes
	}

	result := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if matchesFilters(q, filters) {
			result = append(result, q)
		}
	}
	return result
}

func matchesFilters(q models.Quote, filters *models.QuoteFilters) bool {
	if filters.PriceMax != nil && q.Price.Amount > *filters.PriceMax {
		return false
	}

	if filters.DirectOnly && !q.Direct() {
		return false
	}
	if filters.MaxStops != nil && q.Stops() > *filters.MaxStops {
		return false
	}

	if len(filters.Airlines) > 0 && !anyCarrier(q, filters.Airlines) {
		return false
	}

	if filters.MaxDuration != nil && q.Duration.TotalMinutes > *filters.MaxDuration {
		return false
	}

	if len(q.Segments) > 0 {
		first := q.Segments[0]
		local := timezone.ConvertToAirport(first.DepartureTime, first.Origin)
		depTime := local.Hour()*60 + local.Minute()

		if filters.DepartureTimeMin != nil {
			if minTime, err := parseTimeOfDay(*filters.DepartureTimeMin); err == nil && depTime < minTime {
				return false
			}
		}
		if filters.DepartureTimeMax != nil {
			if maxTime, err := parseTimeOfDay(*filters.DepartureTimeMax); err == nil && depTime > maxTime {
				return false
			}
		}
	}

	return true
}

// anyCarrier matches by airline name or by flight number prefix ("LY", "AF").
func anyCarrier(q models.Quote, airlines []string) bool {
	for _, want := range airlines {
		for _, c := range q.Carriers {
			if strings.EqualFold(c, want) {
				return true
			}
		}
		for _, s := range q.Segments {
			if strings.EqualFold(s.Airline, want) {
				return true
			}
			code, _, _ := strings.Cut(s.FlightNumber, " ")
			if code != "" && strings.EqualFold(code, want) {
				return true
			}
		}
	}
	return false
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
