package planner

import (
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

type DatePair struct {
	Outbound time.Time
	Return   time.Time
}

// Candidates lists every (outbound, return) pair in the window whose outbound
// weekday is accepted, in ascending date order.
func Candidates(window TravelWindow) ([]DatePair, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	first, last := window.Bounds()
	var pairs []DatePair
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !window.acceptsWeekday(WeekdayOf(day)) {
			continue
		}
		ret := day.AddDate(0, 0, window.DurationDays)
		if window.ReturnWithinWindow && ret.After(last) {
			continue
		}
		pairs = append(pairs, DatePair{Outbound: day, Return: ret})
	}

	if len(pairs) == 0 {
		return nil, &ConfigurationError{Field: "window", Reason: "no departure dates match the configured weekdays"}
	}
	return pairs, nil
}

// EnumerateDates builds the query plan: the (optionally capped) candidate
// dates crossed with every destination, ordered by date and then by the
// destinations' input order. maxPerDestination <= 0 disables the cap.
func EnumerateDates(window TravelWindow, destinations []models.Destination, maxPerDestination int) ([]models.PlanEntry, error) {
	dests, err := normalizeDestinations(destinations)
	if err != nil {
		return nil, err
	}

	pairs, err := Candidates(window)
	if err != nil {
		return nil, err
	}

	if maxPerDestination > 0 {
		pairs = SelectDistributed(pairs, maxPerDestination)
	}

	plan := make([]models.PlanEntry, 0, len(pairs)*len(dests))
	for _, p := range pairs {
		for _, d := range dests {
			plan = append(plan, models.PlanEntry{
				Outbound:    p.Outbound,
				Return:      p.Return,
				Destination: d,
			})
		}
	}
	return plan, nil
}

// SelectDistributed picks at most limit pairs spread across the months of the
// input. Each month gets limit/months slots, the remainder going to the earliest
// months, and slots are filled at evenly spaced indices within the month.
func SelectDistributed(pairs []DatePair, limit int) []DatePair {
	if limit <= 0 || len(pairs) <= limit {
		return pairs
	}

	var months []string
	byMonth := make(map[string][]DatePair)
	for _, p := range pairs {
		key := p.Outbound.Format("2006-01")
		if _, ok := byMonth[key]; !ok {
			months = append(months, key)
		}
		byMonth[key] = append(byMonth[key], p)
	}

	perMonth := limit / len(months)
	extra := limit % len(months)

	selected := make([]DatePair, 0, limit)
	for i, month := range months {
		candidates := byMonth[month]
		slots := perMonth
		if i < extra {
			slots++
		}
		if slots == 0 {
			continue
		}
		if len(candidates) <= slots {
			selected = append(selected, candidates...)
			continue
		}
		step := float64(len(candidates)) / float64(slots)
		for j := 0; j < slots; j++ {
			selected = append(selected, candidates[int(float64(j)*step)])
		}
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func normalizeDestinations(destinations []models.Destination) ([]models.Destination, error) {
	if len(destinations) == 0 {
		return nil, &ConfigurationError{Field: "destinations", Reason: "at least one destination is required"}
	}

	seen := make(map[string]bool, len(destinations))
	result := make([]models.Destination, 0, len(destinations))
	for _, d := range destinations {
		key := strings.ToLower(strings.TrimSpace(d.Key))
		if key == "" {
			return nil, &ConfigurationError{Field: "destinations", Reason: "destination key is required"}
		}
		if seen[key] {
			continue
		}

		codes := uniqueCodes(d.Codes)
		if len(codes) == 0 {
			return nil, &ConfigurationError{Field: "destinations." + key, Reason: "at least one airport code is required"}
		}

		seen[key] = true
		city := d.City
		if city == "" {
			city = strings.TrimSpace(d.Key)
		}
		result = append(result, models.Destination{
			Key:     key,
			City:    city,
			Country: d.Country,
			Codes:   codes,
		})
	}
	return result, nil
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	var result []string
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result
}
