package ranking

import (
	"cmp"
	"math"
	"slices"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

type Scored struct {
	Quote models.Quote `json:"quote"`
	Score float64      `json:"best_value_score"`
}

// CalculateScores scores every quote against the most expensive and the
// longest quote in the set.
func CalculateScores(quotes []models.Quote) []Scored {
	if len(quotes) == 0 {
		return nil
	}

	maxPrice := findMaxPrice(quotes)
	maxDuration := findMaxDuration(quotes)

	result := make([]Scored, len(quotes))
	for i, q := range quotes {
		result[i] = Scored{Quote: q, Score: CalculateBestValue(q, maxPrice, maxDuration)}
	}
	return result
}

// Lower score = better value
func CalculateBestValue(q models.Quote, maxPrice, maxDuration float64) float64 {
	priceScore := 0.0
	if maxPrice > 0 {
		priceScore = (q.Price.Amount / maxPrice) * 100
	}

	durationScore := 0.0
	if maxDuration > 0 {
		durationScore = (float64(q.Duration.TotalMinutes) / maxDuration) * 100
	}

	stopsScore := float64(q.Stops()) * 15
	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)

	return math.Round(score*100) / 100
}

// BestValue returns the n best-scoring quotes. Equal scores keep the input
// order, which for a report is price order.
func BestValue(quotes []models.Quote, n int) []Scored {
	scored := CalculateScores(quotes)
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(a.Score, b.Score)
	})
	if n >= 0 && n < len(scored) {
		scored = scored[:n]
	}
	return scored
}

func findMaxPrice(quotes []models.Quote) float64 {
	maxPrice := 0.0
	for _, q := range quotes {
		if q.Price.Amount > maxPrice {
			maxPrice = q.Price.Amount
		}
	}
	return maxPrice
}

func findMaxDuration(quotes []models.Quote) float64 {
	maxDuration := 0.0
	for _, q := range quotes {
		dur := float64(q.Duration.TotalMinutes)
		if dur > maxDuration {
			maxDuration = dur
		}
	}
	return maxDuration
}
