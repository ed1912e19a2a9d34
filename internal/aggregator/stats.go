package aggregator

import (
	"slices"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

func computeStatistics(quotes []models.Quote) models.Statistics {
	if len(quotes) == 0 {
		return models.Statistics{HasData: false}
	}

	stats := models.Statistics{
		HasData:       true,
		ByDestination: make(map[string]models.PriceStats),
		ByMonth:       make(map[string]models.MonthStats),
		ByWeekday:     make(map[string]models.PriceStats),
	}

	all := make([]float64, 0, len(quotes))
	byDest := make(map[string][]float64)
	byMonth := make(map[string][]float64)
	byWeekday := make(map[string][]float64)
	bestByMonth := make(map[string]models.Quote)

	// quotes are already ranked, so the first quote seen per month is its best deal
	for _, q := range quotes {
		price := q.Price.Amount
		all = append(all, price)
		byDest[q.DestinationKey] = append(byDest[q.DestinationKey], price)

		month := q.OutboundDate.Format("2006-01")
		if _, ok := bestByMonth[month]; !ok {
			bestByMonth[month] = q
		}
		byMonth[month] = append(byMonth[month], price)

		weekday := q.OutboundDate.Weekday().String()
		byWeekday[weekday] = append(byWeekday[weekday], price)

		if q.Direct() {
			stats.Direct++
		} else {
			stats.Connecting++
		}
	}

	stats.Overall = priceStats(all)
	for k, prices := range byDest {
		stats.ByDestination[k] = priceStats(prices)
	}
	for k, prices := range byMonth {
		stats.ByMonth[k] = models.MonthStats{
			PriceStats: priceStats(prices),
			BestDeal:   bestByMonth[k],
		}
	}
	for k, prices := range byWeekday {
		stats.ByWeekday[k] = priceStats(prices)
	}

	return stats
}

func priceStats(prices []float64) models.PriceStats {
	if len(prices) == 0 {
		return models.PriceStats{}
	}

	sorted := slices.Clone(prices)
	slices.Sort(sorted)

	sum := 0.0
	for _, p := range sorted {
		sum += p
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return models.PriceStats{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Median: median,
	}
}
