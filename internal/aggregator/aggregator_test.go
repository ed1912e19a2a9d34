package aggregator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

var (
	parisDest  = models.Destination{Key: "paris", City: "Paris", Codes: []string{"CDG", "ORY"}}
	londonDest = models.Destination{Key: "london", City: "London", Codes: []string{"LHR", "LGW", "STN"}}
)

func quote(dest models.Destination, price float64, minutes int, outbound time.Time) models.Quote {
	return models.Quote{
		Provider:        "test",
		DestinationKey:  dest.Key,
		DestinationCity: dest.City,
		OutboundDate:    outbound,
		ReturnDate:      outbound.AddDate(0, 0, 5),
		Price:           models.Price{Amount: price, Currency: "USD"},
		Duration:        models.NewDuration(minutes),
		Carriers:        []string{"El Al"},
		Segments: []models.Segment{
			{Origin: "TLV", Destination: dest.Codes[0], Airline: "El Al", FlightNumber: "LY 323"},
		},
	}
}

func success(dest models.Destination, outbound time.Time, quotes ...models.Quote) models.SearchResult {
	return models.SearchResult{
		Entry:  models.PlanEntry{Outbound: outbound, Return: outbound.AddDate(0, 0, 5), Destination: dest},
		Status: models.StatusSuccess,
		Quotes: quotes,
		Calls:  1,
	}
}

func failure(dest models.Destination, outbound time.Time, msg string) models.SearchResult {
	return models.SearchResult{
		Entry:  models.PlanEntry{Outbound: outbound, Return: outbound.AddDate(0, 0, 5), Destination: dest},
		Status: models.StatusError,
		Error:  msg,
		Calls:  1,
	}
}

var apr3 = time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC)

func prices(quotes []models.Quote) []float64 {
	out := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.Price.Amount)
	}
	return out
}

func TestAggregate_ParisLondonExample(t *testing.T) {
	results := []models.SearchResult{
		success(parisDest, apr3, quote(parisDest, 533, 300, apr3)),
		success(parisDest, apr3.AddDate(0, 0, 7), quote(parisDest, 453, 310, apr3.AddDate(0, 0, 7))),
		success(londonDest, apr3, quote(londonDest, 551, 330, apr3)),
	}

	report := Aggregate(results, models.ReportMetadata{Origin: "TLV"})

	assert.Equal(t, []float64{453, 533, 551}, prices(report.Quotes))
	assert.Equal(t, "paris", report.Quotes[0].DestinationKey)
	assert.Equal(t, "london", report.Quotes[2].DestinationKey)

	top := TopN(report, 1)
	require.Len(t, top, 1)
	assert.Equal(t, 453.0, top[0].Price.Amount)
	assert.Equal(t, "paris", top[0].DestinationKey)

	groups := GroupByDestination(report)
	require.Len(t, groups, 2)
	assert.Equal(t, []float64{453, 533}, prices(groups["paris"]))
	assert.Equal(t, []float64{551}, prices(groups["london"]))
	assert.Equal(t, []string{"paris", "london"}, DestinationOrder(report))
}

func TestAggregate_FailedAndEmptyCalls(t *testing.T) {
	results := []models.SearchResult{
		failure(parisDest, apr3, "timeout"),
		success(parisDest, apr3.AddDate(0, 0, 1),
			quote(parisDest, 500, 300, apr3.AddDate(0, 0, 1)),
			quote(parisDest, 520, 300, apr3.AddDate(0, 0, 1)),
			quote(parisDest, 610, 420, apr3.AddDate(0, 0, 1)),
		),
		failure(londonDest, apr3, "quota exceeded"),
		success(londonDest, apr3.AddDate(0, 0, 1),
			quote(londonDest, 480, 330, apr3.AddDate(0, 0, 1)),
			quote(londonDest, 505, 330, apr3.AddDate(0, 0, 1)),
			quote(londonDest, 700, 500, apr3.AddDate(0, 0, 1)),
		),
	}

	report := Aggregate(results, models.ReportMetadata{})

	assert.Len(t, report.Quotes, 6)
	assert.Equal(t, 4, report.Diagnostics.Planned)
	assert.Equal(t, 2, report.Diagnostics.Failed)
	assert.Equal(t, 2, report.Diagnostics.Succeeded)
	assert.Equal(t, 0, report.Diagnostics.Empty)
	assert.Equal(t, 4, report.Diagnostics.CallsUsed)
	require.Len(t, report.Diagnostics.Failures, 2)
	assert.Equal(t, "timeout", report.Diagnostics.Failures[0].Error)
	assert.Equal(t, "london", report.Diagnostics.Failures[1].Destination)
}

func TestAggregate_EmptyResultsAreCountedSeparately(t *testing.T) {
	empty := success(parisDest, apr3)
	empty.Status = models.StatusEmpty
	noQuotes := success(londonDest, apr3)
	cached := success(parisDest, apr3.AddDate(0, 0, 1), quote(parisDest, 400, 300, apr3.AddDate(0, 0, 1)))
	cached.Cached = true
	cached.Calls = 0

	report := Aggregate([]models.SearchResult{empty, noQuotes, cached}, models.ReportMetadata{})

	assert.Equal(t, 2, report.Diagnostics.Empty)
	assert.Equal(t, 1, report.Diagnostics.Succeeded)
	assert.Equal(t, 1, report.Diagnostics.Cached)
	assert.Equal(t, 2, report.Diagnostics.CallsUsed)
	assert.Len(t, report.Quotes, 1)
}

func TestAggregate_NoData(t *testing.T) {
	report := Aggregate([]models.SearchResult{failure(parisDest, apr3, "boom")}, models.ReportMetadata{})

	assert.NotNil(t, report.Quotes)
	assert.Empty(t, report.Quotes)
	assert.False(t, report.Statistics.HasData)
	assert.Zero(t, report.Statistics.Overall.Mean)
	assert.Nil(t, report.Statistics.ByDestination)
	assert.Empty(t, GroupByDestination(report))
	assert.Empty(t, TopN(report, 5))

	none := Aggregate(nil, models.ReportMetadata{})
	assert.False(t, none.Statistics.HasData)
	assert.Equal(t, 0, none.Diagnostics.Planned)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	var results []models.SearchResult
	for i := 0; i < 12; i++ {
		dest := parisDest
		if i%3 == 0 {
			dest = londonDest
		}
		out := apr3.AddDate(0, 0, i)
		results = append(results, success(dest, out,
			quote(dest, float64(400+(i%4)*25), 300+(i%2)*15, out),
			quote(dest, 450, 300, out),
		))
	}
	results = append(results, failure(parisDest, apr3, "x"))

	want := Aggregate(results, models.ReportMetadata{})

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 10; round++ {
		shuffled := make([]models.SearchResult, len(results))
		copy(shuffled, results)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Aggregate(shuffled, models.ReportMetadata{})
		assert.Equal(t, want.Quotes, got.Quotes)
		assert.Equal(t, want.Statistics, got.Statistics)
	}
}

func TestAggregate_OrderIndependentOnSegmentDetails(t *testing.T) {
	morning := quote(parisDest, 453, 300, apr3)
	morning.Segments[0].DepartureTime = apr3.Add(6 * time.Hour)
	morning.Segments[0].TravelClass = "Economy"

	evening := quote(parisDest, 453, 300, apr3)
	evening.Segments[0].DepartureTime = apr3.Add(18 * time.Hour)
	evening.Segments[0].TravelClass = "Business"

	require.NotZero(t, CompareQuotes(morning, evening))

	ab := Aggregate([]models.SearchResult{success(parisDest, apr3, morning), success(parisDest, apr3, evening)}, models.ReportMetadata{})
	ba := Aggregate([]models.SearchResult{success(parisDest, apr3, evening), success(parisDest, apr3, morning)}, models.ReportMetadata{})
	assert.Equal(t, ab.Quotes, ba.Quotes)
	assert.Equal(t, "Economy", ab.Quotes[0].Segments[0].TravelClass)

	base := quote(parisDest, 453, 300, apr3)
	other := quote(parisDest, 453, 300, apr3)
	other.Provider = "fixture"
	assert.NotZero(t, CompareQuotes(base, other))
	assert.Zero(t, CompareQuotes(base, quote(parisDest, 453, 300, apr3)))
}

func TestSortQuotes_TieBreaks(t *testing.T) {
	slowParis := quote(parisDest, 450, 400, apr3)
	fastParis := quote(parisDest, 450, 300, apr3)
	fastLondon := quote(londonDest, 450, 300, apr3)

	quotes := []models.Quote{slowParis, fastParis, fastLondon}
	SortQuotes(quotes)

	assert.Equal(t, "london", quotes[0].DestinationKey)
	assert.Equal(t, 300, quotes[1].Duration.TotalMinutes)
	assert.Equal(t, "paris", quotes[1].DestinationKey)
	assert.Equal(t, 400, quotes[2].Duration.TotalMinutes)
}

func TestTopN(t *testing.T) {
	report := Aggregate([]models.SearchResult{
		success(parisDest, apr3, quote(parisDest, 300, 300, apr3), quote(parisDest, 200, 300, apr3), quote(parisDest, 100, 300, apr3)),
	}, models.ReportMetadata{})

	for _, n := range []int{-1, 0, 1, 2, 3, 10} {
		top := TopN(report, n)
		want := n
		if want < 0 {
			want = 0
		}
		if want > len(report.Quotes) {
			want = len(report.Quotes)
		}
		assert.Len(t, top, want)
		assert.Equal(t, report.Quotes[:want], top)
	}

	top := TopN(report, 2)
	top[0].Price.Amount = 1
	assert.Equal(t, 100.0, report.Quotes[0].Price.Amount, "TopN must not alias the report")
}

func TestGroupByDestination_PartitionsQuotes(t *testing.T) {
	report := Aggregate([]models.SearchResult{
		success(parisDest, apr3, quote(parisDest, 300, 300, apr3), quote(parisDest, 300, 300, apr3)),
		success(londonDest, apr3, quote(londonDest, 250, 300, apr3)),
		failure(parisDest, apr3, "err"),
	}, models.ReportMetadata{})

	groups := GroupByDestination(report)

	var union []models.Quote
	for _, key := range DestinationOrder(report) {
		union = append(union, groups[key]...)
	}
	assert.ElementsMatch(t, report.Quotes, union)
	assert.Len(t, groups["paris"], 2, "identical quotes are not merged")
}
