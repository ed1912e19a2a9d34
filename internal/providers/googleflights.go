package providers

import (
	"math"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/timezone"
	"github.com/dharmasatrya/weekendfares/pkg/currency"
)

// googleFlightsResponse is the subset of the SerpApi google_flights engine
// response the scanner uses.
type googleFlightsResponse struct {
	Error        string                `json:"error,omitempty"`
	BestFlights  []googleFlightsOption `json:"best_flights"`
	OtherFlights []googleFlightsOption `json:"other_flights"`
}

type googleFlightsOption struct {
	Flights         []googleFlightsLeg     `json:"flights"`
	Layovers        []googleFlightsLayover `json:"layovers,omitempty"`
	TotalDuration   int                    `json:"total_duration"`
	CarbonEmissions googleFlightsCarbon    `json:"carbon_emissions"`
	Price           float64                `json:"price"`
	Type            string                 `json:"type,omitempty"`
}

type googleFlightsLeg struct {
	DepartureAirport googleFlightsAirport `json:"departure_airport"`
	ArrivalAirport   googleFlightsAirport `json:"arrival_airport"`
	Duration         int                  `json:"duration"`
	Airline          string               `json:"airline"`
	FlightNumber     string               `json:"flight_number"`
	TravelClass      string               `json:"travel_class"`
}

type googleFlightsAirport struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

type googleFlightsLayover struct {
	Duration  int    `json:"duration"`
	Name      string `json:"name"`
	ID        string `json:"id"`
	Overnight bool   `json:"overnight,omitempty"`
}

type googleFlightsCarbon struct {
	ThisFlight          float64 `json:"this_flight"`
	TypicalForThisRoute float64 `json:"typical_for_this_route"`
	DifferencePercent   int     `json:"difference_percent"`
}

// quotes turns every priced itinerary of both result lists into a Quote.
// Itineraries without a price or with unparseable times are skipped.
func (r googleFlightsResponse) quotes(provider string, req models.SearchRequest) []models.Quote {
	options := make([]googleFlightsOption, 0, len(r.BestFlights)+len(r.OtherFlights))
	options = append(options, r.BestFlights...)
	options = append(options, r.OtherFlights...)

	result := make([]models.Quote, 0, len(options))
	for _, o := range options {
		q, ok := normalizeOption(o, provider, req)
		if !ok {
			continue
		}
		result = append(result, q)
	}
	return result
}

func normalizeOption(o googleFlightsOption, provider string, req models.SearchRequest) (models.Quote, bool) {
	if o.Price <= 0 || len(o.Flights) == 0 {
		return models.Quote{}, false
	}

	segments := make([]models.Segment, 0, len(o.Flights))
	var carriers []string
	seen := make(map[string]bool)
	for _, leg := range o.Flights {
		dep, err := timezone.ParseAirportTime(leg.DepartureAirport.Time, leg.DepartureAirport.ID)
		if err != nil {
			return models.Quote{}, false
		}
		arr, err := timezone.ParseAirportTime(leg.ArrivalAirport.Time, leg.ArrivalAirport.ID)
		if err != nil {
			return models.Quote{}, false
		}

		segments = append(segments, models.Segment{
			Origin:          leg.DepartureAirport.ID,
			Destination:     leg.ArrivalAirport.ID,
			Airline:         leg.Airline,
			FlightNumber:    leg.FlightNumber,
			DepartureTime:   dep,
			ArrivalTime:     arr,
			DurationMinutes: leg.Duration,
			TravelClass:     leg.TravelClass,
		})

		if leg.Airline != "" && !seen[leg.Airline] {
			seen[leg.Airline] = true
			carriers = append(carriers, leg.Airline)
		}
	}

	var layovers []models.Layover
	for _, l := range o.Layovers {
		layovers = append(layovers, models.Layover{
			Airport:   l.ID,
			Name:      l.Name,
			Duration:  l.Duration,
			Overnight: l.Overnight,
		})
	}

	total := o.TotalDuration
	if total == 0 {
		for _, s := range segments {
			total += s.DurationMinutes
		}
		for _, l := range layovers {
			total += l.Duration
		}
	}

	return models.Quote{
		Provider:        provider,
		DestinationKey:  req.Entry.Destination.Key,
		DestinationCity: req.Entry.Destination.City,
		OutboundDate:    req.Entry.Outbound,
		ReturnDate:      req.Entry.Return,
		Price: models.Price{
			Amount:    o.Price,
			Currency:  req.Currency,
			Formatted: currency.Format(o.Price, req.Currency),
		},
		Duration: models.NewDuration(total),
		Carriers: carriers,
		Segments: segments,
		Layovers: layovers,
		Emissions: models.Emissions{
			ThisFlightKg:      gramsToKg(o.CarbonEmissions.ThisFlight),
			TypicalKg:         gramsToKg(o.CarbonEmissions.TypicalForThisRoute),
			DifferencePercent: o.CarbonEmissions.DifferencePercent,
		},
	}, true
}

func gramsToKg(g float64) float64 {
	return math.Round(g/100) / 10
}
