package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/providers/data"
	"github.com/dharmasatrya/weekendfares/internal/timezone"
)

// FixtureProvider answers from recorded responses without network access.
// Times are shifted to the requested outbound date and prices vary by a
// stable per-query factor, so repeated runs produce identical reports.
type FixtureProvider struct {
	baseDate time.Time
}

func NewFixtureProvider() (*FixtureProvider, error) {
	base, err := time.Parse(models.DateLayout, data.BaseDate)
	if err != nil {
		return nil, err
	}
	return &FixtureProvider{baseDate: base}, nil
}

func (p *FixtureProvider) Name() string {
	return "fixture"
}

func (p *FixtureProvider) Search(ctx context.Context, req models.SearchRequest) ([]models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !strings.EqualFold(req.Origin, data.Origin) {
		return nil, ErrNoQuotes
	}

	var raw []byte
	for _, code := range req.Entry.Destination.Codes {
		if b, ok := data.Response(code); ok {
			raw = b
			break
		}
	}
	if raw == nil {
		return nil, ErrNoQuotes
	}

	var resp googleFlightsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	days := int(math.Round(req.Entry.Outbound.Sub(p.baseDate).Hours() / 24))
	factor := priceFactor(req.Entry, days)
	shift := func(options []googleFlightsOption) {
		for i := range options {
			options[i].Price = math.Round(options[i].Price * factor)
			for j := range options[i].Flights {
				leg := &options[i].Flights[j]
				leg.DepartureAirport.Time = shiftLocal(leg.DepartureAirport.Time, days)
				leg.ArrivalAirport.Time = shiftLocal(leg.ArrivalAirport.Time, days)
			}
		}
	}
	shift(resp.BestFlights)
	shift(resp.OtherFlights)

	quotes := resp.quotes(p.Name(), req)
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return quotes, nil
}

// priceFactor is 1 on the recorded date and otherwise in [0.85, 1.15].
func priceFactor(entry models.PlanEntry, days int) float64 {
	if days == 0 {
		return 1
	}
	h := fnv.New32a()
	h.Write([]byte(entry.Destination.Key + "|" + entry.OutboundString() + "|" + entry.ReturnString()))
	return 0.85 + float64(h.Sum32()%31)/100
}

func shiftLocal(s string, days int) string {
	t, err := time.Parse(timezone.LocalLayout, s)
	if err != nil {
		return s
	}
	return t.AddDate(0, 0, days).Format(timezone.LocalLayout)
}
