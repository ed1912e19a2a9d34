package report

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/models"
)

// Subject is the email subject line, for example
// "Flight Monitor Report - Best: $453 USD - Mar 02".
func Subject(report models.Report) string {
	best := "no flights"
	if report.Statistics.HasData {
		best = PriceLabel(report.Statistics.Overall.Min, reportCurrency(report))
	}
	return fmt.Sprintf("Flight Monitor Report - Best: %s - %s", best, report.Metadata.GeneratedAt.Format("Jan 02"))
}

type htmlDeal struct {
	Rank      int
	Price     string
	City      string
	Airline   string
	Outbound  string
	Return    string
	Duration  string
	Stops     string
	Direct    bool
	CarbonKg  float64
	Departure string
}

type htmlMonth struct {
	Label    string
	Count    int
	From     string
	Average  string
	BestDate string
	BestCity string
	Best     string
	Airline  string
}

type htmlWeekday struct {
	Day     string
	Average string
}

type htmlData struct {
	Route       string
	Window      string
	Generated   string
	HasData     bool
	BestPrice   string
	AvgPrice    string
	Options     int
	CallsUsed   int
	Failed      int
	Planned     int
	Deals       []htmlDeal
	Months      []htmlMonth
	PriceRange  string
	Spread      string
	Direct      int
	BestMonth   string
	Weekdays    []htmlWeekday
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
.container { max-width: 800px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; }
.header { text-align: center; color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 15px; }
.summary { background: #ecf0f1; padding: 15px; border-radius: 5px; margin: 20px 0; }
.stats { display: flex; justify-content: space-around; }
.stat { text-align: center; }
.deal { background: #e8f5e8; padding: 10px; margin: 5px 0; border-left: 4px solid #27ae60; }
.month { background: #ffeaa7; padding: 10px; margin: 5px 0; }
.footer { text-align: center; color: #7f8c8d; margin-top: 30px; border-top: 1px solid #bdc3c7; padding-top: 15px; }
.price { font-weight: bold; color: #27ae60; }
.airline { color: #3498db; }
.direct { color: #e74c3c; font-weight: bold; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Flight Monitor Report</h1>
    <h2>{{.Route}}</h2>
    <p>{{.Window}}</p>
    <p>{{.Generated}}</p>
  </div>
  <div class="summary">
    <h2>Executive Summary</h2>
    <div class="stats">
      <div class="stat"><h3>{{.BestPrice}}</h3><p>Best Deal</p></div>
      <div class="stat"><h3>{{.AvgPrice}}</h3><p>Average Price</p></div>
      <div class="stat"><h3>{{.Options}}</h3><p>Options Found</p></div>
      <div class="stat"><h3>{{.CallsUsed}}</h3><p>API Calls Used</p></div>
    </div>
    <p>{{.Failed}} failed of {{.Planned}} planned queries</p>
  </div>
{{- if .HasData}}
  <div class="best-deals">
    <h2>Top {{len .Deals}} Best Deals</h2>
{{- range .Deals}}
    <div class="deal">
      <strong>#{{.Rank}}. <span class="price">{{.Price}}</span></strong> - {{.City}} - <span class="airline">{{.Airline}}</span><br>
      {{.Outbound}} &rarr; {{.Return}}, departs {{.Departure}}<br>
      {{.Duration}} | <span class="{{if .Direct}}direct{{end}}">{{.Stops}}</span> | {{printf "%.1f" .CarbonKg}}kg CO2
    </div>
{{- end}}
  </div>
  <div class="month-analysis">
    <h2>Monthly Breakdown</h2>
{{- range .Months}}
    <div class="month">
      <strong>{{.Label}}</strong>: {{.Count}} options | From <span class="price">{{.From}}</span> | Avg: {{.Average}}<br>
      Best: {{.BestDate}} {{.BestCity}} - <span class="price">{{.Best}}</span> ({{.Airline}})
    </div>
{{- end}}
  </div>
  <div class="summary">
    <h2>Market Insights</h2>
    <ul>
      <li><strong>Price Range:</strong> {{.PriceRange}} ({{.Spread}} spread)</li>
      <li><strong>Direct Flights:</strong> {{.Direct}} out of {{.Options}} options</li>
      <li><strong>Best Month:</strong> {{.BestMonth}}</li>
{{- range .Weekdays}}
      <li><strong>{{.Day}} departures:</strong> avg {{.Average}}</li>
{{- end}}
    </ul>
  </div>
{{- else}}
  <div class="summary"><p>No flights were found in this run.</p></div>
{{- end}}
  <div class="footer">
    <p>Automated Flight Monitor</p>
  </div>
</div>
</body>
</html>
`))

// RenderHTML builds the email body for a report.
func RenderHTML(report models.Report, top int) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, buildHTMLData(report, top)); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func buildHTMLData(report models.Report, top int) htmlData {
	code := reportCurrency(report)
	meta := report.Metadata
	stats := report.Statistics

	data := htmlData{
		Route:     fmt.Sprintf("%s → %s", meta.Origin, strings.Join(meta.Destinations, ", ")),
		Generated: meta.GeneratedAt.UTC().Format("January 02, 2006 at 15:04 UTC"),
		HasData:   stats.HasData,
		BestPrice: "-",
		AvgPrice:  "-",
		Options:   len(report.Quotes),
		CallsUsed: report.Diagnostics.CallsUsed,
		Failed:    report.Diagnostics.Failed,
		Planned:   report.Diagnostics.Planned,
		BestMonth: "N/A",
	}
	if !meta.WindowStart.IsZero() {
		data.Window = fmt.Sprintf("%s to %s", meta.WindowStart.Format("Jan 02, 2006"), meta.WindowEnd.Format("Jan 02, 2006"))
	}
	if !stats.HasData {
		return data
	}

	o := stats.Overall
	data.BestPrice = PriceLabel(o.Min, code)
	data.AvgPrice = PriceLabel(o.Mean, code)
	data.PriceRange = PriceLabel(o.Min, code) + " - " + PriceLabel(o.Max, code)
	data.Spread = PriceLabel(o.Max-o.Min, code)
	data.Direct = stats.Direct

	for i, q := range aggregator.TopN(report, top) {
		data.Deals = append(data.Deals, htmlDeal{
			Rank:      i + 1,
			Price:     PriceLabel(q.Price.Amount, q.Price.Currency),
			City:      q.DestinationCity,
			Airline:   q.CarrierNames(),
			Outbound:  DateLabel(q.OutboundDate),
			Return:    DateLabel(q.ReturnDate),
			Duration:  FormatDuration(q.Duration),
			Stops:     StopsLabel(q),
			Direct:    q.Direct(),
			CarbonKg:  q.Emissions.ThisFlightKg,
			Departure: DepartureLocal(q),
		})
	}

	months := make([]string, 0, len(stats.ByMonth))
	for m := range stats.ByMonth {
		months = append(months, m)
	}
	slices.Sort(months)

	bestMin := 0.0
	for _, m := range months {
		ms := stats.ByMonth[m]
		data.Months = append(data.Months, htmlMonth{
			Label:    monthLabel(m),
			Count:    ms.Count,
			From:     PriceLabel(ms.Min, code),
			Average:  PriceLabel(ms.Mean, code),
			BestDate: DateLabel(ms.BestDeal.OutboundDate),
			BestCity: ms.BestDeal.DestinationCity,
			Best:     PriceLabel(ms.BestDeal.Price.Amount, code),
			Airline:  ms.BestDeal.CarrierNames(),
		})
		if data.BestMonth == "N/A" || ms.Min < bestMin {
			data.BestMonth = monthLabel(m)
			bestMin = ms.Min
		}
	}

	for _, day := range weekdayOrder {
		if ds, ok := stats.ByWeekday[day]; ok {
			data.Weekdays = append(data.Weekdays, htmlWeekday{Day: day, Average: PriceLabel(ds.Mean, code)})
		}
	}
	return data
}
