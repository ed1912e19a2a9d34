package report

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/ranking"
)

type ConsoleOptions struct {
	Top            int
	PerDestination int
	MaxFailures    int
}

func DefaultConsoleOptions() ConsoleOptions {
	return ConsoleOptions{Top: 10, PerDestination: 3, MaxFailures: 10}
}

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// RenderConsole prints the full report: summary, top deals, per-destination
// bests, price analysis and failures.
func RenderConsole(p *Printer, report models.Report, opts ConsoleOptions) {
	code := reportCurrency(report)
	meta := report.Metadata

	p.Header("Weekend Flight Report")
	if meta.Origin != "" {
		p.Info("%s -> %s", meta.Origin, strings.Join(meta.Destinations, ", "))
	}
	if !meta.WindowStart.IsZero() {
		p.Info("Window: %s to %s", meta.WindowStart.Format(models.DateLayout), meta.WindowEnd.Format(models.DateLayout))
	}
	if meta.Strategy != "" {
		p.Info("Strategy: %s", meta.Strategy)
	}
	p.Print("%s", p.Dim(DiagnosticsLine(report.Diagnostics)))

	if !report.Statistics.HasData {
		p.Warning("No flights found")
		renderFailures(p, report.Diagnostics, opts.MaxFailures)
		return
	}

	p.Header(fmt.Sprintf("Top %d Deals", min(opts.Top, len(report.Quotes))))
	renderQuotes(p, aggregator.TopN(report, opts.Top))

	p.Header("Best by Destination")
	groups := aggregator.GroupByDestination(report)
	for _, key := range aggregator.DestinationOrder(report) {
		quotes := groups[key]
		p.Print("%s (%d options)", p.Bold(quotes[0].DestinationCity), len(quotes))
		renderQuotes(p, quotes[:min(opts.PerDestination, len(quotes))])
	}

	renderAnalysis(p, report, code)
	renderComparison(p, report, code)

	p.Header("Best Value (price, duration, stops)")
	t := NewTable(p.Out(), []string{"#", "Destination", "Outbound", "Price", "Duration", "Stops", "Score"}, p.IsQuiet())
	for i, s := range ranking.BestValue(report.Quotes, 3) {
		t.AddRow([]string{
			strconv.Itoa(i + 1),
			s.Quote.DestinationCity,
			DateLabel(s.Quote.OutboundDate),
			PriceLabel(s.Quote.Price.Amount, s.Quote.Price.Currency),
			FormatDuration(s.Quote.Duration),
			StopsLabel(s.Quote),
			strconv.FormatFloat(s.Score, 'f', 2, 64),
		})
	}
	t.Render()

	renderFailures(p, report.Diagnostics, opts.MaxFailures)
}

// DiagnosticsLine summarises how the plan went, e.g.
// "2 failed / 1 empty / 26 planned (25 API calls, 0 cached)".
func DiagnosticsLine(d models.Diagnostics) string {
	return fmt.Sprintf("%d failed / %d empty / %d planned (%d API calls, %d cached)",
		d.Failed, d.Empty, d.Planned, d.CallsUsed, d.Cached)
}

func renderQuotes(p *Printer, quotes []models.Quote) {
	t := NewTable(p.Out(), []string{"#", "Destination", "Outbound", "Return", "Price", "Duration", "Stops", "Airline", "Departs"}, p.IsQuiet())
	for i, q := range quotes {
		t.AddRow([]string{
			strconv.Itoa(i + 1),
			q.DestinationCity,
			DateLabel(q.OutboundDate),
			DateLabel(q.ReturnDate),
			PriceLabel(q.Price.Amount, q.Price.Currency),
			FormatDuration(q.Duration),
			StopsLabel(q),
			q.CarrierNames(),
			DepartureLocal(q),
		})
	}
	t.Render()
}

func renderAnalysis(p *Printer, report models.Report, code string) {
	stats := report.Statistics
	o := stats.Overall

	p.Header("Price Analysis")
	p.Print("Range:   %s - %s (%s spread)", p.Price(PriceLabel(o.Min, code)), PriceLabel(o.Max, code), PriceLabel(o.Max-o.Min, code))
	p.Print("Average: %s   Median: %s", PriceLabel(o.Mean, code), PriceLabel(o.Median, code))
	p.Print("Direct:  %d of %d options", stats.Direct, o.Count)

	months := make([]string, 0, len(stats.ByMonth))
	for m := range stats.ByMonth {
		months = append(months, m)
	}
	slices.Sort(months)

	t := NewTable(p.Out(), []string{"Month", "Options", "From", "Average", "Best Deal"}, p.IsQuiet())
	for _, m := range months {
		ms := stats.ByMonth[m]
		t.AddRow([]string{
			monthLabel(m),
			strconv.Itoa(ms.Count),
			PriceLabel(ms.Min, code),
			PriceLabel(ms.Mean, code),
			fmt.Sprintf("%s %s (%s)", DateLabel(ms.BestDeal.OutboundDate), ms.BestDeal.DestinationCity, ms.BestDeal.CarrierNames()),
		})
	}
	t.Render()

	wt := NewTable(p.Out(), []string{"Departure Day", "Options", "From", "Average"}, p.IsQuiet())
	for _, day := range weekdayOrder {
		ds, ok := stats.ByWeekday[day]
		if !ok {
			continue
		}
		wt.AddRow([]string{day, strconv.Itoa(ds.Count), PriceLabel(ds.Min, code), PriceLabel(ds.Mean, code)})
	}
	wt.Render()
}

func renderComparison(p *Printer, report models.Report, code string) {
	order := aggregator.DestinationOrder(report)
	if len(order) < 2 {
		return
	}

	p.Header("Destination Comparison")
	cheapest := report.Statistics.ByDestination[order[0]].Min
	t := NewTable(p.Out(), []string{"Destination", "Options", "From", "Average", "Median", "vs Cheapest"}, p.IsQuiet())
	for _, key := range order {
		ds := report.Statistics.ByDestination[key]
		diff := "-"
		if ds.Min > cheapest {
			diff = "+" + PriceLabel(ds.Min-cheapest, code)
		}
		t.AddRow([]string{
			key,
			strconv.Itoa(ds.Count),
			PriceLabel(ds.Min, code),
			PriceLabel(ds.Mean, code),
			PriceLabel(ds.Median, code),
			diff,
		})
	}
	t.Render()
}

func renderFailures(p *Printer, d models.Diagnostics, limit int) {
	for i, f := range d.Failures {
		if limit > 0 && i >= limit {
			p.Warning("... and %d more failed queries", len(d.Failures)-limit)
			return
		}
		p.Warning("%s %s -> %s: %s", f.Destination, f.Outbound.Format(models.DateLayout), f.Return.Format(models.DateLayout), f.Error)
	}
}

func monthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
