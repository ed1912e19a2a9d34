package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/timezone"
	"github.com/dharmasatrya/weekendfares/pkg/currency"
)

func FormatDuration(d models.Duration) string {
	return fmt.Sprintf("%dh %02dm", d.Hours, d.Minutes)
}

// DateLabel renders a plan date as "Fri Apr 03".
func DateLabel(t time.Time) string {
	return t.Format("Mon Jan 02")
}

func StopsLabel(q models.Quote) string {
	if q.Direct() {
		return "Direct"
	}
	via := q.LayoverAirports()
	if len(via) == 0 {
		return fmt.Sprintf("%d stop(s)", q.Stops())
	}
	return "Via " + strings.Join(via, ", ")
}

// DepartureLocal is the first leg's departure in origin local time, "06:15".
func DepartureLocal(q models.Quote) string {
	if len(q.Segments) == 0 {
		return "-"
	}
	first := q.Segments[0]
	return timezone.ConvertToAirport(first.DepartureTime, first.Origin).Format("15:04")
}

func PriceLabel(amount float64, code string) string {
	return currency.Format(amount, code)
}

func reportCurrency(report models.Report) string {
	if report.Metadata.Currency != "" {
		return report.Metadata.Currency
	}
	if len(report.Quotes) > 0 {
		return report.Quotes[0].Price.Currency
	}
	return "USD"
}
