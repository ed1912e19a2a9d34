package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/planner"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration",
		Long: `Check the travel window, destinations and provider settings, print the
resolved search and report anything that would make a scan fail.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	warnings, verr := cfg.Validate(now)

	p.Header("Configuration")
	p.Print("Origin:        %s %s", cfg.Search.Origin, cfg.Search.OriginCity)
	for _, d := range cfg.Destinations() {
		p.Print("Destination:   %s (%s)", d.City, d.ArrivalID())
	}
	p.Print("Months:        %d to %d", cfg.Search.StartMonth, cfg.Search.EndMonth)
	p.Print("Departs:       %s", weekdayNames(cfg.Search.DepartureDays))
	p.Print("Trip length:   %d days", cfg.Search.TripDurationDays)
	p.Print("Strategy:      %s", cfg.Search.Strategy)
	p.Print("Provider:      %s", cfg.Provider.Name)

	for _, w := range warnings {
		p.Warning("%s", w)
	}

	if verr != nil {
		for _, e := range unjoin(verr) {
			p.Error("%s", e)
		}
		return errors.New("configuration is invalid")
	}

	window := cfg.Window(now)
	first, last := window.Bounds()
	p.Print("Window:        %s to %s", first.Format(models.DateLayout), last.Format(models.DateLayout))
	p.Success("Configuration is valid")
	return nil
}

func weekdayNames(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, planner.Weekday(d).String())
	}
	return strings.Join(names, ", ")
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
