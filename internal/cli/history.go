package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/weekendfares/internal/history"
	"github.com/dharmasatrya/weekendfares/internal/planner"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [destination...]",
		Short: "Show price trends from past runs",
		Long: `Read the run history from Postgres and show, per destination, the cheapest
and average price of the most recent runs. Without arguments every configured
destination is listed.

Examples:
  flightwatch history                       # All configured destinations
  flightwatch history paris --limit 20`,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "number of runs per destination")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if cfg.Database.URL == "" {
		return &planner.ConfigurationError{Field: "database.url", Reason: "set DATABASE_URL to read the run history"}
	}

	destinations := args
	if len(destinations) == 0 {
		for _, d := range cfg.Destinations() {
			destinations = append(destinations, d.Key)
		}
	}

	ctx := cmd.Context()
	store, err := openHistory(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer store.Close()

	trends := make(map[string][]history.TrendPoint, len(destinations))
	for _, dest := range destinations {
		points, err := store.Trend(ctx, dest, limit)
		if err != nil {
			return fmt.Errorf("trend for %s: %w", dest, err)
		}
		trends[dest] = points
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(trends)
	}

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	code := cfg.Search.Currency
	for _, dest := range destinations {
		points := trends[dest]
		p.Header("Price history: " + dest)
		if len(points) == 0 {
			p.Warning("No runs recorded for %s", dest)
			continue
		}

		t := report.NewTable(p.Out(), []string{"Run", "Quotes", "Cheapest", "Average", "Change"}, p.IsQuiet())
		for i, pt := range points {
			change := "-"
			// Points are newest first; compare with the run before.
			if i+1 < len(points) {
				change = signedPrice(pt.MinPrice-points[i+1].MinPrice, code)
			}
			t.AddRow([]string{
				pt.GeneratedAt.Format("2006-01-02 15:04"),
				strconv.Itoa(pt.QuoteCount),
				report.PriceLabel(pt.MinPrice, code),
				report.PriceLabel(pt.MeanPrice, code),
				change,
			})
		}
		t.Render()
	}
	return nil
}

func signedPrice(delta float64, code string) string {
	switch {
	case delta > 0:
		return "+" + report.PriceLabel(delta, code)
	case delta < 0:
		return report.PriceLabel(delta, code)
	default:
		return "0"
	}
}
