package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/weekendfares/internal/planner"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

func newQuotaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Estimate monthly API usage of the configured plan",
		Long: `Project the plan's call count over a month of scheduled runs and compare
it with the monthly API quota.

Examples:
  flightwatch quota                         # Configured runs per month
  flightwatch quota --runs 4                # Weekly schedule
  flightwatch quota --strategy comprehensive`,
		Args: cobra.NoArgs,
		RunE: runQuota,
	}

	cmd.Flags().String("strategy", "", "sampling strategy to estimate")
	cmd.Flags().Int("max-dates", 0, "dates per destination, overrides the strategy")
	cmd.Flags().Int("runs", 0, "scheduled runs per month (default from config)")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func runQuota(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Search.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("max-dates") {
		cfg.Search.MaxDatesPerDestination, _ = flags.GetInt("max-dates")
	}
	if flags.Changed("runs") {
		cfg.Quota.RunsPerMonth, _ = flags.GetInt("runs")
	}
	jsonOutput, _ := flags.GetBool("json")

	est, err := cfg.EstimateUsage(time.Now())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	}

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	p.Header("API Usage Estimate")
	printEstimate(p, est)
	return nil
}

func printEstimate(p *report.Printer, est planner.UsageEstimate) {
	p.Print("Calls per run:   %d", est.CallsPerRun)
	p.Print("Runs per month:  %d", est.RunsPerMonth)
	p.Print("Monthly calls:   %d", est.MonthlyCalls)
	if est.MonthlyQuota <= 0 {
		p.Print("Monthly quota:   unlimited")
		return
	}
	p.Print("Monthly quota:   %d", est.MonthlyQuota)
	p.Print("Remaining:       %d", est.Remaining)
	p.Print("Max runs/month:  %d", est.MaxRunsPerMonth)

	if est.WithinQuota {
		p.Success("Plan fits the monthly quota")
	} else {
		p.Warning("Plan needs %d calls per month, %d over the quota", est.MonthlyCalls, -est.Remaining)
	}
}
