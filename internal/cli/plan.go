package cli

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/planner"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

type planOutput struct {
	Plan       []models.PlanEntry    `json:"plan"`
	TotalCalls int                   `json:"total_calls"`
	Estimate   planner.UsageEstimate `json:"estimate"`
}

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the dates a scan would query",
		Long: `List every (outbound, return, destination) query of the configured plan
without calling the pricing API.

Examples:
  flightwatch plan                          # Table of planned queries
  flightwatch plan --strategy complete      # Every candidate date
  flightwatch plan --json                   # Machine-readable plan
  flightwatch plan --preview                # Run the plan on recorded fixture data`,
		Args: cobra.NoArgs,
		RunE: runPlan,
	}

	addSearchFlags(cmd)
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().Bool("preview", false, "price the plan with the offline fixture provider")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	applySearchFlags(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	preview, _ := cmd.Flags().GetBool("preview")

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	if preview {
		cfg.Provider.Name = "fixture"
		_, err := scan(cmd.Context(), p, now)
		return err
	}

	limit, err := cfg.CapPerDestination()
	if err != nil {
		return err
	}
	plan, err := planner.EnumerateDates(cfg.Window(now), cfg.Destinations(), limit)
	if err != nil {
		return err
	}
	est := planner.EstimateUsage(len(plan), cfg.Quota.RunsPerMonth, cfg.Quota.MonthlyLimit)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(planOutput{Plan: plan, TotalCalls: len(plan), Estimate: est})
	}

	p.Header("Query Plan")
	t := report.NewTable(p.Out(), []string{"#", "Destination", "Airports", "Outbound", "Return", "Day"}, p.IsQuiet())
	for i, e := range plan {
		t.AddRow([]string{
			strconv.Itoa(i + 1),
			e.Destination.City,
			e.Destination.ArrivalID(),
			e.OutboundString(),
			e.ReturnString(),
			planner.WeekdayOf(e.Outbound).String(),
		})
	}
	t.Render()

	p.Print("")
	p.Info("Total API calls per run: %d", len(plan))
	printEstimate(p, est)
	return nil
}
