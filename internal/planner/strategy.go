package planner

import (
	"fmt"
	"strings"
)

// Strategy names a preset cap on dates queried per destination.
type Strategy string

const (
	StrategyConservative  Strategy = "conservative"
	StrategyWeekly        Strategy = "weekly"
	StrategyComprehensive Strategy = "comprehensive"
	StrategyComplete      Strategy = "complete"
)

var strategyCaps = map[Strategy]int{
	StrategyConservative:  3,
	StrategyWeekly:        13,
	StrategyComprehensive: 24,
	StrategyComplete:      0,
}

func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := strategyCaps[st]; !ok {
		return "", &ConfigurationError{
			Field:  "strategy",
			Reason: fmt.Sprintf("unknown strategy %q (want conservative, weekly, comprehensive or complete)", s),
		}
	}
	return st, nil
}

// Cap returns the per-destination date cap; zero means every candidate date.
func (s Strategy) Cap() int {
	return strategyCaps[s]
}

// ResolveCap picks the explicit cap when set and otherwise the strategy's.
func ResolveCap(strategy string, explicit int) (int, error) {
	if explicit < 0 {
		return 0, &ConfigurationError{Field: "max_dates_per_destination", Reason: "must not be negative"}
	}
	if explicit > 0 {
		return explicit, nil
	}
	if strategy == "" {
		return 0, nil
	}
	st, err := ParseStrategy(strategy)
	if err != nil {
		return 0, err
	}
	return st.Cap(), nil
}

type UsageEstimate struct {
	CallsPerRun     int  `json:"calls_per_run"`
	RunsPerMonth    int  `json:"runs_per_month"`
	MonthlyCalls    int  `json:"monthly_calls"`
	MonthlyQuota    int  `json:"monthly_quota"`
	Remaining       int  `json:"remaining"`
	MaxRunsPerMonth int  `json:"max_runs_per_month"`
	WithinQuota     bool `json:"within_quota"`
}

// EstimateUsage projects a plan's call count over a month of scheduled runs.
// A non-positive quota is treated as unlimited.
func EstimateUsage(callsPerRun, runsPerMonth, monthlyQuota int) UsageEstimate {
	if runsPerMonth < 1 {
		runsPerMonth = 1
	}
	est := UsageEstimate{
		CallsPerRun:  callsPerRun,
		RunsPerMonth: runsPerMonth,
		MonthlyCalls: callsPerRun * runsPerMonth,
		MonthlyQuota: monthlyQuota,
	}
	if monthlyQuota <= 0 {
		est.WithinQuota = true
		return est
	}
	est.Remaining = monthlyQuota - est.MonthlyCalls
	if callsPerRun > 0 {
		est.MaxRunsPerMonth = monthlyQuota / callsPerRun
	}
	est.WithinQuota = est.MonthlyCalls <= monthlyQuota
	return est
}
