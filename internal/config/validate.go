package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/planner"
)

const maxTripDays = 30

// Validate checks the search settings before any pricing call is made.
// Problems that make a run impossible are returned as joined
// *planner.ConfigurationError values; anything merely suspicious is returned
// as a warning.
func (c *Config) Validate(now time.Time) ([]string, error) {
	var (
		warnings []string
		errs     []error
	)
	fail := func(field, reason string) {
		errs = append(errs, &planner.ConfigurationError{Field: field, Reason: reason})
	}

	s := c.Search
	if strings.TrimSpace(s.Origin) == "" {
		fail("origin", "departure airport code is required")
	} else if len(strings.TrimSpace(s.Origin)) != 3 {
		warnings = append(warnings, fmt.Sprintf("origin %q doesn't look like a 3-letter airport code", s.Origin))
	}

	if len(s.Destinations) == 0 {
		fail("destinations", "at least one destination is required")
	}
	for i, d := range s.Destinations {
		if d.Key == "" && d.City == "" {
			fail(fmt.Sprintf("destinations[%d]", i), "key or city is required")
		}
		if len(d.Codes) == 0 {
			fail(fmt.Sprintf("destinations[%d].codes", i), "at least one airport code is required")
		}
		for _, code := range d.Codes {
			if len(strings.TrimSpace(code)) != 3 {
				warnings = append(warnings, fmt.Sprintf("airport code %q doesn't look like a 3-letter code", code))
			}
		}
	}

	if s.StartMonth < 1 || s.StartMonth > 12 {
		fail("start_month", "must be between 1 and 12")
	}
	if s.EndMonth < 1 || s.EndMonth > 12 {
		fail("end_month", "must be between 1 and 12")
	}
	if len(s.DepartureDays) == 0 {
		fail("departure_days", "at least one departure weekday is required")
	}
	for _, d := range s.DepartureDays {
		if d < 0 || d > 6 {
			fail("departure_days", fmt.Sprintf("weekday %d is outside 0-6 (Monday=0)", d))
		}
	}
	if s.TripDurationDays < 1 || s.TripDurationDays > maxTripDays {
		fail("trip_duration_days", fmt.Sprintf("must be between 1 and %d", maxTripDays))
	}
	if s.Passengers < 1 {
		fail("passengers", "must be at least 1")
	}

	if _, err := c.CapPerDestination(); err != nil {
		errs = append(errs, err)
	}

	if c.Provider.MaxRetries < 0 {
		fail("provider.max_retries", "must not be negative")
	}

	switch c.Provider.Name {
	case "serpapi":
		if c.Provider.APIKey == "" {
			warnings = append(warnings, "SERPAPI_KEY is not set; scan will fail until it is")
		}
	case "fixture":
	default:
		fail("provider.name", fmt.Sprintf("unknown provider %q (want serpapi or fixture)", c.Provider.Name))
	}

	for field, val := range map[string]string{
		"filters.departure_after":  c.Filters.DepartureAfter,
		"filters.departure_before": c.Filters.DepartureBefore,
	} {
		if val == "" {
			continue
		}
		if _, err := time.Parse("15:04", val); err != nil {
			fail(field, fmt.Sprintf("%q is not a HH:MM time", val))
		}
	}

	if (c.Email.Username != "" || c.Email.Password != "") && len(c.Email.To) == 0 {
		warnings = append(warnings, "email credentials are set but no recipient is configured")
	}

	if len(errs) > 0 {
		return warnings, errors.Join(errs...)
	}

	if est, err := c.EstimateUsage(now); err == nil && !est.WithinQuota {
		warnings = append(warnings, fmt.Sprintf(
			"estimated %d calls per month exceeds the quota of %d (%d calls per run, %d runs)",
			est.MonthlyCalls, est.MonthlyQuota, est.CallsPerRun, est.RunsPerMonth))
	}

	return warnings, nil
}

// EstimateUsage projects the configured plan against the monthly quota.
func (c *Config) EstimateUsage(now time.Time) (planner.UsageEstimate, error) {
	limit, err := c.CapPerDestination()
	if err != nil {
		return planner.UsageEstimate{}, err
	}
	plan, err := planner.EnumerateDates(c.Window(now), c.Destinations(), limit)
	if err != nil {
		return planner.UsageEstimate{}, err
	}
	return planner.EstimateUsage(len(plan), c.Quota.RunsPerMonth, c.Quota.MonthlyLimit), nil
}
