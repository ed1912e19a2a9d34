package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/weekendfares/internal/config"
	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/planner"
)

// PlanRequest previews a query plan without calling any provider.
type PlanRequest struct {
	Year                   int                  `json:"year"`
	StartMonth             int                  `json:"start_month"`
	EndMonth               int                  `json:"end_month"`
	DepartureDays          []int                `json:"departure_days"`
	TripDurationDays       int                  `json:"trip_duration_days"`
	ReturnWithinWindow     bool                 `json:"return_within_window"`
	Destinations           []models.Destination `json:"destinations"`
	Strategy               string               `json:"strategy"`
	MaxDatesPerDestination int                  `json:"max_dates_per_destination"`
	RunsPerMonth           int                  `json:"runs_per_month"`
	MonthlyQuota           int                  `json:"monthly_quota"`
}

type PlanResponse struct {
	Plan       []models.PlanEntry    `json:"plan"`
	TotalCalls int                   `json:"total_calls"`
	Estimate   planner.UsageEstimate `json:"estimate"`
}

type PlanHandler struct {
	runsPerMonth int
	monthlyQuota int
	now          func() time.Time
}

// NewPlanHandler uses the given quota settings when a request leaves them out.
func NewPlanHandler(runsPerMonth, monthlyQuota int) *PlanHandler {
	return &PlanHandler{
		runsPerMonth: runsPerMonth,
		monthlyQuota: monthlyQuota,
		now:          time.Now,
	}
}

func (h *PlanHandler) Create(c echo.Context) error {
	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	window := planner.TravelWindow{
		Year:               config.ResolveYear(req.Year, time.Month(req.StartMonth), h.now()),
		StartMonth:         time.Month(req.StartMonth),
		EndMonth:           time.Month(req.EndMonth),
		DurationDays:       req.TripDurationDays,
		ReturnWithinWindow: req.ReturnWithinWindow,
	}
	for _, d := range req.DepartureDays {
		window.Weekdays = append(window.Weekdays, planner.Weekday(d))
	}

	limit, err := planner.ResolveCap(req.Strategy, req.MaxDatesPerDestination)
	if err != nil {
		return planError(c, err)
	}
	plan, err := planner.EnumerateDates(window, req.Destinations, limit)
	if err != nil {
		return planError(c, err)
	}

	runs, quota := req.RunsPerMonth, req.MonthlyQuota
	if runs == 0 {
		runs = h.runsPerMonth
	}
	if quota == 0 {
		quota = h.monthlyQuota
	}

	return c.JSON(http.StatusOK, PlanResponse{
		Plan:       plan,
		TotalCalls: len(plan),
		Estimate:   planner.EstimateUsage(len(plan), runs, quota),
	})
}

func planError(c echo.Context, err error) error {
	var cfgErr *planner.ConfigurationError
	if errors.As(err, &cfgErr) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "configuration_error",
			Message: cfgErr.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "plan_error",
		Message: err.Error(),
		Code:    http.StatusInternalServerError,
	})
}
