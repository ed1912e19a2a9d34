package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/cache"
	"github.com/dharmasatrya/weekendfares/internal/models"
)

const (
	defaultTopN = 5
	maxTopN     = 100
)

type ReportHandler struct {
	store cache.ReportStore
}

func NewReportHandler(store cache.ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// DestinationSummary is one destination's slice of the latest report.
type DestinationSummary struct {
	Key      string            `json:"key"`
	City     string            `json:"city"`
	Stats    models.PriceStats `json:"stats"`
	BestDeal models.Quote      `json:"best_deal"`
	Quotes   int               `json:"quotes"`
}

type TopResponse struct {
	RunID       string         `json:"run_id"`
	GeneratedAt string         `json:"generated_at"`
	Quotes      []models.Quote `json:"quotes"`
}

func (h *ReportHandler) Latest(c echo.Context) error {
	report, err := h.store.Latest(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Top(c echo.Context) error {
	n := defaultTopN
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxTopN {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_request",
				Message: "n must be a number between 1 and " + strconv.Itoa(maxTopN),
				Code:    http.StatusBadRequest,
			})
		}
		n = v
	}

	report, err := h.store.Latest(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, TopResponse{
		RunID:       report.Metadata.RunID,
		GeneratedAt: report.Metadata.GeneratedAt.Format(time.RFC3339),
		Quotes:      aggregator.TopN(report, n),
	})
}

// Destinations lists destinations cheapest first.
func (h *ReportHandler) Destinations(c echo.Context) error {
	report, err := h.store.Latest(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}

	groups := aggregator.GroupByDestination(report)
	summaries := make([]DestinationSummary, 0, len(groups))
	for _, key := range aggregator.DestinationOrder(report) {
		quotes := groups[key]
		summaries = append(summaries, DestinationSummary{
			Key:      key,
			City:     quotes[0].DestinationCity,
			Stats:    report.Statistics.ByDestination[key],
			BestDeal: quotes[0],
			Quotes:   len(quotes),
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

func storeError(c echo.Context, err error) error {
	if errors.Is(err, cache.ErrNoReport) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "no report has been stored yet",
			Code:    http.StatusNotFound,
		})
	}
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "store_error",
		Message: "Failed to load latest report: " + err.Error(),
		Code:    http.StatusInternalServerError,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
