package models

import "time"

type SearchStatus string

const (
	StatusSuccess SearchStatus = "success"
	StatusEmpty   SearchStatus = "empty"
	StatusError   SearchStatus = "error"
)

// SearchResult is the outcome of one plan entry. Error and empty results
// carry no quotes.
type SearchResult struct {
	Entry  PlanEntry    `json:"entry"`
	Status SearchStatus `json:"status"`
	Quotes []Quote      `json:"quotes,omitempty"`
	Error  string       `json:"error,omitempty"`
	Cached bool         `json:"cached,omitempty"`
	// Calls counts pricing API calls spent, retries included.
	Calls int `json:"calls"`
}

type ReportMetadata struct {
	RunID        string    `json:"run_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	Origin       string    `json:"origin"`
	Destinations []string  `json:"destinations,omitempty"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	Strategy     string    `json:"strategy,omitempty"`
	Currency     string    `json:"currency"`
}

type PriceStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type MonthStats struct {
	PriceStats
	BestDeal Quote `json:"best_deal"`
}

// Statistics are computed over ranked quotes only. HasData is false when
// there were none and every other field is zero.
type Statistics struct {
	HasData       bool                  `json:"has_data"`
	Overall       PriceStats            `json:"overall"`
	ByDestination map[string]PriceStats `json:"by_destination,omitempty"`
	ByMonth       map[string]MonthStats `json:"by_month,omitempty"`
	ByWeekday     map[string]PriceStats `json:"by_weekday,omitempty"`
	Direct        int                   `json:"direct"`
	Connecting    int                   `json:"connecting"`
}

type FailedQuery struct {
	Destination string    `json:"destination"`
	Outbound    time.Time `json:"outbound_date"`
	Return      time.Time `json:"return_date"`
	Error       string    `json:"error"`
}

type Diagnostics struct {
	Planned   int           `json:"planned"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Empty     int           `json:"empty"`
	Cached    int           `json:"cached"`
	CallsUsed int           `json:"calls_used"`
	Failures  []FailedQuery `json:"failures,omitempty"`
}

// Report is the ranked outcome of one run.
type Report struct {
	Metadata    ReportMetadata `json:"metadata"`
	Quotes      []Quote        `json:"quotes"`
	Statistics  Statistics     `json:"statistics"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
