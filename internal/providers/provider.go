package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

// Provider prices one round-trip query. It returns ErrNoQuotes when the
// query succeeded but produced no itineraries.
type Provider interface {
	Name() string
	Search(ctx context.Context, req models.SearchRequest) ([]models.Quote, error)
}

var ErrNoQuotes = errors.New("no flights returned for query")

// QueryError ties a provider failure to the plan entry that caused it.
type QueryError struct {
	Provider    string
	Destination string
	Outbound    time.Time
	Err         error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Destination, e.Outbound.Format(models.DateLayout), e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func NewQueryError(provider string, entry models.PlanEntry, err error) *QueryError {
	return &QueryError{
		Provider:    provider,
		Destination: entry.Destination.Key,
		Outbound:    entry.Outbound,
		Err:         err,
	}
}

// StatusError is a non-2xx answer from a pricing API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// Retryable reports whether err is worth another attempt. Empty results,
// client errors other than 429 and cancellations are final.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrNoQuotes) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == 429 || se.Code >= 500
	}
	return true
}
