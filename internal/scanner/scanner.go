package scanner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/cache"
	"github.com/dharmasatrya/weekendfares/internal/filter"
	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/providers"
	"github.com/dharmasatrya/weekendfares/internal/ratelimit"
)

// ErrQuotaExhausted marks plan entries skipped because the run's call
// budget was already spent.
var ErrQuotaExhausted = errors.New("call budget exhausted")

type Config struct {
	Origin     string
	Passengers int
	Currency   string

	// Timeout bounds a single provider call.
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	RateLimiter *ratelimit.ProviderLimiter

	// MaxCalls caps provider calls per run, retries included. Zero is unlimited.
	MaxCalls int
	// MaxQuotesPerQuery keeps only the N cheapest quotes of each query. Zero keeps all.
	MaxQuotesPerQuery int
	Filters           *models.QuoteFilters

	// OnResult, when set, is called after every plan entry.
	OnResult func(index, total int, r models.SearchResult)
}

func DefaultConfig() Config {
	return Config{
		Passengers:  1,
		Currency:    "USD",
		Timeout:     providers.DefaultTimeout,
		MaxRetries:  2,
		RetryDelays: []time.Duration{2 * time.Second, 5 * time.Second},
	}
}

// Scanner executes a plan one query at a time.
type Scanner struct {
	provider providers.Provider
	cache    cache.Cache
	config   Config
	logger   *slog.Logger
}

func New(provider providers.Provider, c cache.Cache, config Config, logger *slog.Logger) *Scanner {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		provider: provider,
		cache:    c,
		config:   config,
		logger:   logger,
	}
}

// Run issues every entry of plan in order and returns one SearchResult per
// entry. Query failures are recorded in the results; only cancellation of
// ctx stops the run, in which case the results gathered so far are returned
// together with ctx's error.
func (s *Scanner) Run(ctx context.Context, plan []models.PlanEntry) ([]models.SearchResult, error) {
	results := make([]models.SearchResult, 0, len(plan))
	used := 0

	for i, entry := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r, err := s.execute(ctx, entry, &used)
		if err != nil {
			return results, err
		}
		results = append(results, r)

		s.logger.Info("query complete",
			"destination", entry.Destination.Key,
			"outbound", entry.OutboundString(),
			"return", entry.ReturnString(),
			"status", r.Status,
			"quotes", len(r.Quotes),
			"cached", r.Cached,
			"calls_used", used,
		)
		if s.config.OnResult != nil {
			s.config.OnResult(i, len(plan), r)
		}
	}

	return results, nil
}

func (s *Scanner) execute(ctx context.Context, entry models.PlanEntry, used *int) (models.SearchResult, error) {
	req := models.SearchRequest{
		Origin:     s.config.Origin,
		Entry:      entry,
		Passengers: s.config.Passengers,
		Currency:   s.config.Currency,
	}
	if err := req.Validate(); err != nil {
		return s.failed(entry, 0, err), nil
	}

	if quotes, ok := s.cache.Get(ctx, req); ok {
		r := s.finish(entry, quotes, 0)
		r.Cached = true
		return r, nil
	}

	quotes, calls, err := s.searchWithRetry(ctx, req, used)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.SearchResult{}, ctxErr
	}
	if errors.Is(err, providers.ErrNoQuotes) {
		return models.SearchResult{Entry: entry, Status: models.StatusEmpty, Calls: calls}, nil
	}
	if err != nil {
		return s.failed(entry, calls, err), nil
	}

	if err := s.cache.Set(ctx, req, quotes); err != nil {
		s.logger.Warn("cache write failed", "destination", entry.Destination.Key, "error", err)
	}
	return s.finish(entry, quotes, calls), nil
}

func (s *Scanner) searchWithRetry(ctx context.Context, req models.SearchRequest, used *int) ([]models.Quote, int, error) {
	var lastErr error
	calls := 0

	attempts := max(s.config.MaxRetries, 0) + 1
	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, calls, ctx.Err()
		default:
		}

		if attempt > 0 && len(s.config.RetryDelays) > 0 {
			delayIdx := attempt - 1
			if delayIdx >= len(s.config.RetryDelays) {
				delayIdx = len(s.config.RetryDelays) - 1
			}

			select {
			case <-time.After(s.config.RetryDelays[delayIdx]):
			case <-ctx.Done():
				return nil, calls, ctx.Err()
			}
		}

		if s.config.MaxCalls > 0 && *used >= s.config.MaxCalls {
			if lastErr == nil {
				lastErr = ErrQuotaExhausted
			}
			return nil, calls, lastErr
		}

		if s.config.RateLimiter != nil {
			if err := s.config.RateLimiter.Wait(ctx, s.provider.Name()); err != nil {
				return nil, calls, err
			}
		}

		quotes, err := s.call(ctx, req)
		calls++
		*used++
		if err == nil {
			return quotes, calls, nil
		}

		lastErr = err
		if !providers.Retryable(err) {
			return nil, calls, err
		}
		s.logger.Warn("provider attempt failed",
			"provider", s.provider.Name(),
			"destination", req.Entry.Destination.Key,
			"outbound", req.Entry.OutboundString(),
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, calls, lastErr
}

func (s *Scanner) call(ctx context.Context, req models.SearchRequest) ([]models.Quote, error) {
	if s.config.Timeout <= 0 {
		return s.provider.Search(ctx, req)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	return s.provider.Search(callCtx, req)
}

// finish filters and trims the quotes of one query. A query whose quotes are
// all filtered out counts as empty.
func (s *Scanner) finish(entry models.PlanEntry, quotes []models.Quote, calls int) models.SearchResult {
	kept := filter.Apply(quotes, s.config.Filters)
	if n := s.config.MaxQuotesPerQuery; n > 0 && len(kept) > n {
		kept = append([]models.Quote(nil), kept...)
		aggregator.SortQuotes(kept)
		kept = kept[:n]
	}

	if len(kept) == 0 {
		return models.SearchResult{Entry: entry, Status: models.StatusEmpty, Calls: calls}
	}
	return models.SearchResult{Entry: entry, Status: models.StatusSuccess, Quotes: kept, Calls: calls}
}

func (s *Scanner) failed(entry models.PlanEntry, calls int, err error) models.SearchResult {
	return models.SearchResult{
		Entry:  entry,
		Status: models.StatusError,
		Error:  providers.NewQueryError(s.provider.Name(), entry, err).Error(),
		Calls:  calls,
	}
}
