package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/cache"
	"github.com/dharmasatrya/weekendfares/internal/history"
	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/notify"
	"github.com/dharmasatrya/weekendfares/internal/planner"
	"github.com/dharmasatrya/weekendfares/internal/providers"
	"github.com/dharmasatrya/weekendfares/internal/report"
	"github.com/dharmasatrya/weekendfares/internal/scanner"
)

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Price every planned date and write the report",
		Long: `Plan the travel window, query the pricing provider once per planned
(date, destination) pair, then print the ranked report, save it as JSON and
optionally publish it to Redis, Postgres and email.

Examples:
  flightwatch scan                          # Use the configured strategy
  flightwatch scan --strategy conservative  # 3 dates per destination
  flightwatch scan --max-price 450 --direct-only
  flightwatch scan --provider fixture       # Offline run on recorded data`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	addSearchFlags(cmd)
	cmd.Flags().Int("top", 0, "number of deals to list (default from config)")
	cmd.Flags().String("output-dir", "", "directory for the JSON report")
	cmd.Flags().Bool("no-email", false, "do not email the report")
	cmd.Flags().Float64("max-price", 0, "drop quotes above this price")
	cmd.Flags().Bool("direct-only", false, "keep only direct flights")
	cmd.Flags().Int("max-stops", -1, "drop quotes with more stops")
	return cmd
}

// addSearchFlags registers the flags shared by scan and plan.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "", "sampling strategy: conservative, weekly, comprehensive or complete")
	cmd.Flags().Int("max-dates", 0, "dates per destination, overrides the strategy")
	cmd.Flags().String("provider", "", "pricing provider: serpapi or fixture")
}

func applySearchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Search.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("max-dates") {
		cfg.Search.MaxDatesPerDestination, _ = flags.GetInt("max-dates")
	}
	if flags.Changed("provider") {
		cfg.Provider.Name, _ = flags.GetString("provider")
	}
}

func applyScanFlags(cmd *cobra.Command) {
	applySearchFlags(cmd)

	flags := cmd.Flags()
	if flags.Changed("top") {
		cfg.Output.Top, _ = flags.GetInt("top")
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("max-price") {
		cfg.Filters.MaxPrice, _ = flags.GetFloat64("max-price")
	}
	if flags.Changed("direct-only") {
		cfg.Filters.DirectOnly, _ = flags.GetBool("direct-only")
	}
	if flags.Changed("max-stops") {
		cfg.Filters.MaxStops, _ = flags.GetInt("max-stops")
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	applyScanFlags(cmd)
	noEmail, _ := cmd.Flags().GetBool("no-email")

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	rep, err := scan(ctx, p, started)
	if err != nil {
		return err
	}

	path, err := report.Save(cfg.Output.Dir, rep)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	p.Success("Report saved to %s", path)

	b := openBackends(ctx)
	defer b.Close()
	b.publish(ctx, p, rep, !noEmail)
	return nil
}

// scan validates the configuration, runs the plan and renders the report to
// the console. It is shared by scan and plan --preview.
func scan(ctx context.Context, p *report.Printer, started time.Time) (models.Report, error) {
	warnings, err := cfg.Validate(started)
	if err != nil {
		return models.Report{}, err
	}
	for _, w := range warnings {
		p.Warning("%s", w)
	}

	window := cfg.Window(started)
	limit, err := cfg.CapPerDestination()
	if err != nil {
		return models.Report{}, err
	}
	plan, err := planner.EnumerateDates(window, cfg.Destinations(), limit)
	if err != nil {
		return models.Report{}, err
	}

	provider, err := newProvider()
	if err != nil {
		return models.Report{}, err
	}

	resultCache := cache.Cache(cache.NewNoOpCache())
	if cfg.Redis.Enabled {
		if client, err := cache.NewRedisClient(cfg.RedisOptions()); err != nil {
			logger.Warn("redis unavailable, running without result cache", "error", err)
		} else {
			rc := cache.NewRedisCache(client, cfg.RedisOptions().TTL)
			defer rc.Close()
			resultCache = rc
		}
	}

	p.Info("Scanning %d queries with %s", len(plan), provider.Name())
	results, err := scanner.New(provider, resultCache, scannerConfig(p), logger).Run(ctx, plan)
	if err != nil {
		return models.Report{}, fmt.Errorf("scan stopped after %d of %d queries: %w", len(results), len(plan), err)
	}

	rep := aggregator.Aggregate(results, metadata(window, started))
	report.RenderConsole(p, rep, consoleOptions())
	return rep, nil
}

func newProvider() (providers.Provider, error) {
	switch cfg.Provider.Name {
	case "fixture":
		return providers.NewFixtureProvider()
	case "serpapi":
		if cfg.Provider.APIKey == "" {
			return nil, &planner.ConfigurationError{Field: "provider.api_key", Reason: "SERPAPI_KEY is required for the serpapi provider"}
		}
		opts := []providers.Option{
			providers.WithLogger(logger),
			providers.WithLanguage(cfg.Provider.Language),
			providers.WithDeepSearch(cfg.Provider.DeepSearch),
		}
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, providers.WithBaseURL(cfg.Provider.BaseURL))
		}
		return providers.NewSerpAPI(cfg.Provider.APIKey, opts...), nil
	default:
		return nil, &planner.ConfigurationError{Field: "provider.name", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider.Name)}
	}
}

func scannerConfig(p *report.Printer) scanner.Config {
	sc := scanner.DefaultConfig()
	sc.Origin = cfg.Search.Origin
	sc.Passengers = cfg.Search.Passengers
	sc.Currency = cfg.Search.Currency
	sc.Timeout = cfg.Provider.Timeout
	sc.MaxRetries = cfg.Provider.MaxRetries
	sc.RetryDelays = cfg.Provider.RetryDelays
	sc.RateLimiter = cfg.RateLimiter()
	sc.MaxCalls = cfg.Quota.MaxCallsPerRun
	sc.MaxQuotesPerQuery = cfg.Provider.MaxQuotesPerQuery
	sc.Filters = cfg.QuoteFilters()
	sc.OnResult = func(i, total int, r models.SearchResult) {
		p.Print("[%d/%d] %-10s %s  %s", i+1, total, r.Entry.Destination.City, r.Entry.OutboundString(), resultLabel(r))
	}
	return sc
}

func resultLabel(r models.SearchResult) string {
	switch r.Status {
	case models.StatusError:
		return "failed"
	case models.StatusEmpty:
		return "no flights"
	}
	cheapest := r.Quotes[0]
	for _, q := range r.Quotes[1:] {
		if q.Price.Amount < cheapest.Price.Amount {
			cheapest = q
		}
	}
	label := fmt.Sprintf("%d options from %s", len(r.Quotes), report.PriceLabel(cheapest.Price.Amount, cheapest.Price.Currency))
	if r.Cached {
		label += " (cached)"
	}
	return label
}

func metadata(window planner.TravelWindow, started time.Time) models.ReportMetadata {
	first, last := window.Bounds()

	keys := make([]string, 0, len(cfg.Search.Destinations))
	for _, d := range cfg.Destinations() {
		keys = append(keys, d.Key)
	}

	strategy := cfg.Search.Strategy
	if cfg.Search.MaxDatesPerDestination > 0 {
		strategy = fmt.Sprintf("%d dates per destination", cfg.Search.MaxDatesPerDestination)
	}

	return models.ReportMetadata{
		RunID:        uuid.NewString(),
		GeneratedAt:  started.UTC(),
		Origin:       strings.ToUpper(cfg.Search.Origin),
		Destinations: keys,
		WindowStart:  first,
		WindowEnd:    last,
		Strategy:     strategy,
		Currency:     cfg.Search.Currency,
	}
}

func consoleOptions() report.ConsoleOptions {
	opts := report.DefaultConsoleOptions()
	if cfg.Output.Top > 0 {
		opts.Top = cfg.Output.Top
	}
	return opts
}

func emailConfig() notify.Config {
	return notify.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
		TopDeals: cfg.Email.TopDeals,
	}
}

// backends are the optional publishing targets of a finished report.
type backends struct {
	store   cache.ReportStore
	history *history.Store
	closers []func()
}

// openHistory is swapped out in tests.
var openHistory = func(ctx context.Context, url string) (*history.Store, error) {
	return history.Connect(ctx, url)
}

// openBackends connects to whatever is configured. Unreachable backends are
// logged and skipped; the JSON report on disk is the record of the run.
func openBackends(ctx context.Context) *backends {
	b := &backends{}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.RedisOptions())
		if err != nil {
			logger.Warn("redis unavailable, latest report not stored", "error", err)
		} else {
			b.store = cache.NewRedisReportStore(client)
			b.closers = append(b.closers, func() { _ = client.Close() })
		}
	}

	if cfg.Database.URL != "" {
		store, err := openHistory(ctx, cfg.Database.URL)
		if err != nil {
			logger.Warn("history database unavailable", "error", err)
		} else if err := store.EnsureSchema(ctx); err != nil {
			logger.Warn("history schema setup failed", "error", err)
			store.Close()
		} else {
			b.history = store
			b.closers = append(b.closers, store.Close)
		}
	}

	return b
}

func (b *backends) publish(ctx context.Context, p *report.Printer, rep models.Report, email bool) {
	if b.store != nil {
		if err := b.store.SaveLatest(ctx, rep); err != nil {
			logger.Warn("storing latest report failed", "error", err)
		} else {
			p.Success("Stored as latest report")
		}
	}

	if b.history != nil {
		if err := b.history.Record(ctx, rep); err != nil {
			logger.Warn("recording history failed", "error", err)
		} else {
			p.Success("Run %s recorded in history", rep.Metadata.RunID)
		}
	}

	if !email {
		return
	}
	mc := emailConfig()
	if !mc.Enabled() {
		logger.Debug("email not configured, skipping")
		return
	}
	mailer, err := notify.NewMailer(mc, logger)
	if err != nil {
		logger.Warn("email setup failed", "error", err)
		return
	}
	if err := mailer.Send(ctx, rep); err != nil {
		logger.Warn("email delivery failed", "error", err)
		return
	}
	p.Success("Report emailed to %s", strings.Join(mc.To, ", "))
}

func (b *backends) Close() {
	for _, c := range b.closers {
		c()
	}
}
