package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dharmasatrya/weekendfares/internal/planner"
)

var legacyVars = []string{
	"SERPAPI_KEY", "EMAIL_USER", "EMAIL_PASS", "EMAIL_TO",
	"DEPARTURE_CITY", "DEPARTURE_CODE", "ARRIVAL_CITY", "ARRIVAL_CODES",
	"START_MONTH", "END_MONTH", "DEPARTURE_DAYS", "TRIP_DURATION_DAYS",
	"DATABASE_URL", "REDIS_HOST", "REDIS_PORT",
}

// clearEnv blanks the legacy variables so the developer's shell does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range legacyVars {
		t.Setenv(v, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flightwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "TLV", cfg.Search.Origin)
	assert.Equal(t, []int{2, 3}, cfg.Search.DepartureDays)
	assert.Equal(t, 4, cfg.Search.StartMonth)
	assert.Equal(t, 6, cfg.Search.EndMonth)
	assert.Equal(t, 4, cfg.Search.TripDurationDays)
	assert.Equal(t, "weekly", cfg.Search.Strategy)
	require.Len(t, cfg.Search.Destinations, 2)
	assert.Equal(t, "paris", cfg.Search.Destinations[0].Key)
	assert.Equal(t, []string{"LHR", "LGW", "STN"}, cfg.Search.Destinations[1].Codes)

	assert.Equal(t, "serpapi", cfg.Provider.Name)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 1, cfg.Provider.Burst)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, cfg.Provider.RetryDelays)
	assert.Equal(t, -1, cfg.Filters.MaxStops)
	assert.Equal(t, 250, cfg.Quota.MonthlyLimit)
	assert.Equal(t, 7, cfg.Quota.RunsPerMonth)
	assert.Equal(t, 6*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 465, cfg.Email.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
search:
  origin: TLV
  destinations:
    - key: rome
      city: Rome
      codes: [FCO]
  start_month: 9
  end_month: 10
  departure_days: [4]
  strategy: conservative
provider:
  name: fixture
  retry_delays: ["1s", "3s"]
filters:
  max_price: 450
  direct_only: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fixture", cfg.Provider.Name)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, cfg.Provider.RetryDelays)
	assert.Equal(t, []int{4}, cfg.Search.DepartureDays)
	assert.Equal(t, "conservative", cfg.Search.Strategy)
	require.Len(t, cfg.Search.Destinations, 1)
	assert.Equal(t, []string{"FCO"}, cfg.Search.Destinations[0].Codes)

	f := cfg.QuoteFilters()
	require.NotNil(t, f)
	require.NotNil(t, f.PriceMax)
	assert.Equal(t, 450.0, *f.PriceMax)
	assert.True(t, f.DirectOnly)
	assert.Nil(t, f.MaxStops)
}

func TestLoad_LegacyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERPAPI_KEY", "secret")
	t.Setenv("DEPARTURE_CODE", "TLV")
	t.Setenv("ARRIVAL_CITY", "New York")
	t.Setenv("ARRIVAL_CODES", "JFK, EWR")
	t.Setenv("START_MONTH", "7")
	t.Setenv("END_MONTH", "8")
	t.Setenv("DEPARTURE_DAYS", "4,5")
	t.Setenv("TRIP_DURATION_DAYS", "3")
	t.Setenv("EMAIL_TO", "a@example.com, b@example.com")
	t.Setenv("REDIS_HOST", "redis.internal")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.Equal(t, 7, cfg.Search.StartMonth)
	assert.Equal(t, 8, cfg.Search.EndMonth)
	assert.Equal(t, []int{4, 5}, cfg.Search.DepartureDays)
	assert.Equal(t, 3, cfg.Search.TripDurationDays)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal", cfg.Redis.Host)

	dests := cfg.Destinations()
	require.Len(t, dests, 1)
	assert.Equal(t, "new_york", dests[0].Key)
	assert.Equal(t, "New York", dests[0].City)
	assert.Equal(t, []string{"JFK", "EWR"}, dests[0].Codes)
}

func TestLoad_LegacyEnvInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("START_MONTH", "april")

	_, err := Load("")
	var cfgErr *planner.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "start_month", cfgErr.Field)

	clearEnv(t)
	t.Setenv("DEPARTURE_DAYS", "wed")
	_, err = Load("")
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "departure_days", cfgErr.Field)
}

func TestLoad_InvalidLogging(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "logging:\n  level: loud\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid logging level")
}

func TestWindow_ResolvesYear(t *testing.T) {
	cfg := &Config{Search: SearchConfig{StartMonth: 4, EndMonth: 6, DepartureDays: []int{2, 3}, TripDurationDays: 4}}

	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), 2026},
		{time.Date(2026, time.April, 20, 0, 0, 0, 0, time.UTC), 2026},
		{time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), 2027},
	}
	for _, tt := range tests {
		w := cfg.Window(tt.now)
		assert.Equal(t, tt.want, w.Year, tt.now.String())
		assert.Equal(t, []planner.Weekday{planner.Wednesday, planner.Thursday}, w.Weekdays)
	}

	cfg.Search.Year = 2030
	assert.Equal(t, 2030, cfg.Window(time.Now()).Year)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	t.Run("defaults with fixture provider", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Provider.Name = "fixture"

		warnings, err := cfg.Validate(now)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("missing api key is a warning", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		warnings, err := cfg.Validate(now)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "SERPAPI_KEY")
	})

	t.Run("quota overrun is a warning", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Provider.Name = "fixture"
		cfg.Search.Strategy = "comprehensive"

		warnings, err := cfg.Validate(now)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "exceeds the quota of 250")

		est, err := cfg.EstimateUsage(now)
		require.NoError(t, err)
		assert.Equal(t, 48, est.CallsPerRun)
		assert.Equal(t, 336, est.MonthlyCalls)
	})

	t.Run("out of range values", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Provider.Name = "fixture"
		cfg.Search.StartMonth = 13
		cfg.Search.DepartureDays = []int{7}
		cfg.Search.TripDurationDays = 31
		cfg.Search.Destinations[0].Codes = []string{"PARIS"}

		warnings, err := cfg.Validate(now)
		require.Error(t, err)

		var cfgErr *planner.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
		assert.ErrorContains(t, err, "start_month")
		assert.ErrorContains(t, err, "departure_days")
		assert.ErrorContains(t, err, "trip_duration_days")
		assert.Contains(t, warnings, `airport code "PARIS" doesn't look like a 3-letter code`)
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Provider.Name = "fixture"
		cfg.Provider.MaxRetries = -1

		_, err = cfg.Validate(now)
		var cfgErr *planner.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "provider.max_retries", cfgErr.Field)
	})

	t.Run("unknown provider and strategy", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Provider.Name = "kayak"
		cfg.Search.Strategy = "yearly"

		_, err = cfg.Validate(now)
		assert.ErrorContains(t, err, "provider.name")
		assert.ErrorContains(t, err, "strategy")
	})
}

func TestQuoteFilters_Defaults(t *testing.T) {
	cfg := &Config{Filters: FilterConfig{MaxStops: -1}}
	assert.Nil(t, cfg.QuoteFilters())

	cfg.Filters.MaxStops = 0
	f := cfg.QuoteFilters()
	require.NotNil(t, f)
	require.NotNil(t, f.MaxStops)
	assert.Equal(t, 0, *f.MaxStops)
}

func TestRateLimiter(t *testing.T) {
	cfg := &Config{Provider: ProviderConfig{Name: "serpapi", RequestInterval: 2 * time.Second, Burst: 3}}

	limiter := cfg.RateLimiter().GetLimiter("serpapi")
	assert.Equal(t, rate.Every(2*time.Second), limiter.Limit())
	assert.Equal(t, 3, limiter.Burst())

	other := cfg.RateLimiter().GetLimiter("fixture")
	assert.Equal(t, rate.Limit(1), other.Limit())
	assert.Equal(t, 1, other.Burst())

	cfg.Provider.RequestInterval = 0
	cfg.Provider.Burst = 0
	unpaced := cfg.RateLimiter().GetLimiter("serpapi")
	assert.Equal(t, rate.Inf, unpaced.Limit())
	assert.Equal(t, 1, unpaced.Burst())
}

func TestRedisOptions(t *testing.T) {
	cfg := &Config{}
	opts := cfg.RedisOptions()
	assert.Equal(t, "localhost", opts.Host)
	assert.Equal(t, "6379", opts.Port)
	assert.Equal(t, 6*time.Hour, opts.TTL)

	cfg.Redis = RedisConfig{Host: "cache.internal", Port: "6380", Password: "secret", DB: 2, TTL: time.Hour}
	opts = cfg.RedisOptions()
	assert.Equal(t, "cache.internal", opts.Host)
	assert.Equal(t, "6380", opts.Port)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Hour, opts.TTL)
}
