package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/weekendfares/internal/history"
	"github.com/dharmasatrya/weekendfares/internal/planner"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

var legacyVars = []string{
	"SERPAPI_KEY", "EMAIL_USER", "EMAIL_PASS", "EMAIL_TO",
	"DEPARTURE_CITY", "DEPARTURE_CODE", "ARRIVAL_CITY", "ARRIVAL_CODES",
	"START_MONTH", "END_MONTH", "DEPARTURE_DAYS", "TRIP_DURATION_DAYS",
	"DATABASE_URL", "REDIS_HOST", "REDIS_PORT",
}

// Fridays of April 2026 to Paris and London: 4 dates x 2 destinations.
const baseConfig = `
search:
  origin: TLV
  destinations:
    - {key: paris, city: Paris, codes: [CDG, ORY]}
    - {key: london, city: London, codes: [LHR]}
  year: 2026
  start_month: 4
  end_month: 4
  departure_days: [4]
  trip_duration_days: 3
  strategy: complete
provider:
  name: fixture
  request_interval: 0s
  retry_delays: []
logging:
  level: error
output:
  dir: %s
  color: never
%s`

type testEnv struct {
	configPath string
	outputDir  string
}

func setup(t *testing.T, extra string) testEnv {
	t.Helper()
	for _, v := range legacyVars {
		t.Setenv(v, "")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(out, 0o755))

	path := filepath.Join(dir, "flightwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(baseConfig, out, extra)), 0o644))
	return testEnv{configPath: path, outputDir: out}
}

func run(t *testing.T, env testEnv, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", env.configPath))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func savedReports(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "flight_report_*.json"))
	require.NoError(t, err)
	return files
}

func TestScan_Fixture(t *testing.T) {
	env := setup(t, "")

	stdout, _, err := run(t, env, "scan")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Weekend Flight Report")
	assert.Contains(t, stdout, "0 failed / 0 empty / 8 planned (8 API calls, 0 cached)")
	assert.Contains(t, stdout, "[8/8]")
	assert.Contains(t, stdout, "[OK] Report saved to")

	files := savedReports(t, env.outputDir)
	require.Len(t, files, 1)

	rep, err := report.Load(files[0])
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Metadata.RunID)
	assert.Equal(t, "TLV", rep.Metadata.Origin)
	assert.Equal(t, []string{"paris", "london"}, rep.Metadata.Destinations)
	assert.Equal(t, "complete", rep.Metadata.Strategy)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), rep.Metadata.WindowStart)
	assert.Equal(t, 8, rep.Diagnostics.Succeeded)
	assert.Len(t, rep.Quotes, 28)
	assert.True(t, rep.Statistics.HasData)

	for i := 1; i < len(rep.Quotes); i++ {
		assert.LessOrEqual(t, rep.Quotes[i-1].Price.Amount, rep.Quotes[i].Price.Amount)
	}
}

func TestScan_FilterFlags(t *testing.T) {
	env := setup(t, "")

	_, _, err := run(t, env, "scan", "--direct-only", "--max-price", "600", "--no-email")
	require.NoError(t, err)

	files := savedReports(t, env.outputDir)
	require.Len(t, files, 1)
	rep, err := report.Load(files[0])
	require.NoError(t, err)

	require.NotEmpty(t, rep.Quotes)
	assert.Less(t, len(rep.Quotes), 28)
	for _, q := range rep.Quotes {
		assert.True(t, q.Direct(), q.FlightNumbers())
		assert.LessOrEqual(t, q.Price.Amount, 600.0)
	}
}

func TestScan_MaxDates(t *testing.T) {
	env := setup(t, "")

	stdout, _, err := run(t, env, "scan", "--max-dates", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "4 planned")
}

func TestScan_ConfigurationErrors(t *testing.T) {
	env := setup(t, "")

	_, _, err := run(t, env, "scan", "--strategy", "yearly")
	var cfgErr *planner.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "strategy", cfgErr.Field)

	_, stderr, err := run(t, env, "scan", "--provider", "serpapi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERPAPI_KEY")
	assert.Contains(t, stderr, "[WARN] SERPAPI_KEY is not set")

	assert.Empty(t, savedReports(t, env.outputDir))
}

func TestPlan(t *testing.T) {
	env := setup(t, "")

	stdout, _, err := run(t, env, "plan")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Query Plan")
	assert.Contains(t, stdout, "CDG,ORY")
	assert.Contains(t, stdout, "2026-04-24")
	assert.Contains(t, stdout, "Total API calls per run: 8")
	assert.Contains(t, stdout, "Monthly calls:   56")
	assert.Contains(t, stdout, "[OK] Plan fits the monthly quota")

	stdout, _, err = run(t, env, "plan", "--json", "--strategy", "conservative")
	require.NoError(t, err)

	var out planOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 6, out.TotalCalls)
	require.Len(t, out.Plan, 6)
	assert.Equal(t, "paris", out.Plan[0].Destination.Key)
	assert.Equal(t, "london", out.Plan[1].Destination.Key)
	assert.Equal(t, 42, out.Estimate.MonthlyCalls)
}

func TestPlan_Preview(t *testing.T) {
	env := setup(t, "")

	stdout, _, err := run(t, env, "plan", "--preview")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Weekend Flight Report")
	assert.Contains(t, stdout, "Scanning 8 queries with fixture")
	assert.Empty(t, savedReports(t, env.outputDir))
}

func TestQuota(t *testing.T) {
	env := setup(t, "quota:\n  monthly_limit: 20\n")

	stdout, _, err := run(t, env, "quota", "--json", "--runs", "4")
	require.NoError(t, err)

	var est planner.UsageEstimate
	require.NoError(t, json.Unmarshal([]byte(stdout), &est))
	assert.Equal(t, 8, est.CallsPerRun)
	assert.Equal(t, 32, est.MonthlyCalls)
	assert.Equal(t, 2, est.MaxRunsPerMonth)
	assert.False(t, est.WithinQuota)

	_, stderr, err := run(t, env, "quota")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[WARN] Plan needs 56 calls per month, 36 over the quota")
}

func TestValidate(t *testing.T) {
	env := setup(t, "")

	stdout, _, err := run(t, env, "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Departs:       Friday")
	assert.Contains(t, stdout, "Window:        2026-04-01 to 2026-04-30")
	assert.Contains(t, stdout, "[OK] Configuration is valid")

	bad := setup(t, "")
	raw, err := os.ReadFile(bad.configPath)
	require.NoError(t, err)
	raw = bytes.Replace(raw, []byte("trip_duration_days: 3"), []byte("trip_duration_days: 45"), 1)
	require.NoError(t, os.WriteFile(bad.configPath, raw, 0o644))

	_, stderr, err := run(t, bad, "validate")
	assert.EqualError(t, err, "configuration is invalid")
	assert.Contains(t, stderr, "[ERROR] invalid configuration: trip_duration_days")
}

func TestHistory_RequiresDatabase(t *testing.T) {
	env := setup(t, "")

	_, _, err := run(t, env, "history")
	var cfgErr *planner.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "database.url", cfgErr.Field)
}

func TestHistory(t *testing.T) {
	env := setup(t, "database:\n  url: postgres://flightwatch@localhost/flightwatch\n")

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	newer := time.Date(2026, time.March, 9, 6, 0, 0, 0, time.UTC)
	older := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT r.generated_at").
		WithArgs("paris", 5).
		WillReturnRows(pgxmock.NewRows([]string{"generated_at", "quote_count", "min_price", "mean_price"}).
			AddRow(newer, 8, 412.0, 470.5).
			AddRow(older, 8, 450.0, 480.0))
	mock.ExpectClose()

	orig := openHistory
	openHistory = func(ctx context.Context, url string) (*history.Store, error) {
		assert.Equal(t, "postgres://flightwatch@localhost/flightwatch", url)
		return history.New(mock), nil
	}
	t.Cleanup(func() { openHistory = orig })

	stdout, _, err := run(t, env, "history", "paris", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Price history: paris")
	assert.Contains(t, stdout, "2026-03-09 06:00")
	assert.Contains(t, stdout, "$412 USD")
	assert.Contains(t, stdout, "-$38 USD")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	stdout, _, err := run(t, testEnv{configPath: "/does/not/exist.yaml"}, "version")
	require.NoError(t, err)
	assert.Equal(t, "flightwatch 1.2.3\n", stdout)
}
