package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/weekendfares/internal/aggregator"
	"github.com/dharmasatrya/weekendfares/internal/models"
)

var (
	generated = time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	apr3      = time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC)
)

func sampleReport() models.Report {
	q := func(dest string, price float64) models.Quote {
		return models.Quote{
			DestinationKey: dest,
			OutboundDate:   apr3,
			ReturnDate:     apr3.AddDate(0, 0, 5),
			Price:          models.Price{Amount: price, Currency: "USD"},
			Duration:       models.NewDuration(300),
		}
	}
	results := []models.SearchResult{
		{Status: models.StatusSuccess, Quotes: []models.Quote{q("paris", 453), q("paris", 533)}, Calls: 1},
		{Status: models.StatusSuccess, Quotes: []models.Quote{q("london", 551)}, Calls: 2},
	}
	return aggregator.Aggregate(results, models.ReportMetadata{RunID: "run-1", GeneratedAt: generated, Origin: "TLV"})
}

func TestRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	report := sampleReport()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO flight_runs").
		WithArgs("run-1", generated, "TLV", 3, 3, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO flight_run_destinations").
		WithArgs("run-1", "paris", 2, 453.0, 493.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO flight_run_destinations").
		WithArgs("run-1", "london", 1, 551.0, 551.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, New(mock).Record(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_RollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO flight_runs").
		WithArgs("run-1", generated, "TLV", 3, 3, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = New(mock).Record(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_RequiresRunID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	report := sampleReport()
	report.Metadata.RunID = ""
	assert.ErrorIs(t, New(mock).Record(context.Background(), report), ErrMissingRunID)
}

func TestTrend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	later := generated.AddDate(0, 0, 7)
	rows := pgxmock.NewRows([]string{"generated_at", "quote_count", "min_price", "mean_price"}).
		AddRow(later, 4, 440.0, 470.5).
		AddRow(generated, 2, 453.0, 493.0)
	mock.ExpectQuery(`SELECT r.generated_at, d.quote_count, d.min_price, d.mean_price`).
		WithArgs("paris", 5).
		WillReturnRows(rows)

	points, err := New(mock).Trend(context.Background(), "paris", 5)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, TrendPoint{GeneratedAt: later, QuoteCount: 4, MinPrice: 440, MeanPrice: 470.5}, points[0])
	assert.Equal(t, 453.0, points[1].MinPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrend_DefaultLimitAndError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT r.generated_at`).
		WithArgs("london", 10).
		WillReturnError(errors.New("connection refused"))

	_, err = New(mock).Trend(context.Background(), "london", 0)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS flight_runs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, New(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
