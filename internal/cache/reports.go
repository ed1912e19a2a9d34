package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

const LatestReportKey = "flightwatch:report:latest"

var ErrNoReport = errors.New("no report stored")

// ReportStore keeps the most recent report for the read API.
type ReportStore interface {
	SaveLatest(ctx context.Context, report models.Report) error
	Latest(ctx context.Context) (models.Report, error)
}

type RedisReportStore struct {
	client *redis.Client
}

func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

func (s *RedisReportStore) SaveLatest(ctx context.Context, report models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, LatestReportKey, data, 0).Err()
}

func (s *RedisReportStore) Latest(ctx context.Context) (models.Report, error) {
	data, err := s.client.Get(ctx, LatestReportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Report{}, ErrNoReport
	}
	if err != nil {
		return models.Report{}, err
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return models.Report{}, err
	}
	return report, nil
}

// MemoryReportStore is used when no Redis is configured.
type MemoryReportStore struct {
	mu     sync.RWMutex
	report *models.Report
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{}
}

func (s *MemoryReportStore) SaveLatest(ctx context.Context, report models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &report
	return nil
}

func (s *MemoryReportStore) Latest(ctx context.Context) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return models.Report{}, ErrNoReport
	}
	return *s.report, nil
}
