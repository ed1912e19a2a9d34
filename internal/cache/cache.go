package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

// Cache stores provider quotes per query so repeated runs inside the TTL do
// not spend quota.
type Cache interface {
	Get(ctx context.Context, req models.SearchRequest) ([]models.Quote, bool)
	Set(ctx context.Context, req models.SearchRequest, quotes []models.Quote) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      6 * time.Hour,
	}
}

// NewRedisClient connects and pings, failing fast when Redis is unreachable.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, req models.SearchRequest) ([]models.Quote, bool) {
	key := generateKey(req)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var quotes []models.Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, false
	}

	return quotes, true
}

func (c *RedisCache) Set(ctx context.Context, req models.SearchRequest, quotes []models.Quote) error {
	key := generateKey(req)

	data, err := json.Marshal(quotes)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, req models.SearchRequest) ([]models.Quote, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, req models.SearchRequest, quotes []models.Quote) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

func generateKey(req models.SearchRequest) string {
	keyData := struct {
		Origin        string
		Destinations  string
		DepartureDate string
		ReturnDate    string
		Passengers    int
		Currency      string
	}{
		Origin:        strings.ToUpper(req.Origin),
		Destinations:  req.Entry.Destination.ArrivalID(),
		DepartureDate: req.Entry.OutboundString(),
		ReturnDate:    req.Entry.ReturnString(),
		Passengers:    req.Passengers,
		Currency:      req.Currency,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "flightwatch:quotes:" + hex.EncodeToString(hash[:])
}
