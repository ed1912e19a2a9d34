// Package config provides Viper-based configuration management for flightwatch
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dharmasatrya/weekendfares/internal/cache"
	"github.com/dharmasatrya/weekendfares/internal/models"
	"github.com/dharmasatrya/weekendfares/internal/planner"
	"github.com/dharmasatrya/weekendfares/internal/ratelimit"
)

// EnvFiles are loaded into the process environment before the config is read.
// Variables already set in the environment win.
var EnvFiles = []string{"config.env", ".env"}

// Config represents the complete flightwatch configuration
type Config struct {
	Search   SearchConfig   `mapstructure:"search"`
	Provider ProviderConfig `mapstructure:"provider"`
	Filters  FilterConfig   `mapstructure:"filters"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Email    EmailConfig    `mapstructure:"email"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// SearchConfig describes the route and the travel window
type SearchConfig struct {
	Origin       string              `mapstructure:"origin"`
	OriginCity   string              `mapstructure:"origin_city"`
	Destinations []DestinationConfig `mapstructure:"destinations"`
	// Year of the first window month. Zero picks the next occurrence of start_month.
	Year                   int    `mapstructure:"year"`
	StartMonth             int    `mapstructure:"start_month"`
	EndMonth               int    `mapstructure:"end_month"`
	DepartureDays          []int  `mapstructure:"departure_days"`
	TripDurationDays       int    `mapstructure:"trip_duration_days"`
	ReturnWithinWindow     bool   `mapstructure:"return_within_window"`
	Strategy               string `mapstructure:"strategy"`
	MaxDatesPerDestination int    `mapstructure:"max_dates_per_destination"`
	Passengers             int    `mapstructure:"passengers"`
	Currency               string `mapstructure:"currency"`
}

type DestinationConfig struct {
	Key     string   `mapstructure:"key"`
	City    string   `mapstructure:"city"`
	Country string   `mapstructure:"country"`
	Codes   []string `mapstructure:"codes"`
}

// ProviderConfig selects and tunes the pricing backend
type ProviderConfig struct {
	Name              string          `mapstructure:"name"`
	APIKey            string          `mapstructure:"api_key"`
	BaseURL           string          `mapstructure:"base_url"`
	Language          string          `mapstructure:"language"`
	DeepSearch        bool            `mapstructure:"deep_search"`
	Timeout           time.Duration   `mapstructure:"timeout"`
	RequestInterval   time.Duration   `mapstructure:"request_interval"`
	Burst             int             `mapstructure:"burst"`
	MaxRetries        int             `mapstructure:"max_retries"`
	RetryDelays       []time.Duration `mapstructure:"retry_delays"`
	MaxQuotesPerQuery int             `mapstructure:"max_quotes_per_query"`
}

// FilterConfig holds optional quote filters. Zero values disable a filter,
// except MaxStops where a negative value does.
type FilterConfig struct {
	MaxPrice           float64  `mapstructure:"max_price"`
	MaxStops           int      `mapstructure:"max_stops"`
	DirectOnly         bool     `mapstructure:"direct_only"`
	Airlines           []string `mapstructure:"airlines"`
	DepartureAfter     string   `mapstructure:"departure_after"`
	DepartureBefore    string   `mapstructure:"departure_before"`
	MaxDurationMinutes int      `mapstructure:"max_duration_minutes"`
}

type QuotaConfig struct {
	MonthlyLimit   int `mapstructure:"monthly_limit"`
	RunsPerMonth   int `mapstructure:"runs_per_month"`
	MaxCallsPerRun int `mapstructure:"max_calls_per_run"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type EmailConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	TopDeals int      `mapstructure:"top_deals"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig contains report output settings
type OutputConfig struct {
	Dir   string `mapstructure:"dir"`
	Top   int    `mapstructure:"top"`
	Color string `mapstructure:"color"`
}

// Load reads configuration from file, env files and environment variables
func Load(cfgFile string) (*Config, error) {
	if err := loadEnvFiles(EnvFiles...); err != nil {
		return nil, err
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("flightwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/flightwatch")
	}

	v.SetEnvPrefix("FLIGHTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := applyLegacyEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.origin", "TLV")
	v.SetDefault("search.origin_city", "Tel Aviv")
	v.SetDefault("search.destinations", []map[string]any{
		{"key": "paris", "city": "Paris", "country": "France", "codes": []string{"CDG", "ORY"}},
		{"key": "london", "city": "London", "country": "United Kingdom", "codes": []string{"LHR", "LGW", "STN"}},
	})
	v.SetDefault("search.year", 0)
	v.SetDefault("search.start_month", 4)
	v.SetDefault("search.end_month", 6)
	v.SetDefault("search.departure_days", []int{2, 3})
	v.SetDefault("search.trip_duration_days", 4)
	v.SetDefault("search.return_within_window", false)
	v.SetDefault("search.strategy", string(planner.StrategyWeekly))
	v.SetDefault("search.max_dates_per_destination", 0)
	v.SetDefault("search.passengers", 1)
	v.SetDefault("search.currency", "USD")

	v.SetDefault("provider.name", "serpapi")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.language", "en")
	v.SetDefault("provider.deep_search", false)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("provider.request_interval", time.Second)
	v.SetDefault("provider.burst", 1)
	v.SetDefault("provider.max_retries", 2)
	v.SetDefault("provider.retry_delays", []time.Duration{2 * time.Second, 5 * time.Second})
	v.SetDefault("provider.max_quotes_per_query", 0)

	v.SetDefault("filters.max_price", 0)
	v.SetDefault("filters.max_stops", -1)
	v.SetDefault("filters.direct_only", false)
	v.SetDefault("filters.airlines", []string{})
	v.SetDefault("filters.departure_after", "")
	v.SetDefault("filters.departure_before", "")
	v.SetDefault("filters.max_duration_minutes", 0)

	v.SetDefault("quota.monthly_limit", 250)
	v.SetDefault("quota.runs_per_month", 7)
	v.SetDefault("quota.max_calls_per_run", 0)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 6*time.Hour)

	v.SetDefault("database.url", "")

	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 465)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", []string{})
	v.SetDefault("email.top_deals", 5)

	v.SetDefault("server.port", "8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.top", 10)
	v.SetDefault("output.color", "auto")
}

func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// applyLegacyEnv maps the variable names used by the scheduled workflow's
// config.env onto config keys.
func applyLegacyEnv(v *viper.Viper) error {
	strs := map[string]string{
		"SERPAPI_KEY":    "provider.api_key",
		"EMAIL_USER":     "email.username",
		"EMAIL_PASS":     "email.password",
		"DEPARTURE_CODE": "search.origin",
		"DEPARTURE_CITY": "search.origin_city",
		"DATABASE_URL":   "database.url",
		"REDIS_PORT":     "redis.port",
	}
	for env, key := range strs {
		if val, ok := lookup(env); ok {
			v.Set(key, val)
		}
	}

	if val, ok := lookup("REDIS_HOST"); ok {
		v.Set("redis.host", val)
		v.Set("redis.enabled", true)
	}
	if val, ok := lookup("EMAIL_TO"); ok {
		v.Set("email.to", splitList(val))
	}

	ints := map[string]string{
		"START_MONTH":        "search.start_month",
		"END_MONTH":          "search.end_month",
		"TRIP_DURATION_DAYS": "search.trip_duration_days",
	}
	for env, key := range ints {
		val, ok := lookup(env)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return &planner.ConfigurationError{Field: strings.ToLower(env), Reason: fmt.Sprintf("%q is not a number", val)}
		}
		v.Set(key, n)
	}

	if val, ok := lookup("DEPARTURE_DAYS"); ok {
		days, err := parseDays(val)
		if err != nil {
			return err
		}
		v.Set("search.departure_days", days)
	}

	city, hasCity := lookup("ARRIVAL_CITY")
	codes, hasCodes := lookup("ARRIVAL_CODES")
	if hasCodes {
		if !hasCity {
			city = strings.Join(splitList(codes), "/")
		}
		v.Set("search.destinations", []map[string]any{{
			"key":   strings.ToLower(strings.ReplaceAll(city, " ", "_")),
			"city":  city,
			"codes": splitList(codes),
		}})
	}
	return nil
}

func lookup(env string) (string, bool) {
	val, ok := os.LookupEnv(env)
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDays(s string) ([]int, error) {
	var days []int
	for _, part := range splitList(s) {
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, &planner.ConfigurationError{
				Field:  "departure_days",
				Reason: fmt.Sprintf("%q is not a weekday number (Monday=0)", part),
			}
		}
		days = append(days, d)
	}
	return days, nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", l.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", l.Format)
	}
	return nil
}

// Window resolves the configured travel window. A zero year means the next
// time start_month comes around, counting the current month.
func (c *Config) Window(now time.Time) planner.TravelWindow {
	s := c.Search
	year := ResolveYear(s.Year, time.Month(s.StartMonth), now)

	days := make([]planner.Weekday, 0, len(s.DepartureDays))
	for _, d := range s.DepartureDays {
		days = append(days, planner.Weekday(d))
	}

	return planner.TravelWindow{
		Year:               year,
		StartMonth:         time.Month(s.StartMonth),
		EndMonth:           time.Month(s.EndMonth),
		Weekdays:           days,
		DurationDays:       s.TripDurationDays,
		ReturnWithinWindow: s.ReturnWithinWindow,
	}
}

// ResolveYear returns year unless it is zero, in which case it picks the year
// of the next start month on or after now.
func ResolveYear(year int, startMonth time.Month, now time.Time) int {
	if year != 0 {
		return year
	}
	year = now.Year()
	if startMonth < now.Month() {
		year++
	}
	return year
}

// Destinations converts the configured destinations, deriving a missing key
// from the city name.
func (c *Config) Destinations() []models.Destination {
	out := make([]models.Destination, 0, len(c.Search.Destinations))
	for _, d := range c.Search.Destinations {
		key := d.Key
		if key == "" {
			key = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(d.City), " ", "_"))
		}
		codes := make([]string, 0, len(d.Codes))
		for _, code := range d.Codes {
			codes = append(codes, strings.ToUpper(strings.TrimSpace(code)))
		}
		out = append(out, models.Destination{
			Key:     key,
			City:    d.City,
			Country: d.Country,
			Codes:   codes,
		})
	}
	return out
}

// RateLimiter paces the configured provider at one call per
// request_interval. Other providers get the package defaults.
func (c *Config) RateLimiter() *ratelimit.ProviderLimiter {
	limiter := ratelimit.NewProviderLimiterWithDefaults()
	pace := ratelimit.FromInterval(c.Provider.RequestInterval)
	limiter.SetProviderLimit(c.Provider.Name, pace.RequestsPerSecond, max(c.Provider.Burst, 1))
	return limiter
}

// RedisOptions fills unset Redis settings from the cache defaults.
func (c *Config) RedisOptions() cache.RedisConfig {
	opts := cache.DefaultRedisConfig()
	if c.Redis.Host != "" {
		opts.Host = c.Redis.Host
	}
	if c.Redis.Port != "" {
		opts.Port = c.Redis.Port
	}
	if c.Redis.TTL > 0 {
		opts.TTL = c.Redis.TTL
	}
	opts.Password = c.Redis.Password
	opts.DB = c.Redis.DB
	return opts
}

// QuoteFilters returns nil when no filter is configured.
func (c *Config) QuoteFilters() *models.QuoteFilters {
	f := c.Filters
	out := &models.QuoteFilters{
		DirectOnly: f.DirectOnly,
		Airlines:   f.Airlines,
	}
	if f.MaxPrice > 0 {
		price := f.MaxPrice
		out.PriceMax = &price
	}
	if f.MaxStops >= 0 {
		stops := f.MaxStops
		out.MaxStops = &stops
	}
	if f.DepartureAfter != "" {
		after := f.DepartureAfter
		out.DepartureTimeMin = &after
	}
	if f.DepartureBefore != "" {
		before := f.DepartureBefore
		out.DepartureTimeMax = &before
	}
	if f.MaxDurationMinutes > 0 {
		minutes := f.MaxDurationMinutes
		out.MaxDuration = &minutes
	}
	if out.Empty() {
		return nil
	}
	return out
}

// CapPerDestination resolves max_dates_per_destination against the strategy.
func (c *Config) CapPerDestination() (int, error) {
	return planner.ResolveCap(c.Search.Strategy, c.Search.MaxDatesPerDestination)
}
