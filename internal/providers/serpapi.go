package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

const (
	DefaultSerpAPIURL = "https://serpapi.com/search"
	DefaultTimeout    = 30 * time.Second
)

// SerpAPI queries the google_flights engine of SerpApi for round trips.
type SerpAPI struct {
	baseURL    string
	apiKey     string
	language   string
	deepSearch bool
	hc         *http.Client
	logger     *slog.Logger
}

type Option func(*SerpAPI)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *SerpAPI) { c.hc = hc }
}

func WithBaseURL(u string) Option {
	return func(c *SerpAPI) { c.baseURL = u }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *SerpAPI) { c.logger = l }
}

func WithLanguage(hl string) Option {
	return func(c *SerpAPI) { c.language = hl }
}

// WithDeepSearch asks SerpApi for browser-identical results, slower per call.
func WithDeepSearch(on bool) Option {
	return func(c *SerpAPI) { c.deepSearch = on }
}

func NewSerpAPI(apiKey string, opts ...Option) *SerpAPI {
	c := &SerpAPI{
		baseURL:  DefaultSerpAPIURL,
		apiKey:   apiKey,
		language: "en",
		hc:       &http.Client{Timeout: DefaultTimeout},
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *SerpAPI) Name() string {
	return "serpapi"
}

func (c *SerpAPI) Search(ctx context.Context, req models.SearchRequest) ([]models.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("engine", "google_flights")
	q.Set("departure_id", req.Origin)
	q.Set("arrival_id", req.Entry.Destination.ArrivalID())
	q.Set("outbound_date", req.Entry.OutboundString())
	q.Set("return_date", req.Entry.ReturnString())
	q.Set("currency", req.Currency)
	q.Set("hl", c.language)
	q.Set("type", "1")
	q.Set("adults", strconv.Itoa(req.Passengers))
	if c.deepSearch {
		q.Set("deep_search", "true")
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug("serpapi request",
		"destination", req.Entry.Destination.Key,
		"outbound", req.Entry.OutboundString(),
		"return", req.Entry.ReturnString(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var apiResp googleFlightsResponse
	decodeErr := json.Unmarshal(body, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := apiResp.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(truncate(string(body), 200))
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	if apiResp.Error != "" {
		if isNoResults(apiResp.Error) {
			return nil, ErrNoQuotes
		}
		return nil, fmt.Errorf("api error: %s", apiResp.Error)
	}

	quotes := apiResp.quotes(c.Name(), req)
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return quotes, nil
}

func isNoResults(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "hasn't returned any results")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
