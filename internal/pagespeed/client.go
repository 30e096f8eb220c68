package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com"
	runPath        = "/pagespeedonline/v5/runPagespeed"
)

// ErrNoLighthouseResult means the provider answered without a usable report.
var ErrNoLighthouseResult = errors.New("response has no lighthouse result")

var categories = []string{"performance", "accessibility", "best-practices", "seo"}

type Options struct {
	BaseURL           string
	APIKey            string
	Strategy          core.Strategy
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client fetches snapshots from the PageSpeed Insights v5 API.
type Client struct {
	baseURL  string
	apiKey   string
	strategy core.Strategy
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Strategy == "" {
		opts.Strategy = core.StrategyMobile
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		strategy: opts.Strategy,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  limiter,
		logger:   logger.With(zap.String("component", "pagespeed")),
		now:      time.Now,
	}
}

// FetchOptions overrides the client defaults for one call.
type FetchOptions struct {
	APIKey   string
	Strategy core.Strategy
}

// Fetch runs one analysis of pageURL.
func (c *Client) Fetch(ctx context.Context, pageURL string, opts FetchOptions) (*core.Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(pageURL, opts), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagespeed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, providerError(resp.StatusCode, body)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	snap, err := payload.snapshot(c.now().UTC())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Snapshot fetched",
		zap.String("url", pageURL),
		zap.Duration("duration", c.now().Sub(start)),
	)
	return snap, nil
}

func (c *Client) requestURL(pageURL string, opts FetchOptions) string {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = c.strategy
	}
	key := opts.APIKey
	if key == "" {
		key = c.apiKey
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", string(strategy))
	for _, cat := range categories {
		q.Add("category", cat)
	}
	if key != "" {
		q.Set("key", key)
	}
	return c.baseURL + runPath + "?" + q.Encode()
}

func providerError(status int, body []byte) error {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return fmt.Errorf("pagespeed returned %d: %s", status, e.Error.Message)
	}
	return fmt.Errorf("pagespeed returned %d", status)
}
