package wikiapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/metrics"
	"github.com/poiesic/wikipath/storage"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultEndpoint is the English Wikipedia API.
	DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

	// DefaultUserAgent identifies the client to the API operators.
	DefaultUserAgent = "wikipath/1.0 (https://github.com/poiesic/wikipath)"

	// maxContinuations caps the pages fetched for one link listing.
	maxContinuations = 50

	articleNamespace = 0
)

// Client is a MediaWiki Action API client. Safe for concurrent use.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	settings  gobreaker.Settings
	logger    *slog.Logger
}

var _ storage.LinkRepository = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets the HTTP client. Default has a 10s timeout and a traced transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return errors.New("http client is nil")
		}
		c.http = client
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		if userAgent != "" {
			c.userAgent = userAgent
		}
		return nil
	}
}

// WithBreaker configures the circuit breaker. The breaker opens once at least
// three requests were seen in the interval and the failure ratio reaches ratio.
func WithBreaker(maxRequests uint32, interval, timeout time.Duration, ratio float64) Option {
	return func(c *Client) error {
		c.settings.MaxRequests = maxRequests
		c.settings.Interval = interval
		c.settings.Timeout = timeout
		c.settings.ReadyToTrip = readyToTrip(ratio)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

func readyToTrip(ratio float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= ratio
	}
}

// NewClient creates a client for the API at endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEndpointRequired, err)
	}

	c := &Client{
		endpoint:  endpoint,
		userAgent: DefaultUserAgent,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		settings: gobreaker.Settings{
			Name:        "wikiapi",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: readyToTrip(0.5),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "wikiapi")

	c.settings.IsSuccessful = func(err error) bool {
		// Missing pages and cancelled callers say nothing about the API's health
		return err == nil ||
			errors.Is(err, storage.ErrNotFound) ||
			errors.Is(err, context.Canceled)
	}
	c.settings.OnStateChange = func(name string, from, to gobreaker.State) {
		c.logger.Warn("circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
	}
	c.breaker = gobreaker.NewCircuitBreaker(c.settings)
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

type apiPage struct {
	PageID  int64  `json:"pageid"`
	NS      int    `json:"ns"`
	Title   string `json:"title"`
	Missing bool   `json:"missing"`
	Invalid bool   `json:"invalid"`
	Links   []struct {
		NS    int    `json:"ns"`
		Title string `json:"title"`
	} `json:"links"`
}

type apiResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages []apiPage `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Resolve returns the canonical title for label, following redirects.
func (c *Client) Resolve(ctx context.Context, label string) (title string, err error) {
	done := metrics.TimeOp("wikiapi_resolve")
	defer func() { done(err == nil || errors.Is(err, storage.ErrNotFound)) }()

	params := url.Values{
		"action":    {"query"},
		"titles":    {label},
		"redirects": {"1"},
	}
	resp, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}
	page, err := firstPage(resp)
	if err != nil {
		return "", err
	}
	if page.NS != articleNamespace {
		return "", storage.ErrNotFound
	}
	return page.Title, nil
}

// Links returns the article-namespace links of the page titled title, in the
// order the API lists them. The API does not report anchor text, so each
// link's DisplayText is its target title.
func (c *Client) Links(ctx context.Context, title string) (links []core.Link, err error) {
	done := metrics.TimeOp("wikiapi_links")
	defer func() { done(err == nil || errors.Is(err, storage.ErrNotFound)) }()

	params := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"links"},
		"pllimit":     {"max"},
		"plnamespace": {"0"},
	}

	links = []core.Link{}
	for i := 0; i < maxContinuations; i++ {
		resp, err := c.query(ctx, params)
		if err != nil {
			return nil, err
		}
		page, err := firstPage(resp)
		if err != nil {
			return nil, err
		}
		for _, l := range page.Links {
			if l.NS != articleNamespace {
				continue
			}
			links = append(links, core.Link{Target: l.Title, DisplayText: l.Title})
		}

		if len(resp.Continue) == 0 {
			return links, nil
		}
		for k, v := range resp.Continue {
			params.Set(k, v)
		}
	}
	c.logger.Warn("link listing truncated", "title", title, "links", len(links))
	return links, nil
}

func firstPage(resp *apiResponse) (*apiPage, error) {
	if len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages in response", ErrMalformedResponse)
	}
	page := &resp.Query.Pages[0]
	if page.Missing || page.Invalid {
		return nil, storage.ErrNotFound
	}
	return page, nil
}

// query performs one API request through the circuit breaker.
func (c *Client) query(ctx context.Context, params url.Values) (*apiResponse, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Debug("request rejected by circuit breaker", "err", err)
		}
		return nil, err
	}
	return result.(*apiResponse), nil
}

func (c *Client) do(ctx context.Context, params url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrAPI, body.Error.Code, body.Error.Info)
	}
	return &body, nil
}
