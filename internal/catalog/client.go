package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grocery-price-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://cphapp.rema1000.dk/api/v3"
	DefaultPerPage     = 1000000000
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client lists departments and the raw products of a department.
type Client interface {
	Departments(ctx context.Context) ([]Department, error)
	Products(ctx context.Context, dept Department) ([]json.RawMessage, error)
}

// HTTPClient implements Client against the catalog JSON API.
type HTTPClient struct {
	baseURL     string
	client      *http.Client
	perPage     int
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithPerPage sets the page size requested per department.
func WithPerPage(n int) ClientOption {
	return func(c *HTTPClient) {
		c.perPage = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new catalog API client. An empty baseURL uses DefaultBaseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		perPage:     DefaultPerPage,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the response wrapper used by every catalog endpoint.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Departments returns all catalog departments.
func (c *HTTPClient) Departments(ctx context.Context) ([]Department, error) {
	var departments []Department
	if err := c.get(ctx, "departments", "/departments", &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// Products returns the undecoded products of one department.
func (c *HTTPClient) Products(ctx context.Context, dept Department) ([]json.RawMessage, error) {
	path := fmt.Sprintf("/departments/%d/products?%s", dept.ID, url.Values{
		"per_page": []string{strconv.Itoa(c.perPage)},
	}.Encode())

	var products []json.RawMessage
	if err := c.get(ctx, "products", path, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// get performs a GET with retries and exponential backoff and decodes the data envelope.
// Transport errors, 429 and 5xx responses are retried; other statuses fail immediately.
func (c *HTTPClient) get(ctx context.Context, endpoint, path string, result interface{}) error {
	start := time.Now()
	err := c.doGet(ctx, path, result)
	observability.RecordCatalogRequest(endpoint, time.Since(start).Seconds(), err)
	return err
}

func (c *HTTPClient) doGet(ctx context.Context, path string, result interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ Client = (*HTTPClient)(nil)
