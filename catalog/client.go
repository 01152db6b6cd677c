// Package catalog fetches the public category list the storefront shows on its
// category pages. Calls are made once per render: there is no retry and no
// caching of results.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout     = 5 * time.Second
	maxResponseBodyLen = 4 << 20
	categoriesPath     = "/categories"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrResponseTooLarge = errors.New("category response exceeds size limit")
)

// Category is one entry of the public category list. HTML carries an
// optional rich description fragment authored in the admin panel.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// BaseURL derives the public API base from the configured API root.
func BaseURL(apiRoot string) string {
	return strings.TrimRight(strings.TrimSpace(apiRoot), "/") + "/public"
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		c.http = cl
	}
}

// WithTimeout bounds each category request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithTraceRequests logs every upstream call.
func WithTraceRequests(logHeaders bool) Option {
	return func(c *Client) {
		c.traceRequests = true
		c.logHeaders = logHeaders
	}
}

// Client reads categories from the public API.
type Client struct {
	baseURL       string
	http          *http.Client
	traceRequests bool
	logHeaders    bool
}

// NewClient creates a client rooted at BaseURL(apiRoot).
func NewClient(apiRoot string, opts ...Option) *Client {
	c := &Client{
		baseURL: BaseURL(apiRoot),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.traceRequests {
		wrapped := *c.http
		wrapped.Transport = NewLoggingTransport(c.http.Transport, WithTransportLogHeaders(c.logHeaders))
		c.http = &wrapped
	}

	return c
}

// BaseURL is the public API base this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Categories fetches the category list.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+categoriesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build category request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch categories: %w", err)
	}
	defer util.CloseAndLogOnError(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen+1))
	if err != nil {
		return nil, fmt.Errorf("could not read categories: %w", err)
	}
	if len(data) > maxResponseBodyLen {
		return nil, ErrResponseTooLarge
	}

	var categories []Category
	if err = json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("could not decode categories: %w", err)
	}

	return categories, nil
}
