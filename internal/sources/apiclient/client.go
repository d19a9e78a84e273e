// Package apiclient is the JSON-over-HTTP transport shared by the catalog
// source adapters. It maps HTTP failures onto the services error markers and
// serves repeated requests from the response cache.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"gamelens/internal/apicache"
	"gamelens/internal/logging"
	"gamelens/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 8 << 20
	errorSnippetBytes  = 512
)

// Cache stores raw response bodies. *apicache.Store implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, source, key string, body []byte, ttl time.Duration) error
}

// CacheObserver counts cache hits and misses. metrics.Recorder implements it.
type CacheObserver interface {
	ObserveCache(source string, hit bool)
}

// Authorizer decorates outgoing requests, e.g. with a bearer token.
type Authorizer func(ctx context.Context, req *http.Request) error

// Config describes one source's transport.
type Config struct {
	Source     string
	BaseURL    string
	HTTPClient *http.Client
	Header     http.Header
	Authorize  Authorizer
	Cache      Cache
	TTL        time.Duration
	Observer   CacheObserver
	Logger     *slog.Logger
}

// Client issues JSON requests against one source's API.
type Client struct {
	source    string
	baseURL   *url.URL
	http      *http.Client
	header    http.Header
	authorize Authorizer
	cache     Cache
	ttl       time.Duration
	observer  CacheObserver
	logger    *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		return nil, errors.New("apiclient: source name is required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, services.Wrap(services.ErrConfiguration, source, "init", "base url is required", nil)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, source, "init", "parse base url", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		source:    source,
		baseURL:   baseURL,
		http:      client,
		header:    cfg.Header.Clone(),
		authorize: cfg.Authorize,
		cache:     cfg.Cache,
		ttl:       cfg.TTL,
		observer:  cfg.Observer,
		logger:    logging.NewComponentLogger(cfg.Logger, "apiclient"),
	}, nil
}

// Source returns the source name used for error context and cache entries.
func (c *Client) Source() string { return c.source }

// Request describes one API call. Path is joined onto the base URL.
type Request struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      string
	Header    http.Header
	// NoCache bypasses the response cache for both reads and writes.
	NoCache bool
}

// Do performs req and decodes the JSON response into out. Cached bodies are
// used when present and unexpired; successful responses are cached.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		endpoint.RawQuery = req.Query.Encode()
	}
	target := endpoint.String()

	useCache := c.cache != nil && c.ttl > 0 && !req.NoCache
	key := apicache.Key(method, target, req.Body)
	if useCache {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.warnCache(ctx, "read", err)
		}
		if c.observer != nil {
			c.observer.ObserveCache(c.source, ok)
		}
		if ok {
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
			c.logger.Debug("discarding undecodable cached response", logging.String(logging.FieldSource, c.source))
		}
	}

	body, err := c.fetch(ctx, req.Operation, method, target, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrTransient, c.source, req.Operation, "decode response", err)
	}
	if useCache {
		if err := c.cache.Put(ctx, c.source, key, body, c.ttl); err != nil {
			c.warnCache(ctx, "write", err)
		}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, operation, method, target string, req Request) ([]byte, error) {
	var reader io.Reader
	if req.Body != "" {
		reader = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, c.source, operation, "build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, values := range c.header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if c.authorize != nil {
		if err := c.authorize(ctx, httpReq); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %s: %w", c.source, operation, ctxErr)
		}
		return nil, services.Wrap(services.ErrSourceUnavailable, c.source, operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetBytes))
		return nil, StatusError(c.source, operation, resp.StatusCode, string(bytes.TrimSpace(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, c.source, operation, "read response", err)
	}
	return body, nil
}

// HTTPError is the cause attached to errors built by StatusError.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// StatusCode extracts the HTTP status from an error built by StatusError,
// or 0 when err carries none.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// StatusError classifies an HTTP failure status.
func StatusError(source, operation string, status int, body string) error {
	cause := &HTTPError{Status: status, Body: body}
	switch {
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, source, operation, "", cause)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, source, operation, "", cause)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, source, operation, "check credentials", cause)
	case status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrSourceUnavailable, source, operation, "", cause)
	default:
		return services.Wrap(services.ErrTransient, source, operation, "", cause)
	}
}

func (c *Client) warnCache(ctx context.Context, action string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "response cache "+action+" failed", "response_cache_"+action+"_failed",
		logging.String(logging.FieldSource, c.source),
		logging.Error(err),
		logging.String(logging.FieldImpact, "request served without cache"),
		logging.String(logging.FieldErrorHint, "run 'gamelens cache clear' if the cache database is corrupt"),
	)
}
