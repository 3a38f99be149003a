package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"chat-relay/internal/domain"
)

const (
	defaultTimeout   = 60 * time.Second
	maxResponseBytes = 1 << 20
	maxErrorBytes    = 4096
)

// Getter is the parameter lookup used to resolve the endpoint lazily.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client posts a conversation to the upstream generation service using the
// wire contract of its Profile.
type Client struct {
	endpoint   string
	profile    Profile
	httpClient *http.Client

	getter    Getter
	paramName string

	mu       sync.RWMutex
	resolved string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithEndpointParameter resolves the endpoint from the named parameter on the
// first Generate call. The resolved value replaces the static endpoint for the
// lifetime of the process.
func WithEndpointParameter(g Getter, name string) Option {
	return func(c *Client) {
		c.getter = g
		c.paramName = strings.TrimSpace(name)
	}
}

// NewClient creates a Client for the given endpoint and profile. endpoint may
// be empty when an endpoint parameter is configured.
func NewClient(endpoint string, profile Profile, opts ...Option) (*Client, error) {
	if profile == nil {
		return nil, errors.New("generator: profile must not be nil")
	}
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		profile:    profile,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.paramName != "" && c.getter == nil {
		return nil, errors.New("generator: parameter getter must not be nil")
	}
	if c.paramName == "" {
		if err := validateEndpoint(c.endpoint); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) Profile() string {
	return c.profile.Name()
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// resolveEndpoint returns the static endpoint, or fetches it from the
// parameter store and caches it. Failed lookups are not cached.
func (c *Client) resolveEndpoint(ctx context.Context) (string, error) {
	if c.paramName == "" {
		return c.endpoint, nil
	}

	c.mu.RLock()
	resolved := c.resolved
	c.mu.RUnlock()
	if resolved != "" {
		return resolved, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved != "" {
		return c.resolved, nil
	}
	value, err := c.getter.GetParameter(ctx, c.paramName)
	if err != nil {
		return "", fmt.Errorf("generator: resolve endpoint: %w", err)
	}
	if err := validateEndpoint(value); err != nil {
		return "", err
	}
	c.resolved = value
	return value, nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errors.New("generator: endpoint must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("generator: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("generator: endpoint %q must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("generator: endpoint %q has no host", raw)
	}
	return nil
}

// Generate sends messages upstream and returns the generated text.
// Failures are *HTTPStatusError, *TransportError or *ContractError; anything
// else is a local fault.
func (c *Client) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	endpoint, err := c.resolveEndpoint(ctx)
	if err != nil {
		return "", err
	}

	body, err := c.profile.EncodeRequest(messages)
	if err != nil {
		return "", fmt.Errorf("generator: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generator: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.doJSONRequest(req, endpoint)
	if err != nil {
		return "", err
	}
	return c.profile.DecodeResponse(raw)
}

func (c *Client) doJSONRequest(req *http.Request, endpoint string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		cause := doErr
		var urlErr *url.Error
		if errors.As(doErr, &urlErr) {
			cause = urlErr.Err
		}
		return nil, &TransportError{URL: endpoint, Err: cause}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBytes))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{URL: endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}
	return buf, nil
}
