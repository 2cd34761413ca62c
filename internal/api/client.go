// Package api implements the HTTP client for the learnchat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apierrors "github.com/diogo/learnchat/internal/errors"
	"github.com/diogo/learnchat/internal/models"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 1 << 20

// maxErrorBody caps how much of a rejected body is kept for diagnostics
const maxErrorBody = 4096

// HTTPDoer is the subset of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientInterface is implemented by Client and MockClient
type ClientInterface interface {
	Chat(ctx context.Context, message string) (*models.ChatReply, error)
	Health(ctx context.Context) (*models.Health, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Knowledge(ctx context.Context) ([]models.KnowledgeEntry, error)
	BaseURL() string
	Close()
}

var _ ClientInterface = (*Client)(nil)

// Client talks to a learnchat backend
type Client struct {
	httpClient     HTTPDoer
	baseURL        string
	timeoutSeconds int
	mu             sync.RWMutex
	closed         bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithBaseURL sets the backend root, e.g. http://127.0.0.1:5000
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeoutSeconds sets the per-request timeout of the default transport
func WithTimeoutSeconds(seconds int) ClientOption {
	return func(c *Client) {
		c.timeoutSeconds = seconds
	}
}

// WithHTTPClient replaces the transport (used in tests)
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// NewClient creates a new Client
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL:        models.DefaultServerURL,
		timeoutSeconds: 60,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(client.timeoutSeconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close marks the client as closed; later calls fail
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Chat posts one message and returns the accepted reply. Rejections come
// back as *errors.APIError, unusable bodies as *errors.ParseError and
// transport failures as *errors.NetworkError.
func (c *Client) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	payload, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, models.EndpointChat, payload)
	if err != nil {
		return nil, err
	}

	return parseChatReply(status, body)
}

// Health fetches the backend health report
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	body, err := c.get(ctx, models.EndpointHealth)
	if err != nil {
		return nil, err
	}
	return parseHealth(body)
}

// Stats fetches the backend learning statistics
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	body, err := c.get(ctx, models.EndpointStats)
	if err != nil {
		return nil, err
	}
	return parseStats(body)
}

// Knowledge fetches the learned Q&A pairs, most used first
func (c *Client) Knowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	body, err := c.get(ctx, models.EndpointKnowledge)
	if err != nil {
		return nil, err
	}
	return parseKnowledge(body)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	status, body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, rejection(status, endpoint, body)
	}
	return body, nil
}

// do performs one request and returns the status code and body
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	if c.IsClosed() {
		return 0, nil, fmt.Errorf("client is closed")
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, apierrors.NewTimeoutError(endpoint)
		}
		return 0, nil, apierrors.NewNetworkErrorWithEndpoint(strings.ToLower(method)+" request", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, apierrors.NewNetworkErrorWithEndpoint("read response", endpoint, err)
	}

	return resp.StatusCode, body, nil
}
