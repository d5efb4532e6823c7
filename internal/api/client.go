package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

const (
	// DefaultBaseURL is used when the backend runs next to the front-end on the host.
	DefaultBaseURL = "http://localhost:8000"
	// ContainerBaseURL is the backend's service name inside the compose network.
	ContainerBaseURL = "http://backend:8000"

	// maxRawErrorLen bounds non-JSON error bodies that are shown verbatim.
	maxRawErrorLen = 200
)

// HTTPError is returned for any response outside the 2xx range. Message is
// already suitable for display.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

type TestMessage struct {
	Message string `json:"message"`
}

type estimateRequest struct {
	Dish string `json:"dish"`
}

// Client talks to the carbon-footprint estimation backend.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit caps outbound calls to perMinute requests. Zero or negative
// leaves the client unlimited.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Inf, 0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.Get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Test(ctx context.Context) (*TestMessage, error) {
	var out TestMessage
	if err := c.Get(ctx, "/api/test", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EstimateDish(ctx context.Context, dish string) (*domain.EstimationResult, error) {
	var out domain.EstimationResult
	if err := c.PostJSON(ctx, "/estimate", estimateRequest{Dish: dish}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EstimateImage(ctx context.Context, img domain.ImageUpload) (*domain.EstimationResult, error) {
	var out domain.EstimationResult
	if err := c.PostMultipart(ctx, "/estimate/image", "file", img, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// PostMultipart uploads img as a single form file under field.
func (c *Client) PostMultipart(ctx context.Context, path, field string, img domain.ImageUpload, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, uploadName(img)))
	if img.MimeType != "" {
		h.Set("Content-Type", img.MimeType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return fmt.Errorf("network error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close backend response body", "error", err)
		}
	}()

	c.logger.Debug("backend request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage picks the most useful display text out of a failed response:
// a JSON "detail" or "message" string, then a short non-markup body, then a
// generic status line.
func errorMessage(status int, body []byte) string {
	var fields struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, raw := range []json.RawMessage{fields.Detail, fields.Message} {
			var s string
			if len(raw) > 0 && json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
		return fmt.Sprintf("HTTP error: %d", status)
	}

	text := strings.TrimSpace(string(body))
	if text != "" && len(text) < maxRawErrorLen && !looksLikeMarkup(text) {
		return text
	}
	return fmt.Sprintf("HTTP error: %d", status)
}

func looksLikeMarkup(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

func uploadName(img domain.ImageUpload) string {
	if img.Filename != "" {
		return img.Filename
	}
	return "upload"
}
