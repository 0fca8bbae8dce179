package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"latinize/internal/logging"
	"latinize/internal/services"
)

const (
	component          = "llm"
	defaultHTTPTimeout = 60 * time.Second
	maxSnippetBytes    = 2048
)

// Config captures the runtime settings required to talk to the chat endpoint.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	// Prompt is the user message template; {title} and {album} are replaced.
	Prompt            string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// Client sends one chat-completion request per latinization and never retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, component)
	}
}

// WithLimiter overrides the pacing limiter derived from RequestsPerMinute.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs a client using the supplied configuration. An empty
// BaseURL is accepted here and reported by Fetch.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:            strings.TrimSpace(cfg.APIKey),
			BaseURL:           strings.TrimSpace(cfg.BaseURL),
			Model:             strings.TrimSpace(cfg.Model),
			SystemPrompt:      cfg.SystemPrompt,
			Prompt:            cfg.Prompt,
			TimeoutSeconds:    cfg.TimeoutSeconds,
			RequestsPerMinute: cfg.RequestsPerMinute,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(nil, component),
	}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Exchange records one request/response pair for diagnostics.
type Exchange struct {
	URL          string
	Prompt       string
	RequestBody  string
	ResponseBody string
	StatusLine   string
	ContentType  string
}

// Dump renders the exchange the way the manual test command prints it.
func (e Exchange) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request URL:\n%s\n\n", e.URL)
	fmt.Fprintf(&b, "Resolved Prompt:\n%s\n\n", e.Prompt)
	fmt.Fprintf(&b, "Request Body:\n%s\n\n", e.RequestBody)
	fmt.Fprintf(&b, "Response Body:\n%s", e.ResponseBody)
	return b.String()
}

// HTTPStatusError reports a reply whose status is outside 2xx.
type HTTPStatusError struct {
	StatusCode  int
	StatusLine  string
	ContentType string
	// Snippet holds at most the first 2048 bytes of the body.
	Snippet   string
	Truncated bool
}

func (e *HTTPStatusError) Error() string {
	var b strings.Builder
	b.WriteString("http status ")
	if e.StatusLine != "" {
		b.WriteString(e.StatusLine)
	} else {
		b.WriteString("unknown")
	}
	if e.ContentType != "" {
		fmt.Fprintf(&b, " (content-type %s)", e.ContentType)
	}
	if e.Snippet != "" {
		if e.Truncated {
			fmt.Fprintf(&b, ": body (first %d bytes): %s", maxSnippetBytes, e.Snippet)
		} else {
			fmt.Fprintf(&b, ": body: %s", e.Snippet)
		}
	}
	return b.String()
}

// Fetch sends exactly one request for the given title and album and returns
// the raw exchange. Errors are marked with services.ErrConfiguration,
// ErrCancelled, ErrNetwork, or ErrHTTPStatus. The exchange is populated as far
// as the request got, including on error.
func (c *Client) Fetch(ctx context.Context, title, album string) (Exchange, error) {
	ex := Exchange{URL: c.cfg.BaseURL}
	if c.cfg.BaseURL == "" {
		return ex, services.Wrap(services.ErrConfiguration, component, "fetch", "api url is empty", nil)
	}
	if err := ctx.Err(); err != nil {
		return ex, services.Wrap(services.ErrCancelled, component, "fetch", "", err)
	}
	if c.limiter != nil {
		// Wait only fails when ctx ends or its deadline falls before the next slot.
		if err := c.limiter.Wait(ctx); err != nil {
			return ex, services.Wrap(services.ErrCancelled, component, "fetch", "wait for rate limiter", err)
		}
	}

	ex.Prompt = RenderPrompt(c.cfg.Prompt, title, album)
	body, err := BuildRequestBody(c.cfg.Model, c.cfg.SystemPrompt, ex.Prompt)
	if err != nil {
		return ex, services.Wrap(services.ErrConfiguration, component, "fetch", "encode request", err)
	}
	ex.RequestBody = string(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return ex, services.Wrap(services.ErrConfiguration, component, "fetch", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ex, c.transportError(ctx, "send request", err)
	}
	defer resp.Body.Close()
	ex.StatusLine = strings.TrimSpace(resp.Proto + " " + resp.Status)
	ex.ContentType = resp.Header.Get("Content-Type")
	raw, err := io.ReadAll(resp.Body)
	ex.ResponseBody = string(raw)
	if err != nil {
		return ex, c.transportError(ctx, "read response", err)
	}

	logging.WithContext(ctx, c.logger).Debug("llm response received",
		logging.String(logging.FieldEventType, "llm_response"),
		logging.Int("status", resp.StatusCode),
		logging.Int("bytes", len(raw)),
		logging.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, truncated := snippetOf(raw)
		statusErr := &HTTPStatusError{
			StatusCode:  resp.StatusCode,
			StatusLine:  ex.StatusLine,
			ContentType: ex.ContentType,
			Snippet:     snippet,
			Truncated:   truncated,
		}
		return ex, services.Wrap(services.ErrHTTPStatus, component, "fetch", "", statusErr)
	}
	return ex, nil
}

// Latinize fetches and parses the latinized title and album for one track.
func (c *Client) Latinize(ctx context.Context, title, album string) (Result, error) {
	ex, err := c.Fetch(ctx, title, album)
	if err != nil {
		return Result{}, err
	}
	result, err := Parse(ex.ResponseBody)
	if err != nil {
		snippet, _ := snippetOf([]byte(ex.ResponseBody))
		return Result{}, fmt.Errorf("%w (response snippet: %s)", err, snippet)
	}
	return result, nil
}

// transportError separates caller cancellation from transport failure.
func (c *Client) transportError(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrCancelled, component, "fetch", message, ctxErr)
	}
	if errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrCancelled, component, "fetch", message, err)
	}
	return services.Wrap(services.ErrNetwork, component, "fetch", message, err)
}

func snippetOf(body []byte) (string, bool) {
	if len(body) <= maxSnippetBytes {
		return string(body), false
	}
	cut := maxSnippetBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]), true
}
