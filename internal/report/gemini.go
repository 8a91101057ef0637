package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfeidau/shiftdesk/internal/models"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.7

	defaultMaxTries = 3
	maxErrorBody    = 4096
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	httpClient      *http.Client
	baseURL         string
	model           string
	temperature     float64
	maxTries        uint
	initialInterval time.Duration
	now             func() time.Time
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) { g.httpClient = c }
}

// WithBaseURL points the client at another endpoint, such as a test server.
func WithBaseURL(u string) GeminiOption {
	return func(g *GeminiClient) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithModel selects the model name.
func WithModel(model string) GeminiOption {
	return func(g *GeminiClient) { g.model = model }
}

// WithRetry sets the attempt limit and first backoff interval for retryable
// responses.
func WithRetry(maxTries uint, initialInterval time.Duration) GeminiOption {
	return func(g *GeminiClient) {
		g.maxTries = maxTries
		g.initialInterval = initialInterval
	}
}

// WithClock overrides the time printed in the prompt.
func WithClock(now func() time.Time) GeminiOption {
	return func(g *GeminiClient) { g.now = now }
}

// NewGeminiClient creates a client with an instrumented HTTP transport.
func NewGeminiClient(opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:         DefaultBaseURL,
		model:           DefaultModel,
		temperature:     DefaultTemperature,
		maxTries:        defaultMaxTries,
		initialInterval: 500 * time.Millisecond,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate builds the prompt for user and tasks and returns the generated
// report text.
func (g *GeminiClient) Generate(ctx context.Context, apiKey string, user models.User, tasks []models.Task) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: BuildPrompt(user, tasks, g.now())}}}},
		GenerationConfig: generationConfig{Temperature: g.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.initialInterval

	resp, err := backoff.Retry(ctx, func() (*generateResponse, error) {
		return g.post(ctx, endpoint, apiKey, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(g.maxTries))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}

	log.Debug().Str("model", g.model).Int("tasks", len(tasks)).Msg("shift report generated")
	return text, nil
}

func (g *GeminiClient) post(ctx context.Context, endpoint, apiKey string, body []byte) (*generateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		statusErr := fmt.Errorf("unexpected status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
		if retryable(res.StatusCode) {
			log.Debug().Int("status", res.StatusCode).Msg("report request failed, retrying")
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var out generateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return &out, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func responseText(resp *generateResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
