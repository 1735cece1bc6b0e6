package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GroqClient calls an OpenAI-compatible chat completions endpoint
// (Groq by default)
type GroqClient struct {
	client      *resty.Client
	model       string
	temperature float64
}

// GroqOptions configures a GroqClient
type GroqOptions struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	Retries      int
	MinRetryWait time.Duration // shortest pause before a retry, the limiter interval in practice
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewGroqClient creates a client. Requests that hit 429 or a 5xx are
// retried with backoff, never sooner than MinRetryWait or the server's
// Retry-After.
func NewGroqClient(opts GroqOptions) (*GroqClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("reasoning: API key is required (set GROQ_API_KEY)")
	}
	if opts.Model == "" {
		return nil, errors.New("reasoning: model is required")
	}

	retryWait := 2 * time.Second
	if opts.MinRetryWait > 0 {
		retryWait = opts.MinRetryWait
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(max(30*time.Second, retryWait)).
		SetRetryAfter(retryAfter).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &GroqClient{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

// Invoke sends prompt as a single user message and returns the answer text
func (c *GroqClient) Invoke(ctx context.Context, prompt string) (string, error) {
	var result chatResponse
	var apiErr apiError

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Temperature: c.temperature,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if res.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(res.String())
		}
		return "", fmt.Errorf("chat completion returned %d: %s", res.StatusCode(), msg)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// retryAfter honors a Retry-After header given in seconds. Zero falls back
// to the client's backoff, which is floored at the retry wait time.
func retryAfter(_ *resty.Client, r *resty.Response) (time.Duration, error) {
	if r == nil {
		return 0, nil
	}
	secs, err := strconv.Atoi(strings.TrimSpace(r.Header().Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0, nil
	}
	return time.Duration(secs) * time.Second, nil
}
