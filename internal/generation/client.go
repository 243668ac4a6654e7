// Package generation calls the external text-and-image generation
// service. The service is a black box; the contract here is request
// shape, retry policy, and strict response validation.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// Request is the generation service's input shape.
type Request struct {
	Prompt     string `json:"prompt"`
	SourceText string `json:"sourceText,omitempty"`
	Sign       string `json:"sign"`
}

// Result is the normalized response. Loosely-typed upstream shapes are
// validated at this boundary and never propagate into core logic.
type Result struct {
	HoroscopeText string   `json:"horoscopeText"`
	Dos           []string `json:"dos"`
	Donts         []string `json:"donts"`
	ImageURL      string   `json:"imageUrl"`
}

// Generator is what the orchestrator depends on.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Config tunes the retry loop. Retries counts re-attempts after the
// first try, so Retries=3 allows 4 total attempts.
type Config struct {
	BaseURL        string
	APIKey         string
	Retries        int
	Backoff        time.Duration
	AttemptTimeout time.Duration
}

// Client is a resty-backed Generator with bounded retry. Transient
// failures (5xx, network, undecodable body) retry with exponential
// backoff plus jitter; 4xx and response-validation failures surface
// immediately.
type Client struct {
	http *resty.Client
	cfg  Config
	log  zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	c := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: c, cfg: cfg, log: log}
}

// Generate runs the bounded retry loop around single attempts.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
		}

		res, err := c.attempt(ctx, req)
		if err == nil {
			return res, nil
		}

		var ue *model.UpstreamError
		if errors.As(err, &ue) && !ue.Retryable {
			return nil, err
		}
		lastErr = err
		c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("generation attempt failed")
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, req Request) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(attemptCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(&req).
		Post("/generate")
	if err != nil {
		return nil, &model.UpstreamError{Retryable: true, Reason: err.Error()}
	}

	status := resp.StatusCode()
	switch {
	case status >= http.StatusInternalServerError:
		return nil, &model.UpstreamError{Status: status, Retryable: true, Reason: truncate(resp.String())}
	case status >= http.StatusBadRequest:
		return nil, &model.UpstreamError{Status: status, Retryable: false, Reason: truncate(resp.String())}
	}

	var out Result
	if len(resp.Body()) == 0 {
		return nil, &model.UpstreamError{Status: status, Retryable: true, Reason: "empty response body"}
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &model.UpstreamError{Status: status, Retryable: true, Reason: "malformed response body: " + err.Error()}
	}
	if err := validate(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// validate enforces the normalized response schema; a shape violation
// is a service contract break and never worth retrying.
func validate(r *Result) error {
	switch {
	case r.ImageURL == "":
		return &model.UpstreamError{Retryable: false, Reason: "response missing imageUrl"}
	case r.HoroscopeText == "":
		return &model.UpstreamError{Retryable: false, Reason: "response missing horoscopeText"}
	case len(r.Dos) == 0 || len(r.Donts) == 0:
		return &model.UpstreamError{Retryable: false, Reason: "response missing dos/donts"}
	}
	return nil
}

// sleep applies exponential backoff with full jitter before retry n.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	backoff := c.cfg.Backoff << (attempt - 1)
	delay := backoff + time.Duration(rand.Int63n(int64(backoff)+1))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max]
	}
	return s
}
