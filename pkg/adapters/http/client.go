package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
)

// Client implements ports.Planner against a remote planner service.
// It POSTs {"domain", "problem"} and accepts either a JSON body
// {"plans": [{"actions": [...], "cost": n}], "error": "..."} or a plain-text plan.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the Client during construction.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithClientLogger configures structured logging.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = l
	}
}

// WithTimeout sets a timeout on the Client's own copy of the HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = d
	}
}

// NewClient creates a planner client for the service at url.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.New("planner url is required")
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		cp := *httpClient
		cp.Timeout = cfg.timeout
		httpClient = &cp
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Client{url: url, httpClient: httpClient, logger: logger}, nil
}

// Plan submits problem and returns the raw plan text.
func (c *Client) Plan(ctx context.Context, problem domain.PDDL) (string, error) {
	body, err := json.Marshal(plannerRequest{Domain: problem.Domain, Problem: problem.Problem})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrPlannerFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrPlannerFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")

	c.logger.DebugContext(ctx, "planner request", "url", c.url, "bytes", len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrPlannerFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrPlannerFailure, err)
	}
	c.logger.DebugContext(ctx, "planner response", "status", resp.StatusCode, "bytes", len(respBody))

	isJSON := false
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		isJSON = mt == "application/json"
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(respBody))
		var decoded plannerResponse
		if isJSON && json.Unmarshal(respBody, &decoded) == nil && decoded.Error != "" {
			detail = decoded.Error
		}
		if detail == "" {
			detail = resp.Status
		}
		return "", &domain.PlannerError{Status: resp.StatusCode, Detail: detail}
	}

	if !isJSON {
		return string(respBody), nil
	}

	var decoded plannerResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrPlannerFailure, err)
	}
	if decoded.Error != "" {
		return "", &domain.PlannerError{Status: resp.StatusCode, Detail: decoded.Error}
	}
	if len(decoded.Plans) == 0 {
		return "", domain.ErrNoPlan
	}

	var sb strings.Builder
	for _, action := range decoded.Plans[0].Actions {
		action = strings.TrimSpace(action)
		if !strings.HasPrefix(action, "(") {
			action = "(" + action + ")"
		}
		sb.WriteString(action)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
