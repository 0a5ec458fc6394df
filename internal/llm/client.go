package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultTimeout         = 2 * time.Minute
	defaultMaxRetries      = 2
	defaultBackoffBase     = 250 * time.Millisecond
	defaultMaxOutputTokens = 1200
	maxShapeAdaptations    = 3
	upstreamErrorTextLimit = 300
)

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string

	PremiumModel string
	BudgetModel  string

	// Optional reasoning effort per tier; empty means the field is not sent.
	PremiumReasoningEffort string
	BudgetReasoningEffort  string

	// MaxRetries is the transient-failure retry budget per call.
	MaxRetries int
	// RetryBackoffBase is multiplied by the attempt number (linear backoff).
	RetryBackoffBase time.Duration
	Timeout          time.Duration

	// Verbose additionally logs truncated prompt/response bodies.
	Verbose         bool
	VerboseMaxChars int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a chat-completions client with tier routing, bounded
// request-shape adaptation and transient-failure retry.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient applies option defaults and builds a Client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryBackoffBase <= 0 {
		opts.RetryBackoffBase = defaultBackoffBase
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{opts: opts, httpClient: httpClient, logger: logger}
}

// ResolveModel maps a tier to its configured model name unless an explicit
// override is supplied. An unknown tier is a caller bug and fails
// immediately without any backend call.
func (c *Client) ResolveModel(tier Tier, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	switch tier {
	case TierBudget:
		return c.opts.BudgetModel, nil
	case TierPremium:
		return c.opts.PremiumModel, nil
	}
	return "", &Error{
		Category: CategoryInvalidRequest,
		Message:  fmt.Sprintf("unsupported model tier %q", string(tier)),
	}
}

func (c *Client) reasoningEffort(tier Tier) string {
	switch tier {
	case TierPremium:
		return c.opts.PremiumReasoningEffort
	case TierBudget:
		return c.opts.BudgetReasoningEffort
	}
	return ""
}

// requestShape tracks which backend parameters the current model has
// accepted so far. Each rejection flips exactly one parameter.
type requestShape struct {
	tokenField      string
	sendTemperature bool
	sendSearch      bool
}

// GenerateText issues one logical generation call. Transient failures are
// retried within the configured budget with linear backoff; request-shape
// rejections trigger bounded parameter adaptation; everything else fails
// immediately with a tagged Error.
func (c *Client) GenerateText(ctx context.Context, req Request) (Response, error) {
	if c.opts.APIKey == "" {
		return Response{}, &Error{Category: CategoryAuth, Message: "API key is not configured"}
	}
	model, err := c.ResolveModel(req.Tier, req.ModelOverride)
	if err != nil {
		return Response{}, err
	}
	if model == "" {
		return Response{}, &Error{
			Category: CategoryInvalidRequest,
			Message:  fmt.Sprintf("no model configured for tier %q", string(req.Tier)),
		}
	}

	requestID := uuid.NewString()
	shape := requestShape{
		tokenField:      "max_tokens",
		sendTemperature: req.Temperature != nil,
		sendSearch:      req.EnableSearch,
	}

	promptChars := len(req.SystemText) + len(req.UserText)
	if c.opts.Verbose {
		c.logger.Debug("llm prompt",
			zap.String("request_id", requestID),
			zap.String("prompt", truncate(req.UserText, c.opts.VerboseMaxChars)))
	}

	transientAttempts := 0
	adaptations := 0
	for {
		c.logger.Info("llm request",
			zap.String("request_id", requestID),
			zap.String("tier", string(req.Tier)),
			zap.String("model", model),
			zap.Int("prompt_chars", promptChars),
			zap.Int("attempt", transientAttempts+1))

		start := time.Now()
		resp, callErr := c.doCall(ctx, model, req, shape)
		if callErr == nil {
			c.logger.Info("llm response",
				zap.String("request_id", requestID),
				zap.String("model", resp.ModelUsed),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("input_tokens", resp.InputTokens),
				zap.Int("output_tokens", resp.OutputTokens))
			if c.opts.Verbose {
				c.logger.Debug("llm response body",
					zap.String("request_id", requestID),
					zap.String("text", truncate(resp.Text, c.opts.VerboseMaxChars)))
			}
			resp.RequestID = firstNonEmpty(resp.RequestID, requestID)
			return resp, nil
		}

		category := CategoryOf(callErr)
		c.logger.Warn("llm request failed",
			zap.String("request_id", requestID),
			zap.String("model", model),
			zap.String("category", string(category)),
			zap.Error(callErr))

		if flipped, next := adaptShape(shape, callErr); flipped {
			if adaptations >= maxShapeAdaptations {
				return Response{}, &Error{
					Category: CategoryInvalidRequest,
					Message:  "request shape adaptation budget exhausted: " + displayMessage(callErr),
				}
			}
			adaptations++
			shape = next
			continue
		}

		if category.retryable() && transientAttempts < c.opts.MaxRetries {
			transientAttempts++
			if err := sleepCtx(ctx, c.opts.RetryBackoffBase*time.Duration(transientAttempts)); err != nil {
				return Response{}, &Error{Category: CategoryNetwork, Message: "request cancelled: " + err.Error()}
			}
			continue
		}

		return Response{}, callErr
	}
}

// adaptShape inspects a rejection and flips the single offending parameter.
// Returns false when the error is not a recognizable shape rejection.
func adaptShape(shape requestShape, err error) (bool, requestShape) {
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Status != http.StatusBadRequest {
		return false, shape
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case shape.tokenField == "max_tokens" && strings.Contains(msg, "max_tokens") &&
		(strings.Contains(msg, "max_completion_tokens") || strings.Contains(msg, "unsupported") || strings.Contains(msg, "not supported")):
		shape.tokenField = "max_completion_tokens"
		return true, shape
	case shape.sendTemperature && strings.Contains(msg, "temperature"):
		shape.sendTemperature = false
		return true, shape
	case shape.sendSearch && strings.Contains(msg, "web_search"):
		shape.sendSearch = false
		return true, shape
	}
	return false, shape
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// doCall performs one HTTP attempt with the current request shape.
func (c *Client) doCall(ctx context.Context, model string, req Request, shape requestShape) (Response, error) {
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}

	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(req.SystemText) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemText})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserText})

	body := map[string]any{
		"model":          model,
		"messages":       messages,
		shape.tokenField: maxTokens,
	}
	if shape.sendTemperature && req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if effort := c.reasoningEffort(req.Tier); effort != "" {
		body["reasoning_effort"] = effort
	}
	if shape.sendSearch {
		body["web_search_options"] = map[string]any{}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, &Error{Category: CategoryInvalidRequest, Message: "failed to encode request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, &Error{Category: CategoryInvalidRequest, Message: "failed to build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, &Error{Category: CategoryNetwork, Message: "network error: " + compactError(err)}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, &Error{Category: CategoryNetwork, Message: "failed to read response: " + compactError(err)}
	}

	if httpResp.StatusCode != http.StatusOK {
		return Response{}, &Error{
			Category: classifyStatus(httpResp.StatusCode),
			Message:  fmt.Sprintf("backend returned status %d: %s", httpResp.StatusCode, upstreamMessage(raw)),
			Status:   httpResp.StatusCode,
		}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, &Error{Category: CategoryUnknown, Message: "unreadable backend response: " + compactError(err)}
	}
	if parsed.Error != nil {
		return Response{}, &Error{Category: CategoryUnknown, Message: truncate(parsed.Error.Message, upstreamErrorTextLimit)}
	}

	text := ""
	if len(parsed.Choices) > 0 {
		text = parsed.Choices[0].Message.Content
	}
	return Response{
		Text:         text,
		ModelUsed:    firstNonEmpty(parsed.Model, model),
		RequestID:    parsed.ID,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func classifyStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuth
	case status == http.StatusTooManyRequests:
		return CategoryRateLimit
	case status >= 500:
		return CategoryServer
	case status >= 400:
		return CategoryInvalidRequest
	}
	return CategoryUnknown
}

// upstreamMessage extracts the backend's error message from a non-200 body,
// falling back to the compacted raw body.
func upstreamMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return truncate(envelope.Error.Message, upstreamErrorTextLimit)
	}
	return truncate(strings.TrimSpace(string(raw)), upstreamErrorTextLimit)
}

func displayMessage(err error) string {
	if apiErr, ok := err.(*Error); ok {
		return apiErr.Message
	}
	return err.Error()
}

func compactError(err error) string {
	return truncate(err.Error(), upstreamErrorTextLimit)
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "…"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
