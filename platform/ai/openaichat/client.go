// Package openaichat implements reasoning.Reasoner against any
// OpenAI-compatible chat-completions endpoint.
package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"

	"golang.org/x/time/rate"
)

// Config for the chat-completions client.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a chat-completions client. Calls are rate limited client-side
// so a burst of webhooks does not trip the provider's quota.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
}

func (c *Client) Name() string {
	return c.config.Model
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireToolCallFunc `json:"function"`
}

type wireToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolDef struct {
	Type     string          `json:"type"`
	Function wireToolDefFunc `json:"function"`
}

type wireToolDefFunc struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  interface{} `json:"parameters,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Role      string         `json:"role"`
			Content   *string        `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs one chat-completions round trip.
func (c *Client) Complete(ctx context.Context, req reasoning.Request) (*reasoning.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"model":    c.config.Model,
		"messages": convertMessages(req.Messages),
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.ForceJSON {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		payload["tools"] = tools
		payload["tool_choice"] = "auto"
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &reasoning.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, reasoning.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, &reasoning.TransientError{Err: fmt.Errorf("completion endpoint returned %d", resp.StatusCode)}
	}

	var result wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("completion api error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("completion api error: empty choices")
	}

	choice := result.Choices[0].Message
	out := &reasoning.Result{}
	if choice.Content != nil {
		out.Text = *choice.Content
	}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, reasoning.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func convertMessages(messages []reasoning.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		wm := wireMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireToolCallFunc{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

func convertTools(tools []reasoning.Tool) []wireToolDef {
	if len(tools) == 0 {
		return nil
	}
	out := make([]wireToolDef, 0, len(tools))
	for _, t := range tools {
		out = append(out, wireToolDef{
			Type: "function",
			Function: wireToolDefFunc{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
