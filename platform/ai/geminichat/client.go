// Package geminichat implements reasoning.Reasoner on the Gemini API via the
// official genai SDK.
package geminichat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"

	"google.golang.org/genai"
)

// Config for the Gemini client.
type Config struct {
	APIKey string
	Model  string
}

// Client adapts the genai SDK to the Reasoner contract.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed reasoner.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: cfg.Model}, nil
}

func (c *Client) Name() string {
	return c.model
}

// Complete performs one generation round trip.
func (c *Client) Complete(ctx context.Context, req reasoning.Request) (*reasoning.Result, error) {
	contents, system := convertMessages(req.Messages)

	genCfg := &genai.GenerateContentConfig{}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		genCfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ForceJSON {
		genCfg.ResponseMIMEType = "application/json"
	}
	if decls := convertTools(req.Tools); len(decls) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return nil, mapAPIError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &reasoning.Result{}, nil
	}

	out := &reasoning.Result{}
	var textBuilder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			args := "{}"
			if part.FunctionCall.Args != nil {
				if raw, err := marshalArgs(part.FunctionCall.Args); err == nil {
					args = raw
				}
			}
			out.ToolCalls = append(out.ToolCalls, reasoning.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
			continue
		}
		if part.Text != "" {
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n")
			}
			textBuilder.WriteString(part.Text)
		}
	}
	out.Text = textBuilder.String()
	return out, nil
}

// mapAPIError translates SDK failures into the retry classification the
// responder acts on. errors.As unwraps, so a wrapped APIError still maps.
func mapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return reasoning.ErrRateLimited
		}
		if apiErr.Code >= 500 {
			return &reasoning.TransientError{Err: err}
		}
	}
	return err
}

func convertMessages(messages []reasoning.Message) ([]*genai.Content, string) {
	var system strings.Builder
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case reasoning.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(msg.Content)

		case reasoning.RoleAssistant:
			parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls))
			if strings.TrimSpace(msg.Content) != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: unmarshalArgs(tc.Arguments),
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		case reasoning.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolCallID,
						Name:     msg.Name,
						Response: map[string]any{"output": msg.Content},
					},
				}},
			})

		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, system.String()
}

func convertTools(tools []reasoning.Tool) []*genai.FunctionDeclaration {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.Parameters,
		})
	}
	return decls
}
