package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/polychat/chat-backend/internal/types"
)

const (
	textSystemPrompt   = "You are a helpful assistant. Answer concisely and clearly."
	codingSystemPrompt = "You are an expert programming assistant. Answer with working code and a short explanation."
)

// chatMessage is one turn in a chat-completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat-completion endpoint.
type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// chatResponse is the chat-completion response body.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *wireError `json:"error,omitempty"`
}

// wireError is the error object providers embed in non-success bodies.
type wireError struct {
	Message string `json:"message"`
}

// chatCompletion serves the text and coding categories.
func (g *Gateway) chatCompletion(ctx context.Context, category types.Category, content, credential string, opts Options) (*Reply, error) {
	system := textSystemPrompt
	if category == types.CategoryCoding {
		system = codingSystemPrompt
	}
	if opts.SystemPromptAddendum != "" {
		system += "\n" + opts.SystemPromptAddendum
	}

	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: content},
		},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
	}

	body, status, err := g.post(ctx, g.cfg.ChatURL, credential, req)
	if err != nil {
		return nil, err
	}

	var result chatResponse
	if status != http.StatusOK {
		return nil, rejection(category, status, body)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, &ProviderError{Category: category, StatusCode: status, Message: "no choices in response"}
	}

	return &Reply{Category: category, Text: result.Choices[0].Message.Content}, nil
}

// post sends one JSON request with bearer auth and returns the raw body and status.
func (g *Gateway) post(ctx context.Context, url, credential string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// rejection converts a non-success body into a ProviderError, preferring the
// provider's own error message when the body parses.
func rejection(category types.Category, status int, body []byte) error {
	var wrapped struct {
		Error *wireError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		return &ProviderError{Category: category, StatusCode: status, Message: wrapped.Error.Message}
	}
	return &ProviderError{Category: category, StatusCode: status, Message: string(body)}
}
