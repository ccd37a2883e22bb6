package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/polychat/chat-backend/internal/types"
)

// voiceRequest is the request body sent to the voice relay.
type voiceRequest struct {
	Content   string `json:"content"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// voiceResponse is the voice relay response body.
type voiceResponse struct {
	Text  string     `json:"text"`
	Error *wireError `json:"error,omitempty"`
}

// relayVoice serves the voice category through the configured relay.
// Dispatch has already rejected the call when no relay exists.
func (g *Gateway) relayVoice(ctx context.Context, content, credential string, opts Options) (*Reply, error) {
	req := voiceRequest{
		Content:   content,
		MaxTokens: opts.MaxOutputTokens,
	}

	body, status, err := g.post(ctx, g.cfg.VoiceRelayURL, credential, req)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, rejection(types.CategoryVoice, status, body)
	}

	var result voiceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal voice response: %w", err)
	}
	if result.Text == "" {
		return nil, &ProviderError{Category: types.CategoryVoice, StatusCode: status, Message: "empty relay response"}
	}

	return &Reply{Category: types.CategoryVoice, Text: result.Text}, nil
}
