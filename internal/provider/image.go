package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/polychat/chat-backend/internal/types"
)

// imageRequest is the request body for the image-generation endpoint.
type imageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// imageResponse is the image-generation response body.
type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *wireError `json:"error,omitempty"`
}

// generateImage serves the image category, returning an image reference URI.
func (g *Gateway) generateImage(ctx context.Context, content, credential string, opts Options) (*Reply, error) {
	req := imageRequest{
		Prompt: content,
		N:      1,
		Size:   "1024x1024",
	}

	body, status, err := g.post(ctx, g.cfg.ImageURL, credential, req)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, rejection(types.CategoryImage, status, body)
	}

	var result imageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal image response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, &ProviderError{Category: types.CategoryImage, StatusCode: status, Message: "no image in response"}
	}

	return &Reply{Category: types.CategoryImage, ImageURL: result.Data[0].URL}, nil
}
