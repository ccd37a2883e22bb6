// Package provider dispatches a classified request to the external call bound
// to its category.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polychat/chat-backend/internal/types"
)

const (
	defaultChatURL   = "https://api.openai.com/v1/chat/completions"
	defaultImageURL  = "https://api.openai.com/v1/images/generations"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 1024
)

// Options tune a single dispatch.
type Options struct {
	// MaxOutputTokens bounds the reply length. Zero means the default.
	MaxOutputTokens int
	// Temperature sets sampling randomness. Nil means provider default.
	Temperature *float64
	// SystemPromptAddendum is appended to the category's system instruction.
	SystemPromptAddendum string
	// Language selects the localized message on permanent transport failures.
	Language types.Language
}

// Reply is a successful provider response, tagged with its category.
type Reply struct {
	Category types.Category `json:"category"`
	// Text carries the reply for text, coding and voice categories.
	Text string `json:"text,omitempty"`
	// ImageURL references the generated image for the image category.
	ImageURL string `json:"image_url,omitempty"`
}

// Config holds provider endpoints and the outbound call timeout.
type Config struct {
	ChatURL  string
	ImageURL string
	// VoiceRelayURL is the relay endpoint for voice requests. Empty means
	// this deployment has no voice transport.
	VoiceRelayURL string
	Timeout       time.Duration
}

// Gateway performs at most one outbound provider call per dispatch.
type Gateway struct {
	cfg        Config
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGateway creates a gateway with the given configuration. Zero-value
// endpoints and timeout fall back to defaults.
func NewGateway(cfg Config, logger *logrus.Logger) *Gateway {
	if cfg.ChatURL == "" {
		cfg.ChatURL = defaultChatURL
	}
	if cfg.ImageURL == "" {
		cfg.ImageURL = defaultImageURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Gateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Dispatch routes content to the provider bound to category.
//
// It fails with ErrUnconfigured before any network I/O when no credential
// exists for the category, and with TransportUnsupportedError when the voice
// category has no relay configured. One attempt per call; no retries.
func (g *Gateway) Dispatch(ctx context.Context, category types.Category, content string, creds types.Credentials, opts Options) (*Reply, error) {
	if category == types.CategoryVoice && g.cfg.VoiceRelayURL == "" {
		return nil, &TransportUnsupportedError{Language: opts.Language}
	}

	credential, ok := creds[category]
	if !ok || credential == "" {
		return nil, fmt.Errorf("category %s: %w", category, ErrUnconfigured)
	}

	var reply *Reply
	var err error
	switch category {
	case types.CategoryText, types.CategoryCoding:
		reply, err = g.chatCompletion(ctx, category, content, credential, opts)
	case types.CategoryImage:
		reply, err = g.generateImage(ctx, content, credential, opts)
	case types.CategoryVoice:
		reply, err = g.relayVoice(ctx, content, credential, opts)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if err != nil {
		return nil, err
	}

	g.logger.WithField("category", category).Debug("provider dispatch succeeded")
	return reply, nil
}
