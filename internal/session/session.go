// Package session orchestrates one chat round-trip: classify the user's
// message, dispatch it to a provider or the demo responder, and append both
// sides of the exchange to the conversation store.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polychat/chat-backend/internal/classify"
	"github.com/polychat/chat-backend/internal/keystore"
	"github.com/polychat/chat-backend/internal/provider"
	"github.com/polychat/chat-backend/internal/provider/demo"
	"github.com/polychat/chat-backend/internal/store"
	"github.com/polychat/chat-backend/internal/types"
)

// State is the session's position in its lifecycle.
type State string

const (
	StateNoActiveChat  State = "no_active_chat"
	StateIdle          State = "idle"
	StateAwaitingReply State = "awaiting_reply"
)

const defaultReplyDelay = 600 * time.Millisecond

const titleMaxLen = 50

// Config tunes a session.
type Config struct {
	// ReplyDelay is the fixed pause before any resolution, so a loading
	// indicator is visible even for instant replies. Negative disables it;
	// zero means the default.
	ReplyDelay time.Duration
	// Dispatch options forwarded to the provider gateway.
	MaxOutputTokens      int
	Temperature          *float64
	SystemPromptAddendum string
}

// Session owns the active-chat pointer and runs message round-trips.
// Concurrent submissions are permitted and resolve independently; store
// order is completion order, not submission order.
type Session struct {
	store   *store.Store
	keys    *keystore.Store
	gateway *provider.Gateway
	logger  *logrus.Logger
	cfg     Config

	mu         sync.Mutex
	activeChat string
	inflight   int
}

// New creates a session, restoring the persisted active-chat pointer.
func New(conversations *store.Store, keys *keystore.Store, gateway *provider.Gateway, logger *logrus.Logger, cfg Config) *Session {
	if cfg.ReplyDelay == 0 {
		cfg.ReplyDelay = defaultReplyDelay
	}
	s := &Session{
		store:   conversations,
		keys:    keys,
		gateway: gateway,
		logger:  logger,
		cfg:     cfg,
	}
	if id, ok := conversations.ActiveChat(context.Background()); ok {
		s.activeChat = id
	}
	return s
}

// State reports the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.activeChat == "":
		return StateNoActiveChat
	case s.inflight > 0:
		return StateAwaitingReply
	default:
		return StateIdle
	}
}

// ActiveChatID returns the current active chat id, empty when none.
func (s *Session) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChat
}

// CreateChat creates a fresh chat and makes it active.
func (s *Session) CreateChat(ctx context.Context) (*types.Chat, error) {
	chat, err := s.store.CreateChat(ctx)
	if err != nil {
		return nil, err
	}
	s.setActive(ctx, chat.ID)
	return chat, nil
}

// LoadChat makes an existing chat active and returns its history.
func (s *Session) LoadChat(ctx context.Context, chatID string) (*types.ChatHistory, error) {
	if _, err := s.store.ResolveChatName(ctx, chatID); err != nil {
		return nil, err
	}
	s.setActive(ctx, chatID)
	return s.store.LoadChat(ctx, chatID), nil
}

func (s *Session) setActive(ctx context.Context, chatID string) {
	s.mu.Lock()
	s.activeChat = chatID
	s.mu.Unlock()
	if err := s.store.SetActiveChat(ctx, chatID); err != nil {
		s.logger.WithError(err).Warn("failed to persist active chat pointer")
	}
}

// ensureActiveChat returns the active chat id, synthesizing a new chat when
// none is active. Input is never dropped for lack of a chat.
func (s *Session) ensureActiveChat(ctx context.Context) (string, error) {
	s.mu.Lock()
	id := s.activeChat
	s.mu.Unlock()
	if id != "" {
		return id, nil
	}
	chat, err := s.CreateChat(ctx)
	if err != nil {
		return "", fmt.Errorf("synthesize chat: %w", err)
	}
	return chat.ID, nil
}

// Pending is the typed asynchronous result of one submission. The bot (or
// error) entry becomes available once the resolution completes.
type Pending struct {
	// UserEntry is the already-appended user side of the exchange.
	UserEntry types.MessageEntry

	done  chan struct{}
	reply types.MessageEntry
}

// Done is closed when the resolution has completed and the reply entry has
// been appended to the store.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the resolution completes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (*types.MessageEntry, error) {
	select {
	case <-p.done:
		reply := p.reply
		return &reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit accepts user input for the active chat, appends the user entry
// synchronously and resolves the reply asynchronously. The returned Pending
// is the handle the UI collaborator awaits.
func (s *Session) Submit(ctx context.Context, text string) (*Pending, error) {
	chatID, err := s.ensureActiveChat(ctx)
	if err != nil {
		return nil, err
	}
	return s.SubmitTo(ctx, chatID, text)
}

// SubmitTo submits text to a specific chat. The target is fixed at call
// time; concurrent activation of another chat cannot redirect the exchange.
func (s *Session) SubmitTo(ctx context.Context, chatID, text string) (*Pending, error) {
	if text == "" {
		return nil, errors.New("empty message")
	}
	if chatID == "" {
		return nil, errors.New("empty chat id")
	}

	userEntry := types.MessageEntry{
		ChatID:    chatID,
		Role:      types.RoleUser,
		Kind:      types.KindText,
		Payload:   text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, userEntry); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	pending := &Pending{UserEntry: userEntry, done: make(chan struct{})}

	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	// The resolution outlives the submitting request; it is abandoned only
	// when the process exits.
	go s.resolve(context.WithoutCancel(ctx), chatID, text, pending)

	return pending, nil
}

// resolve runs one asynchronous round-trip and appends its outcome.
func (s *Session) resolve(ctx context.Context, chatID, text string, pending *Pending) {
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
		close(pending.done)
	}()

	if s.cfg.ReplyDelay > 0 {
		time.Sleep(s.cfg.ReplyDelay)
	}

	category := classify.Classify(text)
	lang := s.keys.Language(ctx)

	reply := types.MessageEntry{
		ChatID:    chatID,
		Role:      types.RoleBot,
		Timestamp: time.Now().UTC(),
	}

	opts := provider.Options{
		MaxOutputTokens:      s.cfg.MaxOutputTokens,
		Temperature:          s.cfg.Temperature,
		SystemPromptAddendum: s.cfg.SystemPromptAddendum,
		Language:             lang,
	}

	result, err := s.gateway.Dispatch(ctx, category, text, s.keys.Credentials(ctx), opts)
	switch {
	case err == nil:
		reply.Kind = replyKind(result.Category)
		reply.Payload = result.Text
		if result.Category == types.CategoryImage {
			reply.Payload = result.ImageURL
		}
	case errors.Is(err, provider.ErrUnconfigured):
		// No credential for this category: stay usable with a canned reply.
		reply.Kind = types.KindText
		reply.Payload = demo.Respond(lang, category, text)
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id":  chatID,
			"category": category,
		}).Warn("dispatch failed")
		reply.Kind = types.KindError
		reply.Payload = errorPayload(err)
	}

	if err := s.store.AppendMessage(ctx, reply); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Error("failed to append reply")
	}

	s.maybeTitleChat(ctx, chatID, text)

	pending.reply = reply
}

// errorPayload renders a dispatch failure as the error entry's payload.
func errorPayload(err error) string {
	var transport *provider.TransportUnsupportedError
	if errors.As(err, &transport) {
		return transport.LocalizedMessage()
	}
	var rejected *provider.ProviderError
	if errors.As(err, &rejected) {
		return fmt.Sprintf("Provider rejected the request (status %d): %s", rejected.StatusCode, rejected.Message)
	}
	return err.Error()
}

// replyKind maps a reply category to the message kind it renders as.
func replyKind(category types.Category) types.MessageKind {
	switch category {
	case types.CategoryImage:
		return types.KindImage
	case types.CategoryVoice:
		return types.KindVoice
	default:
		return types.KindText
	}
}

// maybeTitleChat names a still-untitled chat after its first message.
func (s *Session) maybeTitleChat(ctx context.Context, chatID, text string) {
	name, err := s.store.ResolveChatName(ctx, chatID)
	if err != nil || name != store.DefaultChatName {
		return
	}
	if err := s.store.RenameChat(ctx, chatID, truncateTitle(text)); err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to title chat")
	}
}

// truncateTitle shortens content to fit a chat title, on a rune boundary.
func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxLen {
		return content
	}
	return string(runes[:titleMaxLen-3]) + "..."
}

// AttachMedia stores a captured or uploaded asset on the active chat and
// appends the announcing message entry, synthesizing a chat when none is
// active.
func (s *Session) AttachMedia(ctx context.Context, kind types.MediaKind, fileName string, source io.Reader) (*types.MediaAsset, error) {
	chatID, err := s.ensureActiveChat(ctx)
	if err != nil {
		return nil, err
	}

	asset, err := s.store.AppendMedia(ctx, chatID, kind, fileName, source)
	if err != nil {
		return nil, err
	}

	entryKind := types.KindImage
	if kind == types.MediaVoice {
		entryKind = types.KindVoice
	}
	entry := types.MessageEntry{
		ChatID:    chatID,
		Role:      types.RoleUser,
		Kind:      entryKind,
		Payload:   "media://" + asset.ID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, entry); err != nil {
		return nil, fmt.Errorf("announce media: %w", err)
	}

	return asset, nil
}
