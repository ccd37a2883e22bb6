// Package store is the conversation store: the chat registry, each chat's
// message history and media list, and the active-chat pointer, all persisted
// in the shared key-value store as whole-value JSON.
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polychat/chat-backend/internal/chatid"
	"github.com/polychat/chat-backend/internal/kv"
	"github.com/polychat/chat-backend/internal/types"
)

const (
	registryKey   = "chat:registry"
	activeChatKey = "chat:active"
)

// DefaultChatName is the display name a chat is created with until the
// first exchange names it.
const DefaultChatName = "New chat"

// ErrNotFound is returned when a chat is not in the registry.
var ErrNotFound = errors.New("not found")

// Store owns all durable conversation state. Writes are read-modify-write of
// a whole value; a per-chat lock guards each chat's history and media and a
// registry lock guards the chat registry, so interleaved writers cannot lose
// updates.
type Store struct {
	kv     kv.Store
	logger *logrus.Logger

	registryMu sync.Mutex
	locksMu    sync.Mutex
	chatLocks  map[string]*sync.Mutex
}

// New creates a conversation store over the given key-value store.
func New(kvStore kv.Store, logger *logrus.Logger) *Store {
	return &Store{
		kv:        kvStore,
		logger:    logger,
		chatLocks: make(map[string]*sync.Mutex),
	}
}

func historyKey(chatID string) string { return "chat:" + chatID + ":history" }
func mediaKey(chatID string) string   { return "chat:" + chatID + ":media" }

// chatLock returns the lock guarding one chat's read-modify-write cycles.
func (s *Store) chatLock(chatID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.chatLocks[chatID] = lock
	}
	return lock
}

// CreateChat generates a fresh chat, prepends it to the registry and persists
// the registry. The generated id never collides with an existing one.
func (s *Store) CreateChat(ctx context.Context) (*types.Chat, error) {
	chat := types.Chat{
		ID:          chatid.NewChat(),
		DisplayName: DefaultChatName,
		CreatedAt:   time.Now().UTC(),
	}

	s.registryMu.Lock()
	defer s.registryMu.Unlock()

	registry := s.Registry(ctx)
	registry = append([]types.Chat{chat}, registry...)

	if err := s.writeJSON(ctx, registryKey, registry); err != nil {
		return nil, fmt.Errorf("persist registry: %w", err)
	}
	return &chat, nil
}

// Registry returns all chats, newest first. Storage failures and corrupt
// persisted JSON read as an empty registry, never an error.
func (s *Store) Registry(ctx context.Context) []types.Chat {
	var registry []types.Chat
	s.readJSON(ctx, registryKey, &registry)
	return registry
}

// ResolveChatName looks up a chat's display name in the registry.
func (s *Store) ResolveChatName(ctx context.Context, chatID string) (string, error) {
	for _, chat := range s.Registry(ctx) {
		if chat.ID == chatID {
			return chat.DisplayName, nil
		}
	}
	return "", ErrNotFound
}

// RenameChat updates a chat's display name in the registry.
func (s *Store) RenameChat(ctx context.Context, chatID, name string) error {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()

	registry := s.Registry(ctx)
	for i := range registry {
		if registry[i].ID == chatID {
			registry[i].DisplayName = name
			if err := s.writeJSON(ctx, registryKey, registry); err != nil {
				return fmt.Errorf("persist registry: %w", err)
			}
			return nil
		}
	}
	return ErrNotFound
}

// LoadChat returns the persisted history and media for a chat. A chat with
// nothing persisted yet loads as an empty history, not an error.
func (s *Store) LoadChat(ctx context.Context, chatID string) *types.ChatHistory {
	history := &types.ChatHistory{ChatID: chatID}
	s.readJSON(ctx, historyKey(chatID), &history.Messages)
	s.readJSON(ctx, mediaKey(chatID), &history.Media)
	return history
}

// AppendMessage durably records entry as the newest entry for its chat.
// Existence of the chat is the caller's concern; callers pre-create it.
func (s *Store) AppendMessage(ctx context.Context, entry types.MessageEntry) error {
	if entry.ChatID == "" {
		return errors.New("append message: empty chat id")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	lock := s.chatLock(entry.ChatID)
	lock.Lock()
	defer lock.Unlock()

	var messages []types.MessageEntry
	s.readJSON(ctx, historyKey(entry.ChatID), &messages)
	messages = append(messages, entry)

	if err := s.writeJSON(ctx, historyKey(entry.ChatID), messages); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// AppendMedia reads the binary source, encodes it, mints the asset id and
// durably records the asset. The caller appends the announcing message entry
// separately. The source read happens before the chat lock is taken, so a
// slow encode cannot stall other writers.
func (s *Store) AppendMedia(ctx context.Context, chatID string, kind types.MediaKind, fileName string, source io.Reader) (*types.MediaAsset, error) {
	if chatID == "" {
		return nil, errors.New("append media: empty chat id")
	}

	raw, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("read media source: %w", err)
	}

	asset := types.MediaAsset{
		ID:        chatid.NewMedia(),
		ChatID:    chatID,
		Kind:      kind,
		Data:      base64.StdEncoding.EncodeToString(raw),
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
	}

	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	var assets []types.MediaAsset
	s.readJSON(ctx, mediaKey(chatID), &assets)
	assets = append(assets, asset)

	if err := s.writeJSON(ctx, mediaKey(chatID), assets); err != nil {
		return nil, fmt.Errorf("persist media: %w", err)
	}
	return &asset, nil
}

// ListMedia returns all assets for a chat in append order.
func (s *Store) ListMedia(ctx context.Context, chatID string) []types.MediaAsset {
	var assets []types.MediaAsset
	s.readJSON(ctx, mediaKey(chatID), &assets)
	return assets
}

// FindMedia returns the asset with the given id, scanning the chat's list.
func (s *Store) FindMedia(ctx context.Context, chatID, assetID string) (*types.MediaAsset, error) {
	for _, asset := range s.ListMedia(ctx, chatID) {
		if asset.ID == assetID {
			return &asset, nil
		}
	}
	return nil, ErrNotFound
}

// ActiveChat returns the persisted active-chat pointer, if set.
func (s *Store) ActiveChat(ctx context.Context) (string, bool) {
	id, err := s.kv.Get(ctx, activeChatKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WithError(err).Warn("failed to read active chat pointer")
		}
		return "", false
	}
	return id, id != ""
}

// SetActiveChat persists the active-chat pointer.
func (s *Store) SetActiveChat(ctx context.Context, chatID string) error {
	if err := s.kv.Set(ctx, activeChatKey, chatID); err != nil {
		return fmt.Errorf("persist active chat: %w", err)
	}
	return nil
}

// readJSON loads and unmarshals one persisted value into dest. Missing keys,
// storage failures and corrupt JSON all leave dest untouched; the latter two
// are logged.
func (s *Store) readJSON(ctx context.Context, key string, dest any) {
	val, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.WithError(err).WithField("key", key).Warn("storage read failed, treating as empty")
		}
		return
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("corrupt persisted state, treating as empty")
	}
}

// writeJSON marshals value and replaces the persisted value under key.
func (s *Store) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, string(data))
}
