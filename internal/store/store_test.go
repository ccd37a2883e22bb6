package store

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polychat/chat-backend/internal/kv"
	"github.com/polychat/chat-backend/internal/kv/memory"
	"github.com/polychat/chat-backend/internal/types"
)

func newTestStore(kvStore kv.Store) *Store {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(kvStore, logger)
}

func TestCreateChatPrependsToRegistry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	first, err := s.CreateChat(ctx)
	require.NoError(t, err)
	second, err := s.CreateChat(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	registry := s.Registry(ctx)
	require.Len(t, registry, 2)
	assert.Equal(t, second.ID, registry[0].ID, "newest chat is at the head")
	assert.Equal(t, first.ID, registry[1].ID)
}

func TestCreateChatRapidSuccessionYieldsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		chat, err := s.CreateChat(ctx)
		require.NoError(t, err)
		_, dup := seen[chat.ID]
		require.False(t, dup, "registry snapshot must never contain the new id already")
		seen[chat.ID] = struct{}{}
	}
}

func TestConcurrentChatCreationKeepsRegistryComplete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	const creators = 64
	created := make([]string, creators)
	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat, err := s.CreateChat(ctx)
			assert.NoError(t, err)
			created[i] = chat.ID
		}(i)
	}
	wg.Wait()

	registry := s.Registry(ctx)
	require.Len(t, registry, creators)

	// Every chat handed back to a caller is resolvable afterwards.
	ids := make(map[string]struct{}, creators)
	for _, chat := range registry {
		ids[chat.ID] = struct{}{}
	}
	for _, id := range created {
		_, ok := ids[id]
		assert.True(t, ok, "created chat %s missing from registry", id)
		_, err := s.ResolveChatName(ctx, id)
		assert.NoError(t, err)
	}
}

func TestConcurrentRenamesLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	chats := make([]string, 8)
	for i := range chats {
		chat, err := s.CreateChat(ctx)
		require.NoError(t, err)
		chats[i] = chat.ID
	}

	var wg sync.WaitGroup
	for _, id := range chats {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, s.RenameChat(ctx, id, "renamed "+id))
		}(id)
	}
	wg.Wait()

	for _, id := range chats {
		name, err := s.ResolveChatName(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "renamed "+id, name)
	}
}

func TestAppendMessageLoadChatRoundTrip(t *testing.T) {
	ctx := context.Background()
	kvStore := memory.New()
	s := newTestStore(kvStore)

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)

	entry := types.MessageEntry{
		ChatID:  chat.ID,
		Role:    types.RoleUser,
		Kind:    types.KindText,
		Payload: "hello",
	}
	require.NoError(t, s.AppendMessage(ctx, entry))

	history := s.LoadChat(ctx, chat.ID)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hello", history.Messages[0].Payload)
	assert.False(t, history.Messages[0].Timestamp.IsZero())

	// Survives a store reload over the same persisted state.
	reloaded := newTestStore(kvStore)
	history = reloaded.LoadChat(ctx, chat.ID)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hello", history.Messages[0].Payload)
}

func TestLoadChatEmptyForFreshChat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	history := s.LoadChat(ctx, "chat-nonexistent")
	assert.Empty(t, history.Messages)
	assert.Empty(t, history.Media)
}

func TestResolveChatNameIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)

	name1, err := s.ResolveChatName(ctx, chat.ID)
	require.NoError(t, err)
	name2, err := s.ResolveChatName(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, name1, name2)

	_, err = s.ResolveChatName(ctx, "chat-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenameChat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChatName, chat.DisplayName)

	require.NoError(t, s.RenameChat(ctx, chat.ID, "holiday plans"))
	name, err := s.ResolveChatName(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "holiday plans", name)

	assert.ErrorIs(t, s.RenameChat(ctx, "chat-missing", "x"), ErrNotFound)
}

func TestCorruptRegistryReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	kvStore := memory.New()
	require.NoError(t, kvStore.Set(ctx, "chat:registry", "{not json"))

	s := newTestStore(kvStore)
	assert.Empty(t, s.Registry(ctx))

	// Writes still work afterwards.
	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Registry(ctx), 1)
	assert.Equal(t, chat.ID, s.Registry(ctx)[0].ID)
}

func TestCorruptHistoryReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	kvStore := memory.New()
	s := newTestStore(kvStore)

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)
	require.NoError(t, kvStore.Set(ctx, "chat:"+chat.ID+":history", "]["))

	history := s.LoadChat(ctx, chat.ID)
	assert.Empty(t, history.Messages)
}

func TestAppendMediaAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)

	asset, err := s.AppendMedia(ctx, chat.ID, types.MediaPhoto, "cat.jpg", strings.NewReader("raw-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.ID, "media-"))
	assert.Equal(t, chat.ID, asset.ChatID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw-bytes")), asset.Data)

	second, err := s.AppendMedia(ctx, chat.ID, types.MediaVoice, "note.ogg", strings.NewReader("audio"))
	require.NoError(t, err)

	media := s.ListMedia(ctx, chat.ID)
	require.Len(t, media, 2)
	assert.Equal(t, asset.ID, media[0].ID, "append order preserved")
	assert.Equal(t, second.ID, media[1].ID)

	found, err := s.FindMedia(ctx, chat.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "note.ogg", found.FileName)

	_, err = s.FindMedia(ctx, chat.ID, "media-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentMediaAppendsLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendMedia(ctx, chat.ID, types.MediaPhoto, "p.jpg", strings.NewReader("x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, s.ListMedia(ctx, chat.ID), writers)
}

func TestActiveChatPointer(t *testing.T) {
	ctx := context.Background()
	kvStore := memory.New()
	s := newTestStore(kvStore)

	_, ok := s.ActiveChat(ctx)
	assert.False(t, ok)

	chat, err := s.CreateChat(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetActiveChat(ctx, chat.ID))

	id, ok := s.ActiveChat(ctx)
	assert.True(t, ok)
	assert.Equal(t, chat.ID, id)

	// Pointer survives a reload.
	id, ok = newTestStore(kvStore).ActiveChat(ctx)
	assert.True(t, ok)
	assert.Equal(t, chat.ID, id)
}
