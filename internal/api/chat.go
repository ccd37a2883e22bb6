package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/polychat/chat-backend/internal/chatid"
	"github.com/polychat/chat-backend/internal/store"
	"github.com/polychat/chat-backend/internal/types"
)

// ListChatsResponse is the response for listing chats.
type ListChatsResponse struct {
	Chats        []types.Chat `json:"chats"`
	ActiveChatID string       `json:"active_chat_id,omitempty"`
}

// CreateChat creates a new chat and makes it the active one.
func (s *Server) CreateChat(c echo.Context) error {
	chat, err := s.session.CreateChat(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to create chat")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create chat"})
	}
	return c.JSON(http.StatusCreated, chat)
}

// ListChats returns the chat registry, newest first.
func (s *Server) ListChats(c echo.Context) error {
	chats := s.store.Registry(c.Request().Context())
	if chats == nil {
		chats = []types.Chat{}
	}
	return c.JSON(http.StatusOK, ListChatsResponse{
		Chats:        chats,
		ActiveChatID: s.session.ActiveChatID(),
	})
}

// GetChat makes a chat active and returns its history and media.
func (s *Server) GetChat(c echo.Context) error {
	id := c.Param("id")
	if !chatid.IsValid(chatid.PrefixChat, id) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
	}

	history, err := s.session.LoadChat(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
		}
		s.logger.WithError(err).Error("failed to load chat")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load chat"})
	}

	if history.Messages == nil {
		history.Messages = []types.MessageEntry{}
	}
	if history.Media == nil {
		history.Media = []types.MediaAsset{}
	}
	return c.JSON(http.StatusOK, history)
}
