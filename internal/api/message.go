package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/polychat/chat-backend/internal/chatid"
	"github.com/polychat/chat-backend/internal/store"
	"github.com/polychat/chat-backend/internal/types"
)

// SubmitMessageRequest is the request body for submitting a message.
type SubmitMessageRequest struct {
	Text string `json:"text"`
}

// SubmitMessageResponse carries both sides of the completed exchange.
type SubmitMessageResponse struct {
	UserEntry types.MessageEntry `json:"user_entry"`
	Reply     types.MessageEntry `json:"reply"`
}

// SubmitMessage handles POST /chats/:id/messages. It loads the chat, submits
// the text and waits for the asynchronous resolution before responding.
func (s *Server) SubmitMessage(c echo.Context) error {
	id := c.Param("id")
	if !chatid.IsValid(chatid.PrefixChat, id) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
	}

	var req SubmitMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is required"})
	}

	ctx := c.Request().Context()
	if _, err := s.session.LoadChat(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
		}
		s.logger.WithError(err).Error("failed to load chat")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load chat"})
	}

	pending, err := s.session.SubmitTo(ctx, id, req.Text)
	if err != nil {
		s.logger.WithError(err).Error("failed to submit message")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to submit message"})
	}

	reply, err := pending.Wait(ctx)
	if err != nil {
		// The client went away; the resolution still completes and persists.
		return err
	}

	return c.JSON(http.StatusOK, SubmitMessageResponse{
		UserEntry: pending.UserEntry,
		Reply:     *reply,
	})
}
