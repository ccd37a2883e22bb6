package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/polychat/chat-backend/internal/chatid"
	"github.com/polychat/chat-backend/internal/store"
	"github.com/polychat/chat-backend/internal/types"
)

// ListMediaResponse is the response for listing a chat's media.
type ListMediaResponse struct {
	Media []types.MediaAsset `json:"media"`
}

// ListMedia returns all media assets for a chat in append order.
func (s *Server) ListMedia(c echo.Context) error {
	id := c.Param("id")
	if !chatid.IsValid(chatid.PrefixChat, id) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
	}

	media := s.store.ListMedia(c.Request().Context(), id)
	if media == nil {
		media = []types.MediaAsset{}
	}
	return c.JSON(http.StatusOK, ListMediaResponse{Media: media})
}

// UploadMedia handles POST /chats/:id/media with a multipart form: the
// "file" part carries the content, the "kind" field is photo or voice.
func (s *Server) UploadMedia(c echo.Context) error {
	id := c.Param("id")
	if !chatid.IsValid(chatid.PrefixChat, id) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
	}

	kind := types.MediaKind(c.FormValue("kind"))
	if kind != types.MediaPhoto && kind != types.MediaVoice {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "kind must be photo or voice"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		s.logger.WithError(err).Error("failed to open upload")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read upload"})
	}
	defer file.Close()

	ctx := c.Request().Context()
	if _, err := s.session.LoadChat(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
		}
		s.logger.WithError(err).Error("failed to load chat")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load chat"})
	}

	asset, err := s.session.AttachMedia(ctx, kind, fileHeader.Filename, file)
	if err != nil {
		s.logger.WithError(err).Error("failed to store media")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store media"})
	}

	return c.JSON(http.StatusCreated, asset)
}
