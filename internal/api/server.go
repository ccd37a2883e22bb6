package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/polychat/chat-backend/internal/keystore"
	"github.com/polychat/chat-backend/internal/session"
	"github.com/polychat/chat-backend/internal/store"
)

// Server holds API dependencies.
type Server struct {
	session *session.Session
	store   *store.Store
	keys    *keystore.Store
	logger  *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(chatSession *session.Session, conversations *store.Store, keys *keystore.Store, logger *logrus.Logger) *Server {
	return &Server{
		session: chatSession,
		store:   conversations,
		keys:    keys,
		logger:  logger,
	}
}

// RegisterRoutes attaches all handlers to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/chats", s.CreateChat)
	e.GET("/chats", s.ListChats)
	e.GET("/chats/:id", s.GetChat)
	e.POST("/chats/:id/messages", s.SubmitMessage)
	e.GET("/chats/:id/media", s.ListMedia)
	e.POST("/chats/:id/media", s.UploadMedia)

	e.GET("/credentials/:category", s.GetCredentialStatus)
	e.PUT("/credentials/:category", s.SetCredential)
	e.GET("/settings/language", s.GetLanguage)
	e.PUT("/settings/language", s.SetLanguage)
}
