package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/polychat/chat-backend/internal/api"
	"github.com/polychat/chat-backend/internal/config"
	"github.com/polychat/chat-backend/internal/keystore"
	kvredis "github.com/polychat/chat-backend/internal/kv/redis"
	"github.com/polychat/chat-backend/internal/provider"
	"github.com/polychat/chat-backend/internal/session"
	"github.com/polychat/chat-backend/internal/store"
	"github.com/polychat/chat-backend/internal/types"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load optional .env before reading configuration
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	logger.Info("starting chat-backend server")

	// Connect to the key-value store
	kvStore, err := kvredis.New(cfg.Redis.URI)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer kvStore.Close()

	// Initialize components
	keys := keystore.New(kvStore, logger, types.Language(cfg.Session.DefaultLanguage))
	conversations := store.New(kvStore, logger)
	gateway := provider.NewGateway(provider.Config{
		ChatURL:       cfg.Providers.ChatURL,
		ImageURL:      cfg.Providers.ImageURL,
		VoiceRelayURL: cfg.Providers.VoiceRelayURL,
		Timeout:       cfg.Providers.Timeout,
	}, logger)
	chatSession := session.New(conversations, keys, gateway, logger, session.Config{
		ReplyDelay:      cfg.Session.ReplyDelay,
		MaxOutputTokens: cfg.Session.MaxOutputTokens,
	})

	// Initialize API server
	server := api.NewServer(chatSession, conversations, keys, logger)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Info("request")
			return nil
		},
	}))

	server.RegisterRoutes(e)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.WithField("addr", addr).Info("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown error")
	}

	logger.Info("server stopped")
}
