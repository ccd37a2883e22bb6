package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/polychat/chat-backend/internal/types"
)

// CredentialStatusResponse reports whether a category has a credential.
// The secret itself is never returned.
type CredentialStatusResponse struct {
	Category   types.Category `json:"category"`
	Configured bool           `json:"configured"`
}

// SetCredentialRequest is the request body for setting a credential.
// An empty value clears the credential.
type SetCredentialRequest struct {
	Value string `json:"value"`
}

// LanguageResponse reports the current language preference.
type LanguageResponse struct {
	Language types.Language `json:"language"`
}

// SetLanguageRequest is the request body for setting the language preference.
type SetLanguageRequest struct {
	Language types.Language `json:"language"`
}

// GetCredentialStatus handles GET /credentials/:category.
func (s *Server) GetCredentialStatus(c echo.Context) error {
	category := types.Category(c.Param("category"))
	if !category.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown category"})
	}
	return c.JSON(http.StatusOK, CredentialStatusResponse{
		Category:   category,
		Configured: s.keys.CredentialStatus(c.Request().Context(), category),
	})
}

// SetCredential handles PUT /credentials/:category.
func (s *Server) SetCredential(c echo.Context) error {
	category := types.Category(c.Param("category"))
	if !category.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown category"})
	}

	var req SetCredentialRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := s.keys.SetCredential(c.Request().Context(), category, req.Value); err != nil {
		s.logger.WithError(err).Error("failed to set credential")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to set credential"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GetLanguage handles GET /settings/language.
func (s *Server) GetLanguage(c echo.Context) error {
	return c.JSON(http.StatusOK, LanguageResponse{Language: s.keys.Language(c.Request().Context())})
}

// SetLanguage handles PUT /settings/language.
func (s *Server) SetLanguage(c echo.Context) error {
	var req SetLanguageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if !req.Language.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported language"})
	}

	if err := s.keys.SetLanguage(c.Request().Context(), req.Language); err != nil {
		s.logger.WithError(err).Error("failed to set language")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to set language"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
