package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polychat/chat-backend/internal/keystore"
	"github.com/polychat/chat-backend/internal/kv/memory"
	"github.com/polychat/chat-backend/internal/provider"
	"github.com/polychat/chat-backend/internal/session"
	"github.com/polychat/chat-backend/internal/store"
	"github.com/polychat/chat-backend/internal/types"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	kvStore := memory.New()
	keys := keystore.New(kvStore, logger, types.LangEnglish)
	conversations := store.New(kvStore, logger)
	gateway := provider.NewGateway(provider.Config{}, logger)
	chatSession := session.New(conversations, keys, gateway, logger, session.Config{ReplyDelay: -1})

	e := echo.New()
	NewServer(chatSession, conversations, keys, logger).RegisterRoutes(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createChat(t *testing.T, e *echo.Echo) types.Chat {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/chats", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var chat types.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	return chat
}

func TestHealthz(t *testing.T) {
	e := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatLifecycle(t *testing.T) {
	e := newTestEcho(t)

	chat := createChat(t, e)
	assert.True(t, strings.HasPrefix(chat.ID, "chat-"))

	rec := doJSON(t, e, http.MethodGet, "/chats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListChatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Chats, 1)
	assert.Equal(t, chat.ID, list.ActiveChatID)

	rec = doJSON(t, e, http.MethodGet, "/chats/"+chat.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history types.ChatHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history.Messages)
}

func TestGetChatNotFound(t *testing.T) {
	e := newTestEcho(t)
	createChat(t, e)

	rec := doJSON(t, e, http.MethodGet, "/chats/chat-01jm0000000000000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/chats/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitMessageDemoRoundTrip(t *testing.T) {
	e := newTestEcho(t)
	chat := createChat(t, e)

	rec := doJSON(t, e, http.MethodPost, "/chats/"+chat.ID+"/messages", SubmitMessageRequest{Text: "hello there"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SubmitMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.RoleUser, resp.UserEntry.Role)
	assert.Equal(t, "hello there", resp.UserEntry.Payload)
	assert.Equal(t, types.RoleBot, resp.Reply.Role)
	assert.Equal(t, types.KindText, resp.Reply.Kind)
	assert.NotEmpty(t, resp.Reply.Payload)

	// The exchange is visible on a subsequent load.
	rec = doJSON(t, e, http.MethodGet, "/chats/"+chat.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history types.ChatHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 2)
}

func TestSubmitMessageValidation(t *testing.T) {
	e := newTestEcho(t)
	chat := createChat(t, e)

	rec := doJSON(t, e, http.MethodPost, "/chats/"+chat.ID+"/messages", SubmitMessageRequest{Text: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCredentialEndpointsNeverLeakSecrets(t *testing.T) {
	e := newTestEcho(t)

	rec := doJSON(t, e, http.MethodGet, "/credentials/text", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status CredentialStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Configured)

	rec = doJSON(t, e, http.MethodPut, "/credentials/text", SetCredentialRequest{Value: "sk-secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-secret")

	rec = doJSON(t, e, http.MethodGet, "/credentials/text", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Configured)
	assert.NotContains(t, rec.Body.String(), "sk-secret")

	// Empty value clears.
	rec = doJSON(t, e, http.MethodPut, "/credentials/text", SetCredentialRequest{Value: ""})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, e, http.MethodGet, "/credentials/text", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Configured)

	rec = doJSON(t, e, http.MethodGet, "/credentials/video", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLanguageEndpoints(t *testing.T) {
	e := newTestEcho(t)

	rec := doJSON(t, e, http.MethodGet, "/settings/language", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lang LanguageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lang))
	assert.Equal(t, types.LangEnglish, lang.Language)

	rec = doJSON(t, e, http.MethodPut, "/settings/language", SetLanguageRequest{Language: types.LangFrench})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/settings/language", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lang))
	assert.Equal(t, types.LangFrench, lang.Language)

	rec = doJSON(t, e, http.MethodPut, "/settings/language", SetLanguageRequest{Language: "de"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaUploadAndList(t *testing.T) {
	e := newTestEcho(t)
	chat := createChat(t, e)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("kind", "photo"))
	part, err := writer.CreateFormFile("file", "cat.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/chats/"+chat.ID+"/media", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var asset types.MediaAsset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asset))
	assert.True(t, strings.HasPrefix(asset.ID, "media-"))
	assert.Equal(t, "cat.jpg", asset.FileName)

	rec2 := doJSON(t, e, http.MethodGet, "/chats/"+chat.ID+"/media", nil)
	require.Equal(t, http.StatusOK, rec2.Code)
	var list ListMediaResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &list))
	require.Len(t, list.Media, 1)
	assert.Equal(t, asset.ID, list.Media[0].ID)
}
