package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"safar/config"
	"safar/middleware"
	"safar/models"
	"safar/services/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminToken = "test-admin-token"

func newTestRouter(t *testing.T) (*gin.Engine, *session.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.AdminToken = testAdminToken

	store := session.NewMemoryStore(zap.NewNop())
	sh := NewSessionHandler(store, time.Hour)

	r := gin.New()
	api := r.Group("/api/sessions")
	api.POST("", middleware.AdminAuthMiddleware(), sh.IssueSessionHandler)
	api.POST("/refresh", sh.RefreshSessionHandler)
	authed := api.Group("")
	authed.Use(middleware.SessionAuthMiddleware(store))
	authed.GET("/me", sh.GetCurrentSessionHandler)
	authed.DELETE("/me", sh.LogoutHandler)
	authed.GET("/devices", sh.GetDevicesHandler)
	authed.POST("/signout-others", sh.SignOutOtherDevicesHandler)

	return r, store
}

type issuedPair struct {
	Session      models.Session `json:"session"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

func issueSession(t *testing.T, r *gin.Engine, userID string) issuedPair {
	t.Helper()
	body, _ := json.Marshal(IssueSessionRequest{
		UserID:     userID,
		User:       models.UserProfile{ID: userID, Name: "Test", Email: userID + "@example.com"},
		DeviceInfo: "Pixel 9",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var pair issuedPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.Session.SessionID)
	return pair
}

func authedRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestIssueRequiresAdminToken(t *testing.T) {
	r, _ := newTestRouter(t)

	body, _ := json.Marshal(IssueSessionRequest{UserID: "u1", User: models.UserProfile{ID: "u1"}})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueAndGetCurrentSession(t *testing.T) {
	r, _ := newTestRouter(t)
	pair := issueSession(t, r, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/sessions/me", pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Session models.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.Session.UserID)
	assert.Equal(t, pair.Session.SessionID, resp.Session.SessionID)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	r, _ := newTestRouter(t)
	issueSession(t, r, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/sessions/me", "not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	r, _ := newTestRouter(t)
	pair := issueSession(t, r, "u1")

	body, _ := json.Marshal(RefreshSessionRequest{
		SessionID:    pair.Session.SessionID,
		RefreshToken: pair.RefreshToken,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/refresh", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rotated issuedPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The new access token authenticates.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/sessions/me", rotated.AccessToken))
	assert.Equal(t, http.StatusOK, w.Code)

	// The old one no longer matches the stored access token.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/sessions/me", pair.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsWrongToken(t *testing.T) {
	r, _ := newTestRouter(t)
	pair := issueSession(t, r, "u1")

	body, _ := json.Marshal(RefreshSessionRequest{
		SessionID:    pair.Session.SessionID,
		RefreshToken: "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/refresh", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignOutOtherDevices(t *testing.T) {
	r, store := newTestRouter(t)
	current := issueSession(t, r, "u1")
	issueSession(t, r, "u1")
	issueSession(t, r, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/api/sessions/signout-others", current.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Removed)

	sessions := store.GetSessionsForUser("u1")
	require.Len(t, sessions, 1)
	assert.Equal(t, current.Session.SessionID, sessions[0].SessionID)
}

func TestLogoutRevokesSession(t *testing.T) {
	r, store := newTestRouter(t)
	pair := issueSession(t, r, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodDelete, "/api/sessions/me", pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 0, store.Count())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/sessions/me", pair.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDevicesListsAllUserSessions(t *testing.T) {
	r, _ := newTestRouter(t)
	pair := issueSession(t, r, "u1")
	issueSession(t, r, "u1")
	issueSession(t, r, "u2")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/api/sessions/devices", pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []models.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Sessions, 2)
}
