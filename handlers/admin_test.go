package handlers

import (
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

func newAdminRouter(t *testing.T) (*gin.Engine, *session.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.AdminToken = testAdminToken

	store := session.NewMemoryStore(zap.NewNop())
	ah := NewAdminHandler(store)

	r := gin.New()
	api := r.Group("/api/admin")
	api.Use(middleware.AdminAuthMiddleware())
	api.GET("/sessions/count", ah.CountSessionsHandler)
	api.DELETE("/sessions/:id", ah.RevokeSessionHandler)
	api.GET("/users/:id/sessions", ah.GetUserSessionsHandler)
	api.DELETE("/users/:id/sessions", ah.RevokeUserSessionsHandler)

	return r, store
}

func adminRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return req
}

func seedSession(store *session.MemoryStore, id, userID string) {
	store.Create(models.Session{
		SessionID: id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func TestAdminCount(t *testing.T) {
	r, store := newAdminRouter(t)
	seedSession(store, "s1", "u1")
	seedSession(store, "s2", "u2")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodGet, "/api/admin/sessions/count"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestAdminRevokeSession(t *testing.T) {
	r, store := newAdminRouter(t)
	seedSession(store, "s1", "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/api/admin/sessions/s1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, store.Count())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/api/admin/sessions/s1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRevokeUserSessionsWithExclusion(t *testing.T) {
	r, store := newAdminRouter(t)
	seedSession(store, "s1", "u1")
	seedSession(store, "s2", "u1")
	seedSession(store, "s3", "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/api/admin/users/u1/sessions?exclude=s2"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Removed)

	sessions := store.GetSessionsForUser("u1")
	require.Len(t, sessions, 1)
	assert.Equal(t, "s2", sessions[0].SessionID)
}

func TestAdminListUserSessions(t *testing.T) {
	r, store := newAdminRouter(t)
	seedSession(store, "s1", "u1")
	seedSession(store, "s2", "u2")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodGet, "/api/admin/users/u1/sessions"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []models.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "s1", resp.Sessions[0].SessionID)
}

func TestAdminRejectsMissingToken(t *testing.T) {
	r, _ := newAdminRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/sessions/count", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
