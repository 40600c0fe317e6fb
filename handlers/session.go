package handlers

import (
	"net/http"
	"time"

	"safar/middleware"
	"safar/models"
	"safar/services/session"
	"safar/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler exposes the session store to the auth boundary and to
// authenticated users.
type SessionHandler struct {
	Store      session.Store
	SessionTTL time.Duration
}

func NewSessionHandler(store session.Store, ttl time.Duration) *SessionHandler {
	return &SessionHandler{Store: store, SessionTTL: ttl}
}

// IssueSessionRequest is posted by the auth service after it has verified a
// login. The caller supplies the complete profile snapshot; this service only
// registers the session and mints the token pair.
type IssueSessionRequest struct {
	UserID     string             `json:"userId" binding:"required"`
	User       models.UserProfile `json:"user" binding:"required"`
	DeviceInfo string             `json:"deviceInfo"`
}

type tokenPairResponse struct {
	Session      models.Session `json:"session"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

// IssueSessionHandler registers a new session and returns the signed token pair.
func (h *SessionHandler) IssueSessionHandler(c *gin.Context) {
	var req IssueSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid session request", err.Error())
		return
	}

	sessionID := uuid.NewString()
	accessToken, err := utils.GenerateSessionToken(req.UserID, sessionID, h.SessionTTL)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to issue token", err.Error())
		return
	}
	refreshToken := uuid.NewString()

	sess := h.Store.Create(models.Session{
		SessionID:    sessionID,
		UserID:       req.UserID,
		User:         req.User,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(h.SessionTTL),
		DeviceInfo:   req.DeviceInfo,
		IPAddress:    middleware.GetClientIP(c),
		UserAgent:    c.GetHeader("User-Agent"),
	})

	c.JSON(http.StatusCreated, tokenPairResponse{
		Session:      sess,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// RefreshSessionRequest rotates a session's token pair.
type RefreshSessionRequest struct {
	SessionID    string              `json:"sessionId" binding:"required"`
	RefreshToken string              `json:"refreshToken" binding:"required"`
	User         *models.UserProfile `json:"user"`
}

// RefreshSessionHandler rotates the access/refresh pair on a live session and
// extends its expiry.
func (h *SessionHandler) RefreshSessionHandler(c *gin.Context) {
	var req RefreshSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid refresh request", err.Error())
		return
	}

	sess, ok := h.Store.Get(req.SessionID)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Session expired or revoked", "")
		return
	}
	if sess.RefreshToken != req.RefreshToken {
		utils.JSONError(c, http.StatusUnauthorized, "Refresh token mismatch", "")
		return
	}

	accessToken, err := utils.GenerateSessionToken(sess.UserID, sess.SessionID, h.SessionTTL)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to issue token", err.Error())
		return
	}
	refreshToken := uuid.NewString()
	expiresAt := time.Now().Add(h.SessionTTL)

	updated, ok := h.Store.Update(sess.SessionID, models.SessionUpdate{
		User:         req.User,
		AccessToken:  &accessToken,
		RefreshToken: &refreshToken,
		ExpiresAt:    &expiresAt,
	})
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Session expired or revoked", "")
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{
		Session:      updated,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// GetCurrentSessionHandler returns the caller's own session record.
func (h *SessionHandler) GetCurrentSessionHandler(c *gin.Context) {
	sessionID, ok := contextString(c, "sessionID")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session ID not found in context"})
		return
	}

	sess, found := h.Store.Get(sessionID)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or revoked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// LogoutHandler deletes the caller's session.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	sessionID, ok := contextString(c, "sessionID")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session ID not found in context"})
		return
	}

	h.Store.Delete(sessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetDevicesHandler lists the caller's live sessions across devices.
func (h *SessionHandler) GetDevicesHandler(c *gin.Context) {
	userID, ok := contextString(c, "userID")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User ID not found in context"})
		return
	}

	sessions := h.Store.GetSessionsForUser(userID)
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// SignOutOtherDevicesHandler revokes every session of the caller except the
// current one.
func (h *SessionHandler) SignOutOtherDevicesHandler(c *gin.Context) {
	userID, ok := contextString(c, "userID")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User ID not found in context"})
		return
	}
	sessionID, ok := contextString(c, "sessionID")
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session ID not found in context"})
		return
	}

	removed := h.Store.DeleteAllForUser(userID, sessionID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Signed out of other devices successfully",
		"removed": removed,
	})
}

func contextString(c *gin.Context, key string) (string, bool) {
	raw, exists := c.Get(key)
	if !exists || raw == nil {
		return "", false
	}
	val, ok := raw.(string)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}
