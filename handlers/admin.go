package handlers

import (
	"net/http"

	"safar/services/session"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes session inspection and revocation to operators.
type AdminHandler struct {
	Store session.Store
}

func NewAdminHandler(store session.Store) *AdminHandler {
	return &AdminHandler{Store: store}
}

// CountSessionsHandler sweeps expired sessions and reports the live count.
func (h *AdminHandler) CountSessionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.Store.Count()})
}

// GetUserSessionsHandler lists a user's live sessions.
func (h *AdminHandler) GetUserSessionsHandler(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": h.Store.GetSessionsForUser(userID)})
}

// RevokeSessionHandler force-deletes one session.
func (h *AdminHandler) RevokeSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session id"})
		return
	}
	if !h.Store.Delete(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session revoked"})
}

// RevokeUserSessionsHandler force-deletes every session of a user, honoring an
// optional ?exclude= session id.
func (h *AdminHandler) RevokeUserSessionsHandler(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user id"})
		return
	}
	removed := h.Store.DeleteAllForUser(userID, c.Query("exclude"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
