package routes

import (
	"net/http"
	"time"

	"safar/handlers"
	"safar/middleware"
	"safar/services/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers the auth-boundary and user-facing session endpoints.
func RegisterSessionRoutes(r *gin.Engine, sh *handlers.SessionHandler, store session.Store) {
	api := r.Group("/api/sessions")
	{
		// Called by the auth service after a verified login; admin-gated.
		api.POST("", middleware.AdminAuthMiddleware(), sh.IssueSessionHandler)
		api.POST("/refresh", sh.RefreshSessionHandler)

		// Protected routes (require a live session token).
		authed := api.Group("")
		authed.Use(middleware.SessionAuthMiddleware(store))
		authed.GET("/me", sh.GetCurrentSessionHandler)
		authed.DELETE("/me", sh.LogoutHandler)
		authed.GET("/devices", sh.GetDevicesHandler)
		authed.POST("/signout-others", sh.SignOutOtherDevicesHandler)
	}
}

// RegisterAdminRoutes registers operator endpoints.
func RegisterAdminRoutes(r *gin.Engine, ah *handlers.AdminHandler, rh *handlers.RealtimeHandler) {
	api := r.Group("/api/admin")
	api.Use(middleware.AdminAuthMiddleware())
	{
		api.GET("/sessions/count", ah.CountSessionsHandler)
		api.DELETE("/sessions/:id", ah.RevokeSessionHandler)
		api.GET("/users/:id/sessions", ah.GetUserSessionsHandler)
		api.DELETE("/users/:id/sessions", ah.RevokeUserSessionsHandler)

		api.GET("/realtime/state", rh.StateHandler)
		api.GET("/realtime/events", rh.RecentEventsHandler)
	}
}

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(r *gin.Engine, sh *handlers.SessionHandler, ah *handlers.AdminHandler, rh *handlers.RealtimeHandler, store session.Store) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "User-Agent"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterSessionRoutes(r, sh, store)
	RegisterAdminRoutes(r, ah, rh)
}
