// File: safar/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safar/config"
	"safar/handlers"
	"safar/middleware"
	"safar/models"
	"safar/routes"
	"safar/services/events"
	"safar/services/realtime"
	"safar/services/session"
	"safar/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	zap.ReplaceGlobals(logger)

	utils.InitAuthCache()

	// Session store with its periodic expiration sweep.
	store := session.NewMemoryStore(logger,
		session.WithSweepInterval(time.Duration(config.AppConfig.SessionSweepMinutes)*time.Minute))
	store.StartCleanup()

	// Fanout hub for inbound realtime events.
	hub := events.NewHub(logger, 200)

	// Realtime client subscribed to the platform backend event stream.
	rtClient := realtime.NewClient(realtime.Config{
		URL:                  config.AppConfig.WSURL,
		Token:                func() string { return config.AppConfig.WSServiceToken },
		HeartbeatInterval:    time.Duration(config.AppConfig.WSHeartbeatSeconds) * time.Second,
		ReconnectBaseDelay:   time.Duration(config.AppConfig.WSReconnectBaseMs) * time.Millisecond,
		ReconnectMaxDelay:    time.Duration(config.AppConfig.WSReconnectMaxMs) * time.Millisecond,
		MaxReconnectAttempts: config.AppConfig.WSMaxReconnectAttempts,
		SendQueueLimit:       config.AppConfig.WSSendQueueLimit,
	}, logger)

	go rtClient.Connect(realtime.Handlers{
		OnInitialData: func(d models.InitialData) {
			hub.Publish(models.TypeInitialData, d)
		},
		OnBookingUpdate: func(u models.BookingUpdate) {
			hub.Publish(models.TypeBookingUpdate, u)
		},
		OnNewMessage: func(m models.ChatMessage) {
			hub.Publish(models.TypeNewMessage, m)
		},
		OnNewNotification: func(n models.Notification) {
			hub.Publish(models.TypeNewNotification, n)
		},
		OnServerError: func(e models.ServerError) {
			logger.Warn("main: backend stream error", zap.String("code", e.Code), zap.String("message", e.Message))
		},
		OnError: func(cerr realtime.ClientError) {
			logger.Warn("main: realtime client error",
				zap.String("code", string(cerr.Code)),
				zap.String("message", cerr.Message),
				zap.Bool("retryable", cerr.Retryable))
		},
		OnStateChange: func(s realtime.State) {
			logger.Info("main: realtime connection state", zap.Stringer("state", s))
		},
	})

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	sessionHandler := handlers.NewSessionHandler(store, sessionTTL)
	adminHandler := handlers.NewAdminHandler(store)
	realtimeHandler := handlers.NewRealtimeHandler(rtClient, hub)

	routes.RegisterRoutes(router, sessionHandler, adminHandler, realtimeHandler, store)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	rtClient.Disconnect()
	store.StopCleanup()
	_ = logger.Sync()

	logger.Sugar().Info("main: server stopped gracefully")
}
