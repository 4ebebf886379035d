package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/groupmeet/groupmeet/internal/config"
	"github.com/groupmeet/groupmeet/internal/database"
	"github.com/groupmeet/groupmeet/internal/handlers"
	"github.com/groupmeet/groupmeet/internal/logging"
	"github.com/groupmeet/groupmeet/internal/middleware"
	"github.com/groupmeet/groupmeet/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed := logging.ParseLevel(level)
		logger.SetLevel(parsed)
		logging.SetDefaultLevel(parsed)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("Starting Groupmeet server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Services
	dbAdapter := services.NewPoolAdapter(db.Pool)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisDB.Client)
	emailService := services.NewEmailService(&cfg.Email, dbAdapter)
	meetingService := services.NewMeetingService(dbAdapter)
	friendService := services.NewFriendService(dbAdapter)
	interestService := services.NewInterestService(dbAdapter)
	calendarService := services.NewCalendarService(dbAdapter)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, emailService, cfg.Server.Secure)
	userHandler := handlers.NewUserHandler(userService, interestService)
	meetingHandler := handlers.NewMeetingHandler(meetingService)
	friendHandler := handlers.NewFriendHandler(friendService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)
	authRateLimiter := middleware.NewAuthRateLimiter(redisDB.Client)
	resetRateLimiter := middleware.NewPasswordResetRateLimiter(redisDB.Client)
	apiRateLimiter := middleware.NewAPIRateLimiter(redisDB.Client)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}

	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Auth endpoints
	mux.Handle("POST /api/auth/register", authRateLimiter.Limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authRateLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.Me))
	mux.Handle("POST /api/auth/change-password", requireAuth(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/forgot-password", resetRateLimiter.Limit(http.HandlerFunc(authHandler.ForgotPassword)))
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)

	// Users and interests
	mux.Handle("GET /api/users", requireAuth(userHandler.Search))
	mux.Handle("PATCH /api/users/me", requireAuth(userHandler.UpdateProfile))
	mux.Handle("POST /api/users/me/pro", requireAuth(userHandler.UpgradePro))
	mux.Handle("DELETE /api/users/me/pro", requireAuth(userHandler.DowngradePro))
	mux.HandleFunc("GET /api/users/{id}", userHandler.Profile)
	mux.HandleFunc("GET /api/interests", userHandler.Interests)

	// Meetings
	mux.HandleFunc("GET /api/meetings", meetingHandler.Search)
	mux.Handle("POST /api/meetings", requireAuth(meetingHandler.Create))
	mux.Handle("GET /api/meetings/my", requireAuth(meetingHandler.MyMeetings))
	mux.HandleFunc("GET /api/meetings/{id}", meetingHandler.Detail)
	mux.Handle("PATCH /api/meetings/{id}", requireAuth(meetingHandler.Update))
	mux.Handle("DELETE /api/meetings/{id}", requireAuth(meetingHandler.Delete))
	mux.Handle("POST /api/meetings/{id}/join", requireAuth(meetingHandler.Join))
	mux.Handle("POST /api/meetings/{id}/leave", requireAuth(meetingHandler.Leave))
	mux.Handle("GET /api/meetings/{id}/participants", requireAuth(meetingHandler.Participants))
	mux.Handle("DELETE /api/meetings/{id}/participants/{userID}", requireAuth(meetingHandler.RemoveParticipant))
	mux.Handle("POST /api/meetings/{id}/block/{userID}", requireAuth(meetingHandler.BlockParticipant))
	mux.Handle("DELETE /api/meetings/{id}/block/{userID}", requireAuth(meetingHandler.UnblockParticipant))

	// Friends
	mux.Handle("GET /api/friends", requireAuth(friendHandler.List))
	mux.Handle("DELETE /api/friends/{userID}", requireAuth(friendHandler.Remove))
	mux.Handle("GET /api/friends/requests", requireAuth(friendHandler.Requests))
	mux.Handle("POST /api/friends/requests/{userID}", requireAuth(friendHandler.SendRequest))
	mux.Handle("POST /api/friends/requests/{id}/accept", requireAuth(friendHandler.Accept))
	mux.Handle("DELETE /api/friends/requests/{id}", requireAuth(friendHandler.Decline))

	// Calendar
	mux.Handle("GET /api/calendar", requireAuth(calendarHandler.Range))
	mux.Handle("POST /api/calendar/notes", requireAuth(calendarHandler.CreateNote))
	mux.Handle("PUT /api/calendar/notes/{id}", requireAuth(calendarHandler.UpdateNote))
	mux.Handle("DELETE /api/calendar/notes/{id}", requireAuth(calendarHandler.DeleteNote))

	// Middleware chain, outermost first
	var handler http.Handler = mux
	handler = apiRateLimiter.Limit(handler)
	handler = authMiddleware.Authenticate(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{"addr": addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
