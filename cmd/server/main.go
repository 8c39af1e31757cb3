package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mymeals/internal/config"
	"mymeals/internal/database"
	"mymeals/internal/googleauth"
	"mymeals/internal/handlers"
	"mymeals/internal/notify"
	"mymeals/internal/repository"
	"mymeals/internal/security"
	"mymeals/internal/service"
	"mymeals/internal/store"
	"mymeals/internal/sync"
	"mymeals/internal/websocket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Initialize(database.Options{
		Type: cfg.DatabaseType,
		Path: cfg.DatabasePath,
		URL:  cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Persistent key-value store and change notifications
	appStore := store.New(db)
	events := notify.NewBroadcaster()

	// Initialize repositories
	mealRepo, err := repository.NewMealRepository(appStore, events)
	if err != nil {
		log.Fatalf("Failed to load meals: %v", err)
	}
	familyRepo, err := repository.NewFamilyRepository(appStore, events)
	if err != nil {
		log.Fatalf("Failed to load family members: %v", err)
	}

	// Reload in-memory collections after a cloud import rewrites the store.
	events.Subscribe(func(e notify.Event) {
		if e.Kind != notify.EventImported {
			return
		}
		if err := mealRepo.Reload(); err != nil {
			log.Printf("Failed to reload meals after import: %v", err)
		}
		if err := familyRepo.Reload(); err != nil {
			log.Printf("Failed to reload family members after import: %v", err)
		}
	})

	// Google connection and cloud sync
	auth := googleauth.NewService(googleauth.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  callbackURL(cfg),
	}, appStore)

	var backend sync.Backend
	var sheetsBackend *sync.SheetsBackend
	switch cfg.SyncBackend {
	case "sheets":
		sheetsBackend = sync.NewSheetsBackend(auth, appStore)
		backend = sheetsBackend
	default:
		backend = sync.NewDriveBackend(auth)
	}
	log.Printf("Sync backend: %s", backend.Name())

	engine := sync.NewEngine(backend, appStore, events)
	autoSyncer := sync.NewAutoSyncer(engine, cfg.AutoSyncDelay)
	if auth.Configured() {
		autoSyncer.Start(events)
	}
	defer autoSyncer.Stop()

	// Initialize services
	authService, err := service.NewAuthService(cfg.HouseholdPassword, cfg.SessionDuration)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	if !authService.Enabled() {
		log.Println("No household password configured, login gate disabled")
	}

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Websocket hub pushes change events to connected browsers
	hub := websocket.NewHub()
	go hub.Run()
	hub.Subscribe(events)

	// Initialize middleware and handlers
	loginLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, loginLimiter)

	authHandler := handlers.NewAuthHandler(authService)
	mealHandler := handlers.NewMealHandler(mealRepo)
	familyHandler := handlers.NewFamilyHandler(familyRepo)
	syncHandler := handlers.NewSyncHandler(auth, engine, sheetsBackend)
	exportHandler := handlers.NewExportHandler(mealRepo, familyRepo, emailService)
	autocompleteHandler := handlers.NewAutocompleteHandler(mealRepo)

	// Setup routes
	mux := http.NewServeMux()

	// Session routes
	mux.HandleFunc("POST /api/session", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("DELETE /api/session", authHandler.Logout)
	mux.HandleFunc("GET /api/session", authHandler.Status)

	// Meal routes
	mux.HandleFunc("GET /api/meals", middleware.RequireSession(mealHandler.List))
	mux.HandleFunc("POST /api/meals", middleware.RequireSession(mealHandler.Create))
	mux.HandleFunc("GET /api/meals/grouped", middleware.RequireSession(mealHandler.Grouped))
	mux.HandleFunc("GET /api/meals/today", middleware.RequireSession(mealHandler.Today))
	mux.HandleFunc("GET /api/meals/suggestions", middleware.RequireSession(mealHandler.Suggestions))
	mux.HandleFunc("GET /api/meals/{id}", middleware.RequireSession(mealHandler.Get))
	mux.HandleFunc("DELETE /api/meals/{id}", middleware.RequireSession(mealHandler.Delete))
	mux.HandleFunc("PUT /api/meals/{id}/ratings/{memberId}", middleware.RequireSession(mealHandler.Rate))

	// Family routes
	mux.HandleFunc("GET /api/family", middleware.RequireSession(familyHandler.List))
	mux.HandleFunc("POST /api/family", middleware.RequireSession(familyHandler.Create))
	mux.HandleFunc("GET /api/family/{id}", middleware.RequireSession(familyHandler.Get))
	mux.HandleFunc("PUT /api/family/{id}", middleware.RequireSession(familyHandler.Update))
	mux.HandleFunc("DELETE /api/family/{id}", middleware.RequireSession(familyHandler.Delete))

	// Google OAuth and sync routes
	mux.HandleFunc("GET /auth/google/start", middleware.RequireSession(syncHandler.StartOAuth))
	mux.HandleFunc("GET /auth/google/callback", syncHandler.OAuthCallback)
	mux.HandleFunc("GET /api/sync/status", middleware.RequireSession(syncHandler.Status))
	mux.HandleFunc("POST /api/sync/push", middleware.RequireSession(syncHandler.Push))
	mux.HandleFunc("POST /api/sync/pull", middleware.RequireSession(syncHandler.Pull))
	mux.HandleFunc("POST /api/sync/run", middleware.RequireSession(syncHandler.Run))
	mux.HandleFunc("POST /api/sync/disconnect", middleware.RequireSession(syncHandler.Disconnect))
	mux.HandleFunc("GET /api/sync/spreadsheets", middleware.RequireSession(syncHandler.ListSpreadsheets))
	mux.HandleFunc("POST /api/sync/spreadsheets", middleware.RequireSession(syncHandler.CreateSpreadsheet))
	mux.HandleFunc("PUT /api/sync/spreadsheet", middleware.RequireSession(syncHandler.SelectSpreadsheet))

	// Export routes
	mux.HandleFunc("GET /api/export.csv", middleware.RequireSession(exportHandler.Download))
	mux.HandleFunc("POST /api/export/email", middleware.RequireSession(exportHandler.Email))

	// Autocomplete routes
	mux.HandleFunc("POST /api/autocomplete/{clientId}/input", middleware.RequireSession(autocompleteHandler.Input))
	mux.HandleFunc("POST /api/autocomplete/{clientId}/key", middleware.RequireSession(autocompleteHandler.Key))
	mux.HandleFunc("POST /api/autocomplete/{clientId}/hover", middleware.RequireSession(autocompleteHandler.Hover))
	mux.HandleFunc("POST /api/autocomplete/{clientId}/focus", middleware.RequireSession(autocompleteHandler.Focus))
	mux.HandleFunc("POST /api/autocomplete/{clientId}/blur", middleware.RequireSession(autocompleteHandler.Blur))
	mux.HandleFunc("POST /api/autocomplete/{clientId}/select", middleware.RequireSession(autocompleteHandler.Select))
	mux.HandleFunc("DELETE /api/autocomplete/{clientId}", middleware.RequireSession(autocompleteHandler.Reset))

	// Websocket change feed
	mux.HandleFunc("GET /ws", middleware.RequireSession(hub.ServeWS))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// callbackURL builds the OAuth redirect URL from the configured base URL,
// falling back to localhost for development.
func callbackURL(cfg *config.Config) string {
	base := cfg.OAuthRedirectBaseURL
	if base == "" {
		base = "http://localhost:" + cfg.ServerPort
	}
	return fmt.Sprintf("%s/auth/google/callback", strings.TrimRight(base, "/"))
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if removed := authService.CleanupExpiredSessions(); removed > 0 {
			log.Printf("Cleaned up %d expired sessions", removed)
		}
	}
}
