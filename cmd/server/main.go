package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/cache"
	"github.com/civicconnect/civic-services/internal/clients"
	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/guide"
	"github.com/civicconnect/civic-services/internal/handlers"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/middleware"
	"github.com/civicconnect/civic-services/internal/notifications"
	"github.com/civicconnect/civic-services/internal/scheduler"
	"github.com/civicconnect/civic-services/internal/sos"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/civicconnect/civic-services/internal/web"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Civic Connect")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	st, err := store.Open(startupCtx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	media, err := storage.Open(startupCtx, cfg.StorageAccount, cfg.StorageContainer, cfg.MediaDir)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	pages, err := web.New()
	if err != nil {
		logrus.Fatalf("Failed to parse templates: %v", err)
	}

	// Third-party clients and their caches
	gemini := clients.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	places := clients.NewPlacesClient(cfg.GoogleMapsAPIKeys, cfg.PlacesBaseURL, cfg.PlacesRadius,
		cache.New("maps", cfg.MapsCacheTTL), cache.New("working_keys", cfg.WorkingKeyCacheTTL))
	routes := clients.NewRoutesClient(cfg.OpenRouteAPIKey, cfg.OpenRouteBaseURL)
	for _, c := range []clients.Client{gemini, places, routes} {
		if !c.IsEnabled() {
			logrus.Warnf("%s is not configured, features using it will fall back", c.Name())
		}
	}

	notificationService := notifications.NewService(cfg)
	guideService := guide.NewService(gemini, cache.New("guide", cfg.GuideCacheTTL))
	sosService := sos.NewService(gemini, places, st, notificationService)

	loader := ingest.NewLoader(cfg.DataDir, st)
	importService := ingest.NewService(loader, media, notificationService)

	schedulerService := scheduler.NewService(cfg, importService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	h := handlers.New(handlers.Dependencies{
		Store:    st,
		Media:    media,
		Auth:     auth.NewManager(auth.NewCookieStore(cfg.SessionSecret, cfg.SecureCookies), st),
		Pages:    pages,
		Guide:    guideService,
		SOS:      sosService,
		Routes:   routes,
		Loader:   loader,
		Importer: importService,
		Limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		MapsKey:  cfg.PrimaryMapsKey(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
