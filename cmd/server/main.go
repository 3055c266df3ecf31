package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tour-admin-server/internal/cache"
	"tour-admin-server/internal/config"
	"tour-admin-server/internal/handler"
	"tour-admin-server/internal/middleware"
	"tour-admin-server/internal/restclient"
	"tour-admin-server/internal/service"
	"tour-admin-server/internal/session"
	"tour-admin-server/internal/state"
	"tour-admin-server/internal/websocket"
	"tour-admin-server/pkg/jwt"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, cfg.Logging)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var store cache.Store
	if cfg.Cache.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()
		store = cache.NewRedisStore(client, "tour-admin:", cfg.Cache.StaleRetention)
		logger.Info("Using Redis cache")
	} else {
		memory := cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.StaleRetention)
		memory.StartSweeper(ctx, cfg.Cache.SweepInterval)
		store = memory
	}
	readThrough := cache.NewReadThrough(store, cfg.Cache.TTL, logger)

	factory := restclient.NewFactory(restclient.Config{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout,
		UploadTimeout: cfg.Backend.UploadTimeout,
	}, logger)

	sessions, err := session.NewManager(cfg.Session)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up sessions")
	}

	// WebSocket Manager
	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerSession,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		logger,
	)
	go wsManager.Run(ctx)

	registry := state.NewRegistry(cfg.Locale.DefaultLanguage, handler.NewStateNotifier(wsManager, logger))
	registry.SetLimit(cfg.Session.StoreLimit)
	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler(registry))
	go sweepRegistry(ctx, registry, cfg.Cache.SweepInterval, cfg.Session.StoreIdle, logger)

	cityService := service.NewCityService(factory, readThrough)
	referenceService := service.NewReferenceService(factory, cityService, readThrough, cfg.Locale.FallbackCountryCode, logger)
	services := handler.Services{
		Reference:  referenceService,
		Dashboard:  service.NewDashboardService(referenceService),
		Tours:      service.NewTourService(factory),
		Cities:     cityService,
		Categories: service.NewCategoryService(factory, readThrough),
		Menus:      service.NewMenuService(factory),
		Roles:      service.NewRoleService(factory),
		Users:      service.NewUserService(factory),
		Offers:     service.NewOfferService(factory),
		Terms:      service.NewTermService(factory),
	}
	authService := service.NewAuthService(factory, logger)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, registry, wsManager, logger),
		Pages:     handler.NewPageHandler(referenceService, registry, logger),
		Prefs:     handler.NewPrefsHandler(referenceService, registry, cfg.Locale.SupportedLanguages, logger),
		WebSocket: handler.NewWebSocketHandler(wsManager, registry, cfg.WebSocket, cfg.CORS.AllowedOrigins, logger),
	}

	r := handler.NewRouter(handlers, handler.DashboardPages(services),
		middleware.RecoveryMiddleware(logger),
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(
			cfg.CORS.AllowedOrigins,
			cfg.CORS.AllowedMethods,
			cfg.CORS.AllowedHeaders,
		),
		middleware.SessionMiddleware(sessions, cfg.Locale, logger),
		middleware.GuardMiddleware(jwt.NewVerifier(cfg.JWT.Secret), logger),
	)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.UploadTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    addr,
			"env":     cfg.Server.Env,
			"backend": cfg.Backend.BaseURL,
		}).Info("Starting tour admin server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	stop()

	logger.Info("Server stopped gracefully")
}

func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logger.SetFormatter(&logrus.JSONFormatter{})
}

// sweepRegistry drops session stores nobody touched within maxIdle.
func sweepRegistry(ctx context.Context, registry *state.Registry, interval, maxIdle time.Duration, logger *logrus.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(maxIdle); n > 0 {
				logger.WithField("removed", n).Debug("swept idle session stores")
			}
		}
	}
}
