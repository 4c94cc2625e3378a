package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kenttraders/aimarketops/backend-go/internal/api"
	"github.com/kenttraders/aimarketops/backend-go/internal/app"
	"github.com/kenttraders/aimarketops/backend-go/internal/config"
	"github.com/kenttraders/aimarketops/backend-go/internal/datasource"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository/postgres"
	"github.com/kenttraders/aimarketops/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Configure(os.Stdout, cfg.App.LogFormat)
	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database when something needs it
	opts := app.Options{}
	if needsDatabase(cfg) {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			if cfg.DataSource.Mode == datasource.ModeStored {
				logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
			}
			logger.Log.Warn().Err(err).Msg("Database unavailable, running without persistence")
		} else {
			defer db.Close()
			opts.DB = db
		}
	}

	// Initialize services
	a, err := app.Build(ctx, cfg, opts)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to build restock service")
	}
	defer a.Close()

	// Initialize HTTP servers
	router := api.NewRouter(&api.Services{Restock: a.Service, Recorder: a.Metrics}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	servers := []*http.Server{srv}

	if cfg.Metrics.Enabled {
		servers = append(servers, &http.Server{
			Addr:              ":" + cfg.Metrics.Port,
			Handler:           api.NewOpsRouter(a.Metrics.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	for _, s := range servers {
		go func(s *http.Server) {
			logger.Log.Info().Str("addr", s.Addr).Msg("Starting server")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Fatal().Err(err).Str("addr", s.Addr).Msg("Failed to start server")
			}
		}(s)
	}

	// Wait for interrupt signal to gracefully shut down the servers
	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Str("addr", s.Addr).Msg("Server forced to shutdown")
		}
	}

	logger.Log.Info().Msg("Server exiting")
}

func needsDatabase(cfg *config.Config) bool {
	return cfg.Restock.PersistRuns ||
		cfg.DataSource.HistoryFromDB ||
		cfg.DataSource.Mode == datasource.ModeStored
}
