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
	"github.com/rs/zerolog/log"

	"storefront/config"
	_ "storefront/docs"
	"storefront/routes"
)

// @title Storefront API
// @version 1.0
// @description Shop, orders, blog and accounts with CSV import/export, feeds and per-IP rate limiting.

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	config.LoadConfig()
	config.SetupLogger(config.AppConfig.AppEnv, config.AppConfig.LogLevel)

	if config.AppConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDB(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer config.CloseDB()

	if err := config.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	config.ConnectRedis(ctx)
	defer config.CloseRedis()

	deps, err := routes.BuildDeps(ctx, config.AppConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise services")
	}

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", config.AppConfig.Port).
			Str("env", config.AppConfig.AppEnv).
			Str("swagger", config.AppConfig.BaseURL+"/swagger/index.html").
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
