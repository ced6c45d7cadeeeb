package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storefront/config"
	"storefront/models"
	"storefront/routes"
)

var (
	router  *gin.Engine
	initErr error
	once    sync.Once
)

func initApp() {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		config.LoadConfig()
		config.SetupLogger("production", config.AppConfig.LogLevel)

		ctx := context.Background()
		if initErr = config.ConnectDB(ctx); initErr != nil {
			log.Error().Err(initErr).Msg("failed to connect database")
			return
		}
		config.ConnectRedis(ctx)

		deps, err := routes.BuildDeps(ctx, config.AppConfig)
		if err != nil {
			initErr = err
			log.Error().Err(err).Msg("failed to initialise services")
			return
		}
		router = routes.NewRouter(deps)
	})
}

// Handler is the serverless entry point; the app is initialised on the first
// request and reused afterwards.
func Handler(w http.ResponseWriter, r *http.Request) {
	initApp()
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Message: "Service unavailable",
			Error:   initErr.Error(),
		})
		return
	}
	router.ServeHTTP(w, r)
}
