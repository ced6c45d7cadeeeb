package routes

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/config"
	"storefront/libs"
	"storefront/middleware"
	"storefront/repositories"
	"storefront/services"
)

// Deps holds everything the router needs.
type Deps struct {
	Config *config.Config

	Products *services.ProductService
	Orders   *services.OrderService
	Exports  *services.ExportService
	Users    *services.UserService
	Auth     *services.AuthService
	Articles *services.ArticleService

	Storage  libs.Storage
	Limiter  middleware.Limiter
	Counters *middleware.RequestCounters
}

func newStorage(cfg *config.Config) (libs.Storage, error) {
	if cfg.StorageDriver == "cloudinary" {
		return libs.NewCloudinaryStorage(
			os.Getenv("CLOUDINARY_CLOUD_NAME"),
			os.Getenv("CLOUDINARY_API_KEY"),
			os.Getenv("CLOUDINARY_API_SECRET"),
			os.Getenv("CLOUDINARY_URL"),
			cfg.MaxUploadSize,
		)
	}
	if err := os.MkdirAll(cfg.UploadDir, os.ModePerm); err != nil {
		return nil, err
	}
	return libs.NewLocalStorage(cfg.UploadDir, "/uploads", cfg.MaxUploadSize), nil
}

func newCache() libs.Cache {
	if config.RedisClient != nil {
		return libs.NewRedisCache(config.RedisClient, "storefront")
	}
	return libs.NewMemoryCache(10 * time.Minute)
}

func newLimiter(ctx context.Context, cfg *config.Config) middleware.Limiter {
	if cfg.RateLimitBackend == "redis" {
		if config.RedisClient != nil {
			return middleware.NewRedisFixedWindow(config.RedisClient, cfg.RateLimitWindow, cfg.RateLimitMax)
		}
		log.Warn().Msg("RATE_LIMIT_BACKEND=redis but redis is unavailable, using in-memory limiter")
	}
	limiter := middleware.NewFixedWindowLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	limiter.StartJanitor(ctx, time.Minute)
	return limiter
}

// newNotifier returns nil when SMTP is not configured.
func newNotifier() services.OrderNotifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	mailer, err := libs.NewMailer(host, os.Getenv("SMTP_PORT"), os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_FROM"))
	if err != nil {
		log.Warn().Err(err).Msg("mailer disabled")
		return nil
	}
	return mailer
}

// BuildDeps wires repositories and services on top of config.DB and
// config.RedisClient, which must already be connected.
func BuildDeps(ctx context.Context, cfg *config.Config) (*Deps, error) {
	storage, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}
	cache := newCache()

	productRepo := repositories.NewProductRepository(config.DB)
	orderRepo := repositories.NewOrderRepository(config.DB)
	userRepo := repositories.NewUserRepository(config.DB)
	articleRepo := repositories.NewArticleRepository(config.DB)

	return &Deps{
		Config:   cfg,
		Products: services.NewProductService(productRepo, cache, storage, cfg.ProductCacheTTL),
		Orders:   services.NewOrderService(orderRepo, productRepo, userRepo, storage, newNotifier()),
		Exports:  services.NewExportService(productRepo, orderRepo, userRepo, cache, cfg.ExportCacheTTL),
		Users:    services.NewUserService(userRepo, storage),
		Auth:     services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry),
		Articles: services.NewArticleService(articleRepo),
		Storage:  storage,
		Limiter:  newLimiter(ctx, cfg),
		Counters: &middleware.RequestCounters{},
	}, nil
}
