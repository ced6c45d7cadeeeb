package routes

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/controllers"
	"storefront/middleware"
	"storefront/models"
)

const sessionCookieName = "storefront_session"

// NewRouter builds the engine with the global middleware chain and all routes.
func NewRouter(deps *Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(deps.Config.OriginURL))
	router.Use(middleware.RateLimitMiddleware(deps.Limiter, deps.Counters))
	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps *Deps) {
	cfg := deps.Config

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 14 * 24 * 3600, HttpOnly: true, Secure: cfg.IsProduction()})
	router.Use(sessions.Sessions(sessionCookieName, store))

	productCtrl := controllers.NewProductController(deps.Products, deps.Exports, cfg.MaxUploadSize, cfg.MaxCSVUploadSize)
	orderCtrl := controllers.NewOrderController(deps.Orders, deps.Exports, cfg.MaxCSVUploadSize)
	apiCtrl := controllers.NewAPIController(deps.Products, deps.Orders, deps.Users, cfg.MaxCSVUploadSize)
	articleCtrl := controllers.NewArticleController(deps.Articles)
	authCtrl := controllers.NewAuthController(deps.Auth, deps.Users)
	userCtrl := controllers.NewUserController(deps.Users, cfg.MaxUploadSize)
	sessionCtrl := controllers.NewSessionController(cfg.IsProduction())
	feedCtrl := controllers.NewFeedController(deps.Products, deps.Articles, cfg.BaseURL)
	reqCtrl := controllers.NewRequestDataController(deps.Storage, cfg.MaxCSVUploadSize)

	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	staff := middleware.StaffMiddleware()

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", healthHandler(deps))
	if cfg.StorageDriver != "cloudinary" {
		router.Static("/uploads", cfg.UploadDir)
	}

	shop := router.Group("/shop")
	{
		shop.GET("/products", productCtrl.ListProducts)
		shop.GET("/products/export", productCtrl.ExportProducts)
		shop.GET("/products/latest/feed", feedCtrl.LatestProducts)
		shop.GET("/products/:id", productCtrl.GetProduct)

		auth := shop.Group("", requireAuth)
		auth.POST("/products", productCtrl.CreateProduct)
		auth.PATCH("/products/:id", productCtrl.UpdateProduct)
		auth.DELETE("/products/:id", productCtrl.ArchiveProduct)

		auth.GET("/orders", orderCtrl.ListOrders)
		auth.GET("/orders/export", staff, orderCtrl.ExportOrders)
		auth.GET("/orders/:id", middleware.RequirePermission(models.PermViewOrder), orderCtrl.GetOrder)
		auth.POST("/orders", orderCtrl.CreateOrder)
		auth.PATCH("/orders/:id", orderCtrl.UpdateOrder)
		auth.DELETE("/orders/:id", orderCtrl.DeleteOrder)
		auth.GET("/users/:id/orders", orderCtrl.UserOrders)
		auth.GET("/users/:id/orders/export", orderCtrl.UserOrdersExport)
	}

	api := router.Group("/api")
	{
		api.GET("/products", apiCtrl.ListProducts)
		api.GET("/products/download_csv", apiCtrl.DownloadProductsCSV)
		api.GET("/products/:id", apiCtrl.GetProduct)

		auth := api.Group("", requireAuth)
		auth.POST("/products", apiCtrl.CreateProduct)
		auth.POST("/products/upload_csv", apiCtrl.UploadProductsCSV)
		auth.PUT("/products/:id", apiCtrl.UpdateProduct)
		auth.PATCH("/products/:id", apiCtrl.UpdateProduct)
		auth.DELETE("/products/:id", apiCtrl.DeleteProduct)

		auth.GET("/orders", apiCtrl.ListOrders)
		auth.POST("/orders", apiCtrl.CreateOrder)
		auth.GET("/orders/:id", apiCtrl.GetOrder)
		auth.PUT("/orders/:id", apiCtrl.UpdateOrder)
		auth.PATCH("/orders/:id", apiCtrl.UpdateOrder)
		auth.DELETE("/orders/:id", apiCtrl.DeleteOrder)

		auth.GET("/groups", apiCtrl.ListGroups)
		auth.POST("/groups", staff, apiCtrl.CreateGroup)
	}

	blog := router.Group("/blog")
	{
		blog.GET("/articles", articleCtrl.ListArticles)
		blog.GET("/articles/latest/feed", feedCtrl.LatestArticles)
		blog.GET("/articles/:id", articleCtrl.GetArticle)

		editors := blog.Group("", requireAuth, staff)
		editors.POST("/articles", articleCtrl.CreateArticle)
		editors.PATCH("/articles/:id", articleCtrl.UpdateArticle)
		editors.DELETE("/articles/:id", articleCtrl.DeleteArticle)
	}

	accounts := router.Group("/auth")
	{
		accounts.POST("/register", authCtrl.Register)
		accounts.POST("/login", authCtrl.Login)
		accounts.POST("/logout", authCtrl.Logout)
		accounts.GET("/hello", optionalAuth, authCtrl.Hello)
		accounts.GET("/cookie/set", sessionCtrl.SetCookie)
		accounts.GET("/cookie/get", sessionCtrl.GetCookie)

		auth := accounts.Group("", requireAuth)
		auth.GET("/me", authCtrl.Me)
		auth.GET("/session/set", middleware.RequirePermission(models.PermViewProfile), sessionCtrl.SetSession)
		auth.GET("/session/get", sessionCtrl.GetSession)
	}

	users := router.Group("/users", requireAuth)
	{
		users.GET("", userCtrl.ListUsers)
		users.GET("/:id", userCtrl.GetUser)
		users.PATCH("/:id", userCtrl.UpdateUser)
	}

	admin := router.Group("/admin", requireAuth, staff)
	{
		admin.POST("/products/archive", productCtrl.MarkArchived)
		admin.POST("/products/unarchive", productCtrl.MarkUnarchived)
		admin.POST("/products/import", productCtrl.ImportCSV)
		admin.POST("/orders/import", orderCtrl.ImportCSV)
	}

	req := router.Group("/req")
	{
		req.GET("/query", reqCtrl.Query)
		req.POST("/upload", reqCtrl.Upload)
		req.POST("/bio", reqCtrl.UserBio)
	}
}

func healthHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{
			"status":    "ok",
			"requests":  deps.Counters.Stats(),
			"ratelimit": gin.H{"window": deps.Config.RateLimitWindow.String(), "max": deps.Config.RateLimitMax},
		}
		if tracked, ok := deps.Limiter.(interface{ Clients() int }); ok {
			data["tracked_clients"] = tracked.Clients()
		}
		c.JSON(http.StatusOK, data)
	}
}
