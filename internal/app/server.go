package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/handlers"
	"github.com/ivan2214/ecommerce/internal/model"
	"github.com/ivan2214/ecommerce/internal/ratelimit"
	"github.com/ivan2214/ecommerce/internal/service"
)

// NewServer opens the database, migrates the schema and wires every route.
// The returned cleanup closes external connections.
func NewServer(cfg Config) (*gin.Engine, func(), error) {
	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{
		// Products may exist without a category, so referential checks
		// stay in the application.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	mailer := service.NewMailer(service.SMTPConfig{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		From:          cfg.SMTPFrom,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	tokens := service.NewTokenService(db, service.TokenConfig{
		VerificationTTL: cfg.VerificationTTL,
		ResetTTL:        cfg.ResetTTL,
		TwoFactorTTL:    cfg.TwoFactorTTL,
		OTPDigits:       cfg.OTPDigits,
	})
	auth := service.NewAuthService(db, tokens, mailer, service.SessionConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.SessionTTL,
	})
	cart := service.NewCartService(db)
	checkout := service.NewCheckoutService(db, mailer)
	catalog := service.NewCatalogService(db)
	orders := service.NewOrderService(db)
	favorites := service.NewFavoriteService(db)
	reviews := service.NewReviewService(db)

	limiter := ratelimit.New(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)

	authH := handlers.NewAuthHTTP(auth, int(cfg.SessionTTL.Seconds()), cfg.CookieSecure, cfg.OAuthCallbackSecret)
	cartH := handlers.NewCartHTTP(cart, checkout)
	catalogH := handlers.NewCatalogHTTP(catalog, favorites, reviews)
	orderH := handlers.NewOrderHTTP(orders)
	adminH := handlers.NewAdminHTTP(catalog, orders)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")

	// Public catalog.
	api.GET("/products", catalogH.ListProducts)
	api.GET("/products/:id", catalogH.GetProduct)
	api.GET("/categories", catalogH.ListCategories)

	// Auth; the brute-forceable endpoints sit behind the limiter.
	api.POST("/auth/register", handlers.RateLimit(limiter, "register"), authH.Register)
	api.POST("/auth/login", handlers.RateLimit(limiter, "login"), authH.Login)
	api.POST("/auth/oauth", authH.OAuth)
	api.GET("/auth/verify", authH.Verify)
	api.POST("/auth/resend", handlers.RateLimit(limiter, "resend"), authH.Resend)
	api.POST("/auth/reset-request", handlers.RateLimit(limiter, "reset"), authH.RequestPasswordReset)
	api.POST("/auth/reset", authH.ResetPassword)
	api.POST("/auth/logout", authH.Logout)

	// Signed-in users.
	authed := api.Group("", handlers.RequireAuth(auth))
	authed.GET("/me", authH.Me)
	authed.GET("/cart", cartH.Get)
	authed.POST("/cart/items", cartH.AddItem)
	authed.PATCH("/cart/items/:id", cartH.UpdateItem)
	authed.DELETE("/cart/items/:id", cartH.RemoveItem)
	authed.POST("/checkout", cartH.PlaceOrder)
	authed.GET("/orders", orderH.List)
	authed.GET("/orders/:id", orderH.Get)
	authed.GET("/favorites", catalogH.ListFavorites)
	authed.POST("/products/:id/favorite", catalogH.ToggleFavorite)
	authed.POST("/products/:id/reviews", catalogH.CreateReview)

	// Admin panel.
	admin := api.Group("/admin", handlers.RequireAuth(auth), handlers.RequireAdmin())
	admin.POST("/products", adminH.CreateProduct)
	admin.PUT("/products/:id", adminH.UpdateProduct)
	admin.DELETE("/products/:id", adminH.DeleteProduct)
	admin.POST("/categories", adminH.CreateCategory)
	admin.GET("/orders", adminH.ListOrders)
	admin.PATCH("/orders/:id/status", adminH.UpdateOrderStatus)

	cleanup := func() {
		if s, err := db.DB(); err == nil {
			_ = s.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return r, cleanup, nil
}
