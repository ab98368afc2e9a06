package router

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"inkcopilot/config"
	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
	"inkcopilot/internal/checkout"
	"inkcopilot/internal/handler"
	"inkcopilot/internal/middleware"
	"inkcopilot/internal/repository"
	"inkcopilot/internal/ws"
	"inkcopilot/pkg/cloudinary"
)

// Deps are the long-lived pieces owned by the server process.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	API      *apiclient.Client
	Registry *checkout.Registry
	Hub      *ws.Hub
	Limiter  *middleware.InMemoryRateLimiter
	Cloud    cloudinary.Client // nil disables avatar upload
	Clock    clockwork.Clock
	Logger   zerolog.Logger
}

var (
	publicPages = []string{"/", "/pricing", "/about", "/privacy", "/terms", "/refund-policy"}
	guestPages  = []string{"/login", "/register", "/forgot-password", "/reset-password"}
)

func Setup(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLog(d.Logger))
	r.Use(gin.Recovery())
	if d.Limiter != nil {
		r.Use(middleware.RateLimit(d.Limiter))
	}

	// Repositories
	attemptRepo := repository.NewAttemptRepository(d.DB)

	store := auth.NewCookieStore(cfg.Auth, d.Clock)
	sessionMw := middleware.SessionRequired(store)
	guestMw := middleware.GuestOnly(store)

	// Handlers
	pageHandler := handler.NewPageHandler(cfg.Server.StaticDir)
	healthHandler := handler.NewHealthHandler(d.DB)
	pricingHandler := handler.NewPricingHandler(cfg.Pricing)
	authHandler := handler.NewAuthHandler(d.API, store, d.Logger)
	checkoutHandler := handler.NewCheckoutHandler(d.Registry, d.API, store, attemptRepo, cfg.Pricing, d.Logger)
	dashboardHandler := handler.NewDashboardHandler(d.API, store)
	accountHandler := handler.NewAccountHandler(d.API, store, d.Cloud, cfg.Cloudinary.Folder, d.Logger)
	billingHandler := handler.NewBillingHandler(d.API, store, cfg.Pricing, d.Logger)
	notificationHandler := handler.NewNotificationHandler(d.API, store)

	r.GET("/healthz", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// SPA shell
	r.Static("/assets", filepath.Join(cfg.Server.StaticDir, "assets"))
	r.StaticFile("/favicon.ico", filepath.Join(cfg.Server.StaticDir, "favicon.ico"))
	for _, p := range publicPages {
		r.GET(p, pageHandler.Serve)
	}
	for _, p := range guestPages {
		r.GET(p, guestMw, pageHandler.Serve)
	}
	r.GET("/checkout", sessionMw, pageHandler.Serve)
	r.GET("/dashboard", sessionMw, pageHandler.Serve)
	r.GET("/dashboard/*rest", sessionMw, pageHandler.Serve)

	api := r.Group("/api/v1")
	{
		api.GET("/pricing/plans", pricingHandler.Plans)
		api.GET("/pricing/quote", pricingHandler.Quote)
		api.POST("/format", handler.Format)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", authHandler.Me)
		}

		co := api.Group("/checkout")
		co.Use(sessionMw)
		{
			co.POST("", checkoutHandler.Open)
			co.GET("/attempts", checkoutHandler.Attempts)
			co.GET("/attempts/:reference", checkoutHandler.Attempt)
			co.GET("/:id", checkoutHandler.Get)
			co.POST("/:id/submit", checkoutHandler.Submit)
			co.DELETE("/:id", checkoutHandler.Close)
		}

		dash := api.Group("/dashboard")
		dash.Use(sessionMw)
		{
			dash.GET("/stats", dashboardHandler.Stats)
			dash.GET("/jobs", dashboardHandler.Jobs)
			dash.POST("/jobs", dashboardHandler.CreateJob)
			dash.GET("/posts", dashboardHandler.Posts)
			dash.POST("/posts", dashboardHandler.CreatePost)
			dash.GET("/posts/:id", dashboardHandler.Post)
			dash.PUT("/posts/:id", dashboardHandler.UpdatePost)
			dash.DELETE("/posts/:id", dashboardHandler.DeletePost)
			dash.GET("/sites", dashboardHandler.Sites)
			dash.POST("/sites", dashboardHandler.CreateSite)
			dash.GET("/sites/:id", dashboardHandler.Site)
			dash.PUT("/sites/:id", dashboardHandler.UpdateSite)
			dash.DELETE("/sites/:id", dashboardHandler.DeleteSite)
			dash.GET("/usage", dashboardHandler.Usage)
			dash.GET("/analytics", dashboardHandler.Analytics)

			dash.GET("/account", accountHandler.Profile)
			dash.PUT("/account", accountHandler.UpdateProfile)
			dash.PUT("/account/billing", accountHandler.UpdateBilling)
			dash.POST("/account/avatar", accountHandler.UploadAvatar)

			dash.GET("/billing", billingHandler.Details)
			dash.GET("/billing/transactions", billingHandler.Transactions)
			dash.POST("/billing/payment-method", billingHandler.UpdatePaymentMethod)
			dash.POST("/billing/change-plan", billingHandler.ChangePlan)
			dash.GET("/billing/subscription", billingHandler.Subscription)

			dash.GET("/notifications", notificationHandler.List)
			dash.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
			dash.PATCH("/notifications/mark-all-read", notificationHandler.MarkAllRead)
		}
	}

	r.GET("/ws/checkout", sessionMw, ws.UpgradeCheckoutWS(d.Registry, d.Hub, d.Logger))

	r.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/ws/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		pageHandler.Serve(c)
	})

	return r
}
