package router

import (
	"time"

	"reverie/config"
	"reverie/internal/handler"
	"reverie/internal/middleware"
	"reverie/internal/repository"
	"reverie/internal/service"
	"reverie/pkg/cloudinary"
	"reverie/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto a gin engine. The
// subscription service is returned for the background expiry sweep.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) (*gin.Engine, *service.SubscriptionService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	finRepo := repository.NewFinancialRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	charRepo := repository.NewCharacterRepository(db)
	optionReg := repository.NewOptionRegistry(db)

	coinremitter := payment.NewCoinremitter(cfg.Coinremitter.BaseURL, cfg.Coinremitter.APIKey,
		cfg.Coinremitter.Password, cfg.Coinremitter.Coin)
	nowpayments := payment.NewNOWPayments(cfg.NOWPayments.BaseURL, cfg.NOWPayments.APIKey,
		cfg.NOWPayments.IPNSecret, cfg.NOWPayments.Email, cfg.NOWPayments.Password)

	tokenSvc := service.NewTokenService(db)
	subSvc := service.NewSubscriptionService(db, tokenSvc, finRepo, nowpayments)
	purchaseSvc := service.NewTokenPurchaseService(db, tokenSvc, finRepo)
	authSvc := service.NewAuthService(cfg, userRepo)

	authH := handler.NewAuthHandler(authSvc)
	tokenH := handler.NewTokenHandler(cfg, tokenSvc)
	paymentH := handler.NewPaymentHandler(cfg, coinremitter, nowpayments, subSvc)
	subH := handler.NewSubscriptionHandler(subSvc)
	webhookH := handler.NewWebhookHandler(cfg, coinremitter, nowpayments, subSvc, purchaseSvc, finRepo)
	ticketH := handler.NewTicketHandler(ticketRepo)
	finH := handler.NewFinancialHandler(finRepo)
	charH := handler.NewCharacterHandler(charRepo, cloud)
	optionH := handler.NewCharacterOptionsHandler(optionReg)
	roleH := handler.NewRoleHandler(roleRepo)

	authLimiter := middleware.NewInMemoryRateLimiter(10, time.Minute)
	requireAuth := middleware.AuthRequired(&cfg.JWT)
	perm := func(resource, action string) gin.HandlerFunc {
		return middleware.RequirePermission(roleRepo, resource, action)
	}

	api := r.Group("/api/v1")

	// Provider callbacks. Unauthenticated; NOWPayments verifies its HMAC
	// signature, Coinremitter correlates via custom data.
	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/coinremitter", webhookH.Coinremitter)
		webhooks.POST("/nowpayments", webhookH.NOWPayments)
	}

	authGroup := api.Group("/auth", middleware.RateLimit(authLimiter))
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/refresh", authH.Refresh)
		authGroup.POST("/change-password", requireAuth, authH.ChangePassword)
	}

	user := api.Group("", requireAuth)
	{
		user.GET("/tokens/balance", tokenH.GetBalance)
		user.GET("/tokens/transactions", tokenH.GetTransactions)
		user.GET("/tokens/packages", tokenH.ListPackages)
		user.GET("/subscriptions/plans", tokenH.ListPlans)

		user.POST("/payments/subscription", paymentH.InitiateSubscription)
		user.POST("/payments/tokens", paymentH.InitiateTokenPurchase)

		user.GET("/me/subscription", subH.GetMine)
		user.DELETE("/me/subscription", subH.Cancel)

		user.POST("/tickets", ticketH.Create)
		user.GET("/tickets", ticketH.ListMine)
		user.GET("/tickets/:id", ticketH.Get)
		user.POST("/tickets/:id/comments", ticketH.AddComment)

		user.POST("/characters", charH.Create)
		user.GET("/characters", charH.List)
		user.GET("/characters/mine", charH.ListMine)
		user.GET("/characters/:id", charH.Get)
		user.PUT("/characters/:id", charH.Update)
		user.DELETE("/characters/:id", charH.Delete)
		user.POST("/characters/:id/avatar", charH.UploadAvatar)

		user.GET("/character-options/types", optionH.ListTypes)
		user.GET("/character-options/:type", optionH.List)
	}

	admin := api.Group("/admin", requireAuth)
	{
		admin.GET("/tickets", perm("tickets", "read"), ticketH.List)
		admin.POST("/tickets/:id/assign", perm("tickets", "assign"), ticketH.Assign)
		admin.PUT("/tickets/:id/status", perm("tickets", "update"), ticketH.UpdateStatus)
		admin.PUT("/tickets/:id/priority", perm("tickets", "update"), ticketH.UpdatePriority)

		admin.GET("/financials", perm("financial", "read"), finH.List)
		admin.GET("/financials/summary", perm("financial", "read"), finH.Summary)
		admin.GET("/financials/categories", perm("financial", "read"), finH.ListCategories)
		admin.POST("/financials", perm("financial", "create"), finH.Create)
		admin.PUT("/financials/:id", perm("financial", "update"), finH.Update)
		admin.DELETE("/financials/:id", perm("financial", "delete"), finH.Delete)

		admin.POST("/character-options/:type", perm("characters", "create"), optionH.Create)
		admin.PUT("/character-options/:type/reorder", perm("characters", "update"), optionH.Reorder)
		admin.PUT("/character-options/:type/:id", perm("characters", "update"), optionH.Update)
		admin.DELETE("/character-options/:type/:id", perm("characters", "delete"), optionH.Delete)

		admin.POST("/users/:id/tokens", perm("users", "update"), tokenH.AdjustBalance)

		admin.GET("/roles", perm("roles", "read"), roleH.List)
		admin.POST("/roles", perm("roles", "create"), roleH.Create)
		admin.PUT("/roles/:name", perm("roles", "update"), roleH.Update)
		admin.DELETE("/roles/:name", perm("roles", "delete"), roleH.Delete)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r, subSvc
}
