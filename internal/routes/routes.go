package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/masala/internal/config"
	"github.com/example/masala/internal/handlers"
	"github.com/example/masala/internal/middleware"
	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	otpService := services.NewOTPService(db, cfg.OTPTTL, cfg.OTPMaxAttempts)
	smsService := services.NewSMSService(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSenderID)
	notifyService := services.NewNotifyService(rdb)
	loyaltyService := services.NewLoyaltyService(db)
	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db, cartService, loyaltyService, notifyService)

	services.StartCleanupScheduler(otpService, cartService)

	authHandler := handlers.NewAuthHandler(db, cfg, otpService, smsService)
	menuHandler := handlers.NewMenuHandler(db)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(db, orderService)
	staffHandler := handlers.NewStaffHandler(db, orderService)
	paymentHandler := handlers.NewPaymentHandler(orderService)
	profileHandler := handlers.NewProfileHandler(db, loyaltyService)
	wsHandler := handlers.NewWSHandler(notifyService)

	api := app.Group("/api")

	// Auth routes, rate-limited per phone so counters survive restarts.
	auth := api.Group("/auth")
	auth.Post("/send-otp",
		middleware.RateLimit(rdb, "send-otp", cfg.OTPSendLimit, cfg.OTPSendWindow, middleware.PhoneKey),
		authHandler.SendOTP)
	auth.Post("/verify-otp",
		middleware.RateLimit(rdb, "verify-otp", cfg.OTPSendLimit*3, cfg.OTPSendWindow, middleware.PhoneKey),
		authHandler.VerifyOTP)
	auth.Post("/staff-login",
		middleware.RateLimit(rdb, "staff-login", cfg.OTPSendLimit, cfg.OTPSendWindow, middleware.PhoneKey),
		authHandler.StaffLogin)

	// Public menu
	menu := api.Group("/menu")
	menu.Get("/", menuHandler.ListItems)
	menu.Get("/:id", menuHandler.GetItem)

	// Gateway callback, authenticated by merchant key.
	api.Post("/payments/callback",
		middleware.GatewayAuthMiddleware(cfg.GatewayMerchantKey),
		paymentHandler.Callback)

	// Authenticated customer routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/cart", cartHandler.GetCart)
	protected.Post("/cart/items", cartHandler.AddLine)
	protected.Put("/cart/items", cartHandler.UpdateLine)
	protected.Delete("/cart/items/:itemId", cartHandler.RemoveLine)
	protected.Delete("/cart", cartHandler.ClearCart)

	protected.Post("/orders", orderHandler.Checkout)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)
	protected.Post("/orders/:id/feedback", orderHandler.AddFeedback)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Delete("/profile", profileHandler.DeleteProfile)
	protected.Get("/profile/bonus", profileHandler.ListBonusTransactions)

	// Staff console
	staff := api.Group("/staff", middleware.AuthMiddleware(cfg),
		middleware.RequireRole(models.RoleStaff, models.RoleAdmin))
	staff.Get("/orders", staffHandler.ListOrders)
	staff.Put("/orders/:id/status", staffHandler.AdvanceStatus)
	staff.Get("/stats/today", staffHandler.TodayStats)
	staff.Get("/stats/revenue", staffHandler.RevenueReport)

	// Admin menu management
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg),
		middleware.RequireRole(models.RoleAdmin))
	admin.Post("/menu", menuHandler.CreateItem)
	admin.Put("/menu/:id", menuHandler.UpdateItem)
	admin.Delete("/menu/:id", menuHandler.DeleteItem)

	// Live order event streams
	ws := app.Group("/ws", handlers.UpgradeMiddleware(cfg))
	ws.Get("/orders", websocket.New(wsHandler.HandleUserOrders))
	ws.Get("/staff", websocket.New(wsHandler.HandleStaffOrders))
}
