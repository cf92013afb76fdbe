package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/cocreate-backend/internal/config"
	"github.com/ignatzorin/cocreate-backend/internal/http/handlers"
	"github.com/ignatzorin/cocreate-backend/internal/http/middleware"
	"github.com/ignatzorin/cocreate-backend/internal/metrics"
)

// Handlers набор HTTP хэндлеров приложения. Seed может быть nil.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Catalog      *handlers.CatalogHandler
	Media        *handlers.MediaHandler
	Order        *handlers.OrderHandler
	Cart         *handlers.CartHandler
	Wishlist     *handlers.WishlistHandler
	Project      *handlers.ProjectHandler
	Alert        *handlers.AlertHandler
	Kit          *handlers.KitHandler
	Flag         *handlers.FlagHandler
	Dispute      *handlers.DisputeHandler
	Notification *handlers.NotificationHandler
	WS           *handlers.WSHandler
	Health       *handlers.HealthHandler
	Seed         *handlers.SeedHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.AccessTokenParser, limiterStore limiter.Store) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/health/live", h.Health.Live)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")
	auth := middleware.AuthMiddleware(tokens)
	admin := middleware.RequireAdmin()
	id := middleware.UUIDValidator("id")

	if h.Seed != nil && cfg.IsDevelopment() {
		api.POST("/seed", h.Seed.Seed)
	}

	api.GET("/ws", h.WS.Handle)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod), h.Auth.Register)
		authGroup.POST("/login", middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod), h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.GET("/verify", h.Auth.Verify)
	}

	// Публичные маршруты
	api.GET("/users/:id", id, h.User.PublicProfile)
	api.GET("/categories", h.Catalog.ListCategories)
	api.GET("/categories/:id", id, h.Catalog.GetCategory)
	api.GET("/products", h.Catalog.ListProducts)
	api.GET("/products/:id", id, h.Catalog.GetProduct)
	api.POST("/products/:id/views", id, h.Catalog.IncrementViews)
	api.GET("/kits", h.Kit.List)
	api.GET("/kits/active", h.Kit.Active)
	api.GET("/kits/upcoming", h.Kit.Upcoming)
	api.GET("/kits/:slug", h.Kit.Get)
	api.POST("/kits/:slug/views", h.Kit.IncrementViews)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(auth)
	{
		protected.GET("/users/me", h.User.Me)
		protected.PATCH("/users/me", h.User.UpdateMe)
		protected.POST("/users/me/apply-seller", h.User.ApplySeller)

		protected.POST("/products", h.Catalog.CreateProduct)
		protected.PUT("/products/:id", id, h.Catalog.UpdateProduct)
		protected.DELETE("/products/:id", id, h.Catalog.DeleteProduct)
		protected.POST("/products/:id/images", id, h.Media.UploadImage)
		protected.DELETE("/products/:id/images/:imageId", id, middleware.UUIDValidator("imageId"), h.Media.DeleteImage)

		protected.POST("/orders", h.Order.CreateOrder)
		protected.GET("/orders", h.Order.ListOrders)
		protected.GET("/orders/:id", id, h.Order.GetOrder)
		protected.PATCH("/orders/:id/delivery-status", id, h.Order.UpdateDeliveryStatus)
		protected.POST("/orders/:id/confirm", id, h.Order.ConfirmDelivery)

		protected.GET("/cart", h.Cart.GetCart)
		protected.POST("/cart/items", h.Cart.AddItem)
		protected.PUT("/cart/items/:productId", middleware.UUIDValidator("productId"), h.Cart.SetQuantity)
		protected.DELETE("/cart/items/:productId", middleware.UUIDValidator("productId"), h.Cart.RemoveItem)
		protected.DELETE("/cart", h.Cart.Clear)

		protected.GET("/wishlist", h.Wishlist.List)
		protected.POST("/wishlist/toggle", h.Wishlist.Toggle)
		protected.DELETE("/wishlist/:productId", middleware.UUIDValidator("productId"), h.Wishlist.Remove)

		protected.POST("/projects", h.Project.Create)
		protected.GET("/projects", h.Project.List)
		protected.GET("/projects/:id", id, h.Project.Get)
		protected.PUT("/projects/:id", id, h.Project.Update)
		protected.DELETE("/projects/:id", id, h.Project.Delete)
		protected.GET("/projects/:id/orders", id, h.Project.Orders)

		protected.POST("/alerts", h.Alert.Create)
		protected.GET("/alerts", h.Alert.List)
		protected.POST("/alerts/check-matches", h.Alert.CheckMatches)
		protected.POST("/alerts/notifications/:id/read", id, h.Alert.MarkNotificationRead)
		protected.GET("/alerts/:id", id, h.Alert.Get)
		protected.PUT("/alerts/:id", id, h.Alert.Update)
		protected.DELETE("/alerts/:id", id, h.Alert.Delete)
		protected.GET("/alerts/:id/notifications", id, h.Alert.Notifications)

		protected.POST("/flags", h.Flag.Create)
		protected.GET("/flags", h.Flag.List)
		protected.GET("/flags/pending", admin, h.Flag.Pending)
		protected.GET("/flags/:id", id, h.Flag.Get)
		protected.PATCH("/flags/:id/status", admin, id, h.Flag.UpdateStatus)

		protected.POST("/disputes", h.Dispute.CreateDispute)
		protected.GET("/disputes", h.Dispute.ListDisputes)
		protected.GET("/disputes/open", admin, h.Dispute.ListOpen)
		protected.GET("/disputes/:id", id, h.Dispute.GetDispute)
		protected.POST("/disputes/:id/evidence", id, h.Dispute.AddEvidence)
		protected.POST("/disputes/:id/review", admin, id, h.Dispute.Review)
		protected.POST("/disputes/:id/resolve", admin, id, h.Dispute.Resolve)
		protected.POST("/disputes/:id/close", admin, id, h.Dispute.Close)

		protected.GET("/notifications", h.Notification.ListNotifications)
		protected.GET("/notifications/unread/count", h.Notification.CountUnread)
		protected.PUT("/notifications/read-all", h.Notification.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", id, h.Notification.MarkAsRead)
		protected.DELETE("/notifications/:id", id, h.Notification.DeleteNotification)
	}

	// Администрирование
	adminGroup := api.Group("/")
	adminGroup.Use(auth, admin)
	{
		adminGroup.POST("/users/:id/verify-seller", id, h.User.VerifySeller)
		adminGroup.GET("/admin/sellers/pending", h.User.PendingSellers)

		adminGroup.POST("/categories", h.Catalog.CreateCategory)
		adminGroup.PUT("/categories/:id", id, h.Catalog.UpdateCategory)
		adminGroup.DELETE("/categories/:id", id, h.Catalog.DeleteCategory)

		adminGroup.POST("/kits", h.Kit.Create)
		adminGroup.PUT("/kits/:slug", h.Kit.Update)
		adminGroup.DELETE("/kits/:slug", h.Kit.Delete)
	}

	return r
}
