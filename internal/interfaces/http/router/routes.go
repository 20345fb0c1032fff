package router

import (
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted under the versioned API
type Handlers struct {
	System       *handler.SystemHandler
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	UserAdmin    *handler.UserAdminHandler
	Catalog      *handler.CatalogHandler
	Category     *handler.CategoryHandler
	Product      *handler.ProductHandler
	Stock        *handler.StockHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	Subscription *handler.SubscriptionHandler
	Content      *handler.ContentHandler
	Dispute      *handler.DisputeHandler
	Message      *handler.MessageHandler
	Dashboard    *handler.DashboardHandler
	Function     *handler.FunctionHandler
}

// Guards are the access middleware the route groups are built with
type Guards struct {
	// Authenticated requires a valid access token
	Authenticated gin.HandlerFunc
	// Role returns a middleware admitting only the given roles
	Role func(roles ...identity.Role) gin.HandlerFunc
	// AuthLimit throttles the credential endpoints
	AuthLimit gin.HandlerFunc
}

// APIGroups builds the route groups of the marketplace API
func APIGroups(h Handlers, g Guards) []RouteRegistrar {
	authLimit := g.AuthLimit
	if authLimit == nil {
		authLimit = func(c *gin.Context) { c.Next() }
	}
	buyer := g.Role(identity.RoleBuyer)
	farmer := g.Role(identity.RoleFarmer)
	admin := g.Role(identity.RoleAdmin)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authLimit, h.Auth.Register)
	authRoutes.POST("/login", authLimit, h.Auth.Login)
	authRoutes.POST("/refresh", authLimit, h.Auth.Refresh)
	authRoutes.POST("/logout", g.Authenticated, h.Auth.Logout)
	authRoutes.GET("/me", g.Authenticated, h.Auth.Me)

	profile := NewDomainGroup("profile", "/me").Use(g.Authenticated)
	profile.GET("", h.Profile.Get)
	profile.PUT("", h.Profile.Update)
	profile.PUT("/password", h.Profile.ChangePassword)
	profile.POST("/avatar/upload-url", h.Profile.RequestAvatarUpload)
	profile.POST("/avatar/confirm", h.Profile.ConfirmAvatar)
	profile.DELETE("/avatar", h.Profile.RemoveAvatar)

	// Public storefront
	catalogRoutes := NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", h.Catalog.Browse)
	catalogRoutes.GET("/products/:idOrSlug", h.Catalog.GetProduct)
	catalogRoutes.GET("/categories", h.Catalog.ListCategories)

	contentRoutes := NewDomainGroup("content", "/content")
	contentRoutes.GET("/posts", h.Content.ListPublishedPosts)
	contentRoutes.GET("/posts/:slug", h.Content.GetPublishedPost)
	contentRoutes.GET("/events", h.Content.ListUpcomingEvents)

	plans := NewDomainGroup("plans", "/plans")
	plans.GET("", h.Subscription.ListPlans)

	// Buyer
	cartRoutes := NewDomainGroup("cart", "/cart").Use(g.Authenticated, buyer)
	cartRoutes.GET("", h.Cart.Get)
	cartRoutes.DELETE("", h.Cart.Clear)
	cartRoutes.POST("/items", h.Cart.AddItem)
	cartRoutes.PUT("/items/:id", h.Cart.UpdateItem)
	cartRoutes.DELETE("/items/:id", h.Cart.RemoveItem)

	checkout := NewDomainGroup("checkout", "/checkout").Use(g.Authenticated, buyer)
	checkout.POST("/shipping", h.Checkout.Shipping)
	checkout.POST("/quote", h.Checkout.Quote)
	checkout.POST("/orders", h.Checkout.PlaceOrder)

	orders := NewDomainGroup("orders", "/orders").Use(g.Authenticated, buyer)
	orders.GET("", h.Order.ListMine)
	orders.GET("/:id", h.Order.GetMine)
	orders.POST("/:id/cancel", h.Order.CancelMine)
	orders.POST("/:id/disputes", h.Dispute.Open)

	disputes := NewDomainGroup("disputes", "/disputes").Use(g.Authenticated, buyer)
	disputes.GET("", h.Dispute.ListMine)

	// Farmer
	farm := NewDomainGroup("farmer", "/farmer").Use(g.Authenticated, farmer)
	farm.GET("/dashboard", h.Dashboard.Farmer)

	products := farm.Group("farmer-products", "/products")
	products.POST("", h.Product.Create)
	products.GET("", h.Product.List)
	products.GET("/:id", h.Product.Get)
	products.PUT("/:id", h.Product.Update)
	products.DELETE("/:id", h.Product.Delete)
	products.POST("/:id/publish", h.Product.Publish)
	products.POST("/:id/unpublish", h.Product.Unpublish)
	products.POST("/:id/archive", h.Product.Archive)
	products.POST("/:id/restore", h.Product.Restore)
	products.POST("/:id/variants", h.Product.AddVariant)
	products.PUT("/:id/variants/:variant_id", h.Product.UpdateVariant)
	products.DELETE("/:id/variants/:variant_id", h.Product.RemoveVariant)

	farm.GET("/stock", h.Stock.List)
	farm.POST("/stock/:variant_id/restock", h.Stock.Restock)
	farm.POST("/stock/:variant_id/adjust", h.Stock.Adjust)
	farm.PUT("/stock/:variant_id/threshold", h.Stock.SetThreshold)
	farm.GET("/movements", h.Stock.ListMovements)

	farmOrders := farm.Group("farmer-orders", "/orders")
	farmOrders.GET("", h.Order.ListForFarmer)
	farmOrders.GET("/:id", h.Order.GetForFarmer)
	farmOrders.POST("/:id/confirm", h.Order.Confirm)
	farmOrders.POST("/:id/ship", h.Order.Ship)
	farmOrders.POST("/:id/deliver", h.Order.Deliver)
	farmOrders.POST("/:id/mark-paid", h.Order.MarkPaid)
	farmOrders.POST("/:id/cancel", h.Order.CancelForFarmer)

	farmSub := farm.Group("farmer-subscription", "/subscription")
	farmSub.GET("", h.Subscription.GetMine)
	farmSub.POST("", h.Subscription.Subscribe)
	farmSub.PUT("/plan", h.Subscription.ChangePlan)
	farmSub.POST("/cancel", h.Subscription.Cancel)

	posts := farm.Group("farmer-posts", "/posts")
	posts.POST("", h.Content.CreatePost)
	posts.GET("", h.Content.ListMyPosts)
	posts.GET("/:id", h.Content.GetMyPost)
	posts.PUT("/:id", h.Content.UpdatePost)
	posts.DELETE("/:id", h.Content.DeletePost)
	posts.POST("/:id/publish", h.Content.PublishPost)
	posts.POST("/:id/unpublish", h.Content.UnpublishPost)

	events := farm.Group("farmer-events", "/events")
	events.POST("", h.Content.CreateEvent)
	events.GET("", h.Content.ListMyEvents)
	events.GET("/:id", h.Content.GetMyEvent)
	events.PUT("/:id", h.Content.UpdateEvent)
	events.DELETE("/:id", h.Content.DeleteEvent)
	events.POST("/:id/cancel", h.Content.CancelEvent)

	// Any signed-in user
	messages := NewDomainGroup("messages", "/messages").Use(g.Authenticated)
	messages.POST("", h.Message.Send)
	messages.GET("", h.Message.Inbox)
	messages.GET("/:id", h.Message.Get)
	messages.POST("/:id/read", h.Message.MarkRead)
	messages.POST("/:id/archive", h.Message.Archive)

	functions := NewDomainGroup("functions", "/functions").Use(g.Authenticated)
	functions.POST("/data-export", h.Function.DataExport)
	functions.POST("/inventory-export", h.Function.InventoryExport)
	functions.POST("/account-deletion", h.Function.AccountDeletion)
	functions.GET("/jobs", h.Function.ListJobs)
	functions.GET("/jobs/:id", h.Function.GetJob)

	// Admin
	adm := NewDomainGroup("admin", "/admin").Use(g.Authenticated, admin)
	adm.GET("/dashboard", h.Dashboard.Admin)
	adm.GET("/orders", h.Order.ListAll)

	users := adm.Group("admin-users", "/users")
	users.GET("", h.UserAdmin.List)
	users.GET("/:id", h.UserAdmin.Get)
	users.POST("/:id/suspend", h.UserAdmin.Suspend)
	users.POST("/:id/reactivate", h.UserAdmin.Reactivate)
	users.PUT("/:id/role", h.UserAdmin.ChangeRole)

	categories := adm.Group("admin-categories", "/categories")
	categories.POST("", h.Category.Create)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", h.Category.Delete)

	admDisputes := adm.Group("admin-disputes", "/disputes")
	admDisputes.GET("", h.Dispute.List)
	admDisputes.GET("/:id", h.Dispute.Get)
	admDisputes.POST("/:id/review", h.Dispute.Review)
	admDisputes.POST("/:id/resolve", h.Dispute.Resolve)
	admDisputes.POST("/:id/reject", h.Dispute.Reject)

	admMessages := adm.Group("admin-messages", "/messages")
	admMessages.GET("", h.Message.List)
	admMessages.POST("/:id/flag", h.Message.Flag)
	admMessages.POST("/:id/unflag", h.Message.Unflag)
	admMessages.DELETE("/:id", h.Message.Delete)

	admSubs := adm.Group("admin-subscriptions", "/subscriptions")
	admSubs.GET("", h.Subscription.List)
	admSubs.POST("/:id/suspend", h.Subscription.Suspend)
	admSubs.POST("/:id/reinstate", h.Subscription.Reinstate)

	return []RouteRegistrar{
		system, authRoutes, profile, catalogRoutes, contentRoutes, plans,
		cartRoutes, checkout, orders, disputes, farm, messages, functions, adm,
	}
}
