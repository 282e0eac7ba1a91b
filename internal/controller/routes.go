package controller

import (
	"storefront-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Orders   *OrderController
	Checkout *CheckoutController
	Auth     *AuthController
	Users    *UserController
	Products *ProductController
	Admin    *AdminController
}

// RegisterRoutes arma el router. auth es el middleware de token; los handlers nil no se registran.
func RegisterRoutes(r gin.IRouter, h Handlers, auth gin.HandlerFunc) {
	// Públicas
	r.POST("/checkout/webhook", h.Checkout.Webhook)

	if h.Auth != nil {
		r.POST("/auth/register", h.Auth.Register)
		r.POST("/auth/login", h.Auth.Login)
		r.POST("/auth/logout", h.Auth.Logout)
		r.GET("/auth/google/login", h.Auth.GoogleLogin)
		r.GET("/auth/google/callback", h.Auth.GoogleCallback)
	}

	if h.Products != nil {
		r.GET("/products", h.Products.List)
		r.GET("/products/:id", h.Products.Get)
	}

	// Requieren token
	priv := r.Group("/")
	priv.Use(auth)

	priv.POST("/orders", h.Orders.Create)
	priv.GET("/orders", h.Orders.ListMine)
	priv.GET("/orders/:orderId", h.Orders.Get)
	priv.PATCH("/orders/:orderId/status", h.Orders.UpdateStatus)
	priv.POST("/checkout/session", h.Checkout.CreateSession)

	if h.Users != nil {
		priv.GET("/users/me", h.Users.Me)
		priv.PATCH("/users/me", h.Users.UpdateMe)
	}

	// Admin
	admin := priv.Group("/")
	admin.Use(middleware.AdminOnly())
	admin.GET("/admin/orders", h.Orders.ListAll)
	if h.Admin != nil {
		admin.GET("/admin/stats", h.Admin.Stats)
	}
	if h.Products != nil {
		admin.POST("/products", h.Products.Create)
		admin.PUT("/products/:id", h.Products.Update)
		admin.DELETE("/products/:id", h.Products.Delete)
	}
}
