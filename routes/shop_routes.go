package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/sm_online_shop/controllers"
	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/session"
)

// RegisterShopRoutes sets up the catalog and the customer's cart and orders
func RegisterShopRoutes(e *echo.Echo, shop *controllers.ShopController, sessions *session.Store) {
	// Public catalog
	e.GET("/", shop.GetIndex)
	e.GET("/products", shop.GetProducts)
	e.GET("/products/:id", shop.GetProduct)
	e.GET("/products/category/:category", shop.GetCategoryProducts)

	// Customer only. Per-route middleware keeps unknown paths a plain 404.
	requireUser := middleware.RequireRole(models.RoleUser, sessions)
	e.GET("/add-to-cart/:id", shop.GetAddToCart, requireUser)
	e.GET("/cart", shop.GetCart, requireUser)
	e.POST("/cart", shop.PostCart, requireUser)
	e.POST("/cart-delete-item", shop.PostCartDeleteProduct, requireUser)
	e.POST("/create-order", shop.PostOrder, requireUser)
	e.GET("/orders", shop.GetOrders, requireUser)
	e.GET("/orders/:id", shop.GetInvoice, requireUser)
}
