package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/sm_online_shop/controllers"
	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/session"
)

// RegisterAdminRoutes sets up product management and the sales report
func RegisterAdminRoutes(e *echo.Echo, admin *controllers.AdminController, sessions *session.Store) {
	adminGroup := e.Group("/admin", middleware.RequireRole(models.RoleAdmin, sessions))

	adminGroup.GET("/products", admin.GetProducts)
	adminGroup.GET("/products/category/:category", admin.GetProducts)
	adminGroup.GET("/add-product", admin.GetAddProduct)
	adminGroup.POST("/add-product", admin.PostAddProduct)
	adminGroup.GET("/edit-product/:id", admin.GetEditProduct)
	adminGroup.POST("/edit-product", admin.PostEditProduct)
	adminGroup.POST("/delete-product", admin.PostDeleteProduct)

	adminGroup.GET("/sales", admin.GetSales)
	adminGroup.GET("/sales/live", admin.GetLiveSales)
}
