package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/sm_online_shop/controllers"
	"github.com/HSouheill/sm_online_shop/middleware"
)

// RegisterAuthRoutes sets up the auth pages of one role under /auth/<role>
func RegisterAuthRoutes(e *echo.Echo, auth *controllers.AuthController) {
	authGroup := e.Group("/auth/" + string(auth.Role()))

	// Logged in visitors are sent home from everything but logout
	guest := middleware.RedirectIfAuthenticated()
	authGroup.GET("/sign-up", auth.GetSignUp, guest)
	authGroup.POST("/sign-up", auth.PostSignUp, guest)
	authGroup.GET("/log-in", auth.GetLogIn, guest)
	authGroup.POST("/log-in", auth.PostLogIn, guest)
	authGroup.GET("/reset", auth.GetReset, guest)
	authGroup.POST("/reset", auth.PostReset, guest)
	authGroup.GET("/new-password", auth.GetNewPassword, guest)
	authGroup.POST("/new-password", auth.PostNewPassword, guest)

	authGroup.POST("/logout", auth.PostLogout)
}
