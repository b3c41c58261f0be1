// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/session"
	"github.com/labstack/echo/v4"
)

// RequireRole lets through only requests authenticated as role.
// Everyone else is sent to that role's log-in page with a flash error.
func RequireRole(role models.Role, flashes *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := GetAccountID(c); ok && GetRole(c) == role {
				return next(c)
			}

			c.Logger().Infof("RequireRole middleware - Path: %s, Role: %q, Required: %s",
				c.Request().URL.Path, GetRole(c), role)

			if err := flashes.AddError(c, "Please log in as "+role.Title()+" to continue"); err != nil {
				c.Logger().Errorf("Failed to store flash: %v", err)
			}
			return c.Redirect(http.StatusFound, role.AuthPath("log-in"))
		}
	}
}

// RedirectIfAuthenticated sends logged in visitors of the auth pages to their home page
func RedirectIfAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role := GetRole(c); role.Valid() {
				return c.Redirect(http.StatusFound, role.HomePath())
			}
			return next(c)
		}
	}
}
