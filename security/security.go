package security

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// CSRFFormField is the hidden input every form carries
const CSRFFormField = "_csrf"

// CSRF protects every unsafe request with a token kept in a cookie and echoed in the form
func CSRF(secure bool, skipper echoMiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echoMiddleware.DefaultSkipper
	}
	return echoMiddleware.CSRFWithConfig(echoMiddleware.CSRFConfig{
		Skipper:        skipper,
		TokenLookup:    "form:" + CSRFFormField,
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteStrictMode,
	})
}

// CSRFToken returns the token for the current request, or "" when CSRF is not enabled
func CSRFToken(c echo.Context) string {
	token, _ := c.Get(echoMiddleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// ValidateContentType ensures a form post has a form content type
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	validTypes := map[string]bool{
		"application/x-www-form-urlencoded": true,
		"multipart/form-data":               true,
	}
	return validTypes[mediaType]
}

// RequireFormPost rejects POST requests that were not sent by an HTML form
func RequireFormPost() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodPost && !ValidateContentType(c.Request().Header.Get(echo.HeaderContentType)) {
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Forms must be submitted as form data")
			}
			return next(c)
		}
	}
}
