package controllers

import (
	"errors"
	"net/http"

	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/security"
	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders failures as the error page instead of echo's JSON body
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
		if he.Internal != nil {
			c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, he.Internal)
		}
	} else {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if code == http.StatusNotFound {
		message = "Page not found"
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.Render(code, "error.html", echo.Map{
			"Title":    http.StatusText(code),
			"Status":   code,
			"Message":  message,
			"Role":     middleware.GetRole(c),
			"CSRF":     security.CSRFToken(c),
			"Previous": map[string]string{},
		})
	}
	if err != nil {
		c.Logger().Errorf("Failed to render error page: %v", err)
	}
}
