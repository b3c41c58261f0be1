package controllers

import (
	"net/http"

	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/security"
	"github.com/HSouheill/sm_online_shop/session"
	"github.com/HSouheill/sm_online_shop/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base carries what every page controller needs to render and redirect
type Base struct {
	Sessions *session.Store
}

// render adds the values the layout needs and renders page
func (b *Base) render(c echo.Context, status int, page string, data echo.Map) error {
	return c.Render(status, page, b.pageData(c, data))
}

// pageData consumes the pending flashes into data along with the layout values
func (b *Base) pageData(c echo.Context, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}

	flashes, err := b.Sessions.Pop(c)
	if err != nil {
		c.Logger().Errorf("Failed to read flashes: %v", err)
	}
	if extra, ok := data["Errors"].([]string); ok {
		flashes.Errors = append(flashes.Errors, extra...)
	}

	data["Errors"] = flashes.Errors
	data["Infos"] = flashes.Infos
	data["Previous"] = flashes.Previous
	data["Role"] = middleware.GetRole(c)
	data["CSRF"] = security.CSRFToken(c)
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Shop"
	}
	return data
}

// redirectWithErrors flashes messages and the submitted form, then redirects to url
func (b *Base) redirectWithErrors(c echo.Context, url string, previous map[string]string, messages ...string) error {
	if err := b.Sessions.AddError(c, messages...); err != nil {
		c.Logger().Errorf("Failed to store flash: %v", err)
	}
	if len(previous) > 0 {
		if err := b.Sessions.SetPrevious(c, previous); err != nil {
			c.Logger().Errorf("Failed to store form data: %v", err)
		}
	}
	return c.Redirect(http.StatusFound, url)
}

// redirectWithError flashes a single error, then redirects to url
func (b *Base) redirectWithError(c echo.Context, url string, message string) error {
	return b.redirectWithErrors(c, url, nil, message)
}

// redirectWithInfo flashes messages, then redirects to url
func (b *Base) redirectWithInfo(c echo.Context, url string, messages ...string) error {
	if err := b.Sessions.AddInfo(c, messages...); err != nil {
		c.Logger().Errorf("Failed to store flash: %v", err)
	}
	return c.Redirect(http.StatusFound, url)
}

// bindAndValidate fills req from the form and runs the validator.
// The returned messages are ready to flash; nil means req is valid.
func bindAndValidate(c echo.Context, req interface{}) []string {
	if err := c.Bind(req); err != nil {
		return []string{"Please fill in the form with valid values"}
	}
	if err := c.Validate(req); err != nil {
		return utils.ValidationMessages(err)
	}
	return nil
}

// accountID is the logged in account; the role middleware guarantees it exists
func accountID(c echo.Context) primitive.ObjectID {
	id, _ := middleware.GetAccountID(c)
	return id
}

// serverError logs err and hands the request to the error page
func serverError(c echo.Context, action string, err error) error {
	c.Logger().Errorf("%s: %v", action, err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func roleData(role models.Role, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}
	data["RoleTitle"] = role.Title()
	data["AuthRole"] = string(role)
	return data
}
