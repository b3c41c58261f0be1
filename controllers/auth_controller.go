package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/repositories"
	"github.com/HSouheill/sm_online_shop/services"
	"github.com/HSouheill/sm_online_shop/utils"
	"github.com/labstack/echo/v4"
)

const (
	msgEmailTaken    = "Email already exists.Please try another one."
	msgInvalidLogin  = "Invalid Email or Password"
	msgTokenExpired  = "Too late for reset. Please try again."
	msgSamePassword  = "Can not reset to your old Password! Select another one"
	msgResetSent     = "A reset link has been sent to your email"
	msgPasswordReset = "Your password has been updated. Please log in"
)

// AuthSettings configures how logins are turned into cookies and reset links
type AuthSettings struct {
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	BaseURL      string
}

// AuthController runs sign-up, login, password reset and logout for one role.
// Users and admins each get their own instance over their own account store.
type AuthController struct {
	Base
	role     models.Role
	accounts AccountStore
	tokens   TokenStore
	mailer   services.Mailer
	throttle ResetThrottle
	settings AuthSettings
}

func NewAuthController(base Base, accounts AccountStore, tokens TokenStore, mailer services.Mailer,
	throttle ResetThrottle, settings AuthSettings) *AuthController {
	return &AuthController{
		Base:     base,
		role:     accounts.Role(),
		accounts: accounts,
		tokens:   tokens,
		mailer:   mailer,
		throttle: throttle,
		settings: settings,
	}
}

// Role served by this controller
func (ac *AuthController) Role() models.Role {
	return ac.role
}

func (ac *AuthController) GetSignUp(c echo.Context) error {
	return ac.render(c, http.StatusOK, "auth/sign_up.html", roleData(ac.role, echo.Map{
		"Title": ac.role.Title() + " sign up",
	}))
}

// PostSignUp creates the account and sends the visitor to the log-in page
func (ac *AuthController) PostSignUp(c echo.Context) error {
	ctx := c.Request().Context()
	formURL := ac.role.AuthPath("sign-up")

	var req models.SignupRequest
	messages := bindAndValidate(c, &req)
	previous := map[string]string{"name": req.Name, "email": req.Email}
	if messages != nil {
		return ac.redirectWithErrors(c, formURL, previous, messages...)
	}

	existing, err := ac.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return serverError(c, "find account", err)
	}
	if existing != nil {
		return ac.redirectWithErrors(c, formURL, previous, msgEmailTaken)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return serverError(c, "hash password", err)
	}

	account := &models.Account{Name: req.Name, Email: req.Email, Password: hash}
	if err := ac.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return ac.redirectWithErrors(c, formURL, previous, msgEmailTaken)
		}
		return serverError(c, "create account", err)
	}

	c.Logger().Infof("New %s signed up: %s", ac.role, utils.MaskEmail(account.Email))
	return ac.redirectWithInfo(c, ac.role.AuthPath("log-in"), "Signed up successfully. Please log in")
}

func (ac *AuthController) GetLogIn(c echo.Context) error {
	return ac.render(c, http.StatusOK, "auth/log_in.html", roleData(ac.role, echo.Map{
		"Title": ac.role.Title() + " log in",
	}))
}

// PostLogIn checks the credentials and stores a signed token in the auth cookie
func (ac *AuthController) PostLogIn(c echo.Context) error {
	formURL := ac.role.AuthPath("log-in")

	var req models.LoginRequest
	messages := bindAndValidate(c, &req)
	previous := map[string]string{"email": req.Email}
	if messages != nil {
		return ac.redirectWithErrors(c, formURL, previous, messages...)
	}

	account, err := ac.accounts.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return serverError(c, "find account", err)
	}
	if account == nil || !utils.CheckPassword(account.Password, req.Password) {
		return ac.redirectWithErrors(c, formURL, previous, msgInvalidLogin)
	}

	token, err := middleware.GenerateJWT(ac.settings.JWTSecret, account, ac.role, ac.settings.TokenTTL)
	if err != nil {
		return serverError(c, "generate token", err)
	}
	middleware.SetAuthCookie(c, token, ac.settings.TokenTTL, ac.settings.SecureCookie)

	return ac.redirectWithInfo(c, ac.role.HomePath(), "Welcome back, "+account.Name)
}

func (ac *AuthController) GetReset(c echo.Context) error {
	return ac.render(c, http.StatusOK, "auth/reset.html", roleData(ac.role, echo.Map{
		"Title": "Reset password",
	}))
}

// PostReset mails a single-use link to choose a new password
func (ac *AuthController) PostReset(c echo.Context) error {
	ctx := c.Request().Context()
	formURL := ac.role.AuthPath("reset")

	var req models.ResetRequest
	messages := bindAndValidate(c, &req)
	previous := map[string]string{"email": req.Email}
	if messages != nil {
		return ac.redirectWithErrors(c, formURL, previous, messages...)
	}

	if ac.throttle != nil {
		if err := ac.throttle(ctx, req.Email); err != nil {
			if errors.Is(err, utils.ErrTooManyResetAttempts) {
				return ac.redirectWithErrors(c, formURL, previous, err.Error())
			}
			c.Logger().Warnf("Reset throttle unavailable: %v", err)
		}
	}

	account, err := ac.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return serverError(c, "find account", err)
	}
	if account == nil {
		return ac.redirectWithErrors(c, formURL, previous, "No "+ac.role.Title()+" by that email exists.")
	}

	token, err := ac.tokens.CreateOneForID(ctx, account.ID, ac.role)
	if err != nil {
		return serverError(c, "create reset token", err)
	}

	link := ac.settings.BaseURL + ac.role.AuthPath("new-password") + "?token=" + url.QueryEscape(token.Token)
	if err := ac.mailer.SendPasswordReset(account.Email, account.Name, link); err != nil {
		c.Logger().Errorf("Failed to send reset email to %s: %v", utils.MaskEmail(account.Email), err)
		return ac.redirectWithErrors(c, formURL, previous, "Could not send the reset email. Please try again later")
	}

	return ac.redirectWithInfo(c, ac.role.AuthPath("log-in"), msgResetSent)
}

// GetNewPassword shows the new password form for a valid token
func (ac *AuthController) GetNewPassword(c echo.Context) error {
	value := c.QueryParam("token")
	token, err := ac.findToken(c, value)
	if err != nil {
		return serverError(c, "find reset token", err)
	}
	if token == nil {
		return ac.redirectWithError(c, ac.role.AuthPath("reset"), msgTokenExpired)
	}

	return ac.render(c, http.StatusOK, "auth/new_password.html", roleData(ac.role, echo.Map{
		"Title": "New password",
		"Token": value,
	}))
}

// PostNewPassword redeems the token and stores the new password hash
func (ac *AuthController) PostNewPassword(c echo.Context) error {
	ctx := c.Request().Context()
	resetURL := ac.role.AuthPath("reset")

	var req models.NewPasswordRequest
	messages := bindAndValidate(c, &req)

	token, err := ac.findToken(c, req.Token)
	if err != nil {
		return serverError(c, "find reset token", err)
	}
	if token == nil {
		return ac.redirectWithError(c, resetURL, msgTokenExpired)
	}

	formURL := ac.role.AuthPath("new-password") + "?token=" + url.QueryEscape(req.Token)
	if messages != nil {
		return ac.redirectWithErrors(c, formURL, nil, messages...)
	}

	account, err := ac.accounts.FindByID(ctx, token.RequesterID)
	if err != nil {
		return serverError(c, "find account", err)
	}
	if account == nil {
		return ac.redirectWithError(c, resetURL, msgTokenExpired)
	}
	if utils.CheckPassword(account.Password, req.Password) {
		return ac.redirectWithError(c, formURL, msgSamePassword)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return serverError(c, "hash password", err)
	}

	redeemed, err := ac.tokens.RedeemToken(ctx, req.Token, ac.role)
	if err != nil {
		return serverError(c, "redeem reset token", err)
	}
	if redeemed == nil || redeemed.RequesterID != account.ID {
		return ac.redirectWithError(c, resetURL, msgTokenExpired)
	}
	if err := ac.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return serverError(c, "update password", err)
	}

	c.Logger().Infof("%s %s reset their password", ac.role.Title(), utils.MaskEmail(account.Email))
	return ac.redirectWithInfo(c, ac.role.AuthPath("log-in"), msgPasswordReset)
}

// PostLogout forgets the auth cookie and the session
func (ac *AuthController) PostLogout(c echo.Context) error {
	middleware.ClearAuthCookie(c)
	if err := ac.Sessions.Clear(c); err != nil {
		c.Logger().Errorf("Failed to clear session: %v", err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// findToken returns nil for malformed, unknown, expired or other-role tokens
func (ac *AuthController) findToken(c echo.Context, value string) (*models.ResetToken, error) {
	if value == "" {
		return nil, nil
	}
	token, err := ac.tokens.FindTokenDetailsByToken(c.Request().Context(), value)
	if err != nil || token == nil {
		return nil, err
	}
	if token.Role != ac.role {
		return nil, nil
	}
	return token, nil
}
