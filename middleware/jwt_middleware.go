// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/HSouheill/sm_online_shop/models"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthCookieName holds the signed session token
const AuthCookieName = "sm_auth"

// Context keys set for authenticated requests
const (
	ContextAccountID = "accountId"
	ContextRole      = "role"
	ContextEmail     = "email"
)

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	AccountID string      `json:"accountId"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	jwt.StandardClaims
}

// GenerateJWT signs a session token for account acting as role
func GenerateJWT(secret string, account *models.Account, role models.Role, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret is not configured")
	}

	now := time.Now()
	claims := &JwtCustomClaims{
		AccountID: account.ID.Hex(),
		Email:     account.Email,
		Role:      role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// SetAuthCookie stores the session token in an http-only cookie
func SetAuthCookie(c echo.Context, token string, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie logs the browser out
func ClearAuthCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// JWTMiddleware reads the session cookie when present and stores the claims in the context.
// Requests without a valid cookie continue anonymously; RequireRole decides what they may see.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:             []byte(secret),
		Claims:                 &JwtCustomClaims{},
		TokenLookup:            "cookie:" + AuthCookieName,
		ContinueOnIgnoredError: true,
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			id, err := primitive.ObjectIDFromHex(claims.AccountID)
			if err != nil || !claims.Role.Valid() {
				return
			}
			c.Set(ContextAccountID, id)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextEmail, claims.Email)
		},
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			if !errors.Is(err, middleware.ErrJWTMissing) {
				c.Logger().Infof("Ignoring invalid session cookie: %v", err)
				ClearAuthCookie(c)
			}
			return nil
		},
	})
}

// GetAccountID returns the authenticated account id, if any
func GetAccountID(c echo.Context) (primitive.ObjectID, bool) {
	id, ok := c.Get(ContextAccountID).(primitive.ObjectID)
	return id, ok
}

// GetRole returns the authenticated role, or "" for anonymous requests
func GetRole(c echo.Context) models.Role {
	role, _ := c.Get(ContextRole).(models.Role)
	return role
}
