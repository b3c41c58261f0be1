package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/sm_online_shop/controllers"
	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/session"
)

const testSecret = "routes-test-secret"

type stubAccounts struct{ role models.Role }

func (s stubAccounts) Role() models.Role { return s.role }
func (stubAccounts) FindByEmail(context.Context, string) (*models.Account, error) {
	return nil, nil
}
func (stubAccounts) FindByID(context.Context, primitive.ObjectID) (*models.Account, error) {
	return nil, nil
}
func (stubAccounts) Create(context.Context, *models.Account) error { return nil }
func (stubAccounts) UpdatePassword(context.Context, primitive.ObjectID, string) error {
	return nil
}

func newEcho(t *testing.T, opts SystemOptions) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(middleware.JWTMiddleware(testSecret))

	sessions := session.NewStore("0123456789abcdef0123456789abcdef", 3600, false)
	base := controllers.Base{Sessions: sessions}
	ctrl := Controllers{
		Shop:  &controllers.ShopController{Base: base},
		Admin: &controllers.AdminController{Base: base},
	}
	for _, role := range []models.Role{models.RoleUser, models.RoleAdmin} {
		ctrl.Auth = append(ctrl.Auth, controllers.NewAuthController(base, stubAccounts{role: role}, nil, nil, nil,
			controllers.AuthSettings{JWTSecret: testSecret}))
	}
	SetupRoutes(e, ctrl, sessions, opts)
	return e
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := middleware.GenerateJWT(testSecret, &models.Account{ID: primitive.NewObjectID()}, role, time.Hour)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	e := newEcho(t, SystemOptions{Ping: func(context.Context) error { return nil }})
	rec := serve(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = serve(e, http.MethodHead, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	e = newEcho(t, SystemOptions{Ping: func(context.Context) error { return errors.New("no primary") }})
	rec = serve(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unreachable")
}

func TestStaticAndMetrics(t *testing.T) {
	e := newEcho(t, SystemOptions{Gatherer: prometheus.NewRegistry(), MetricsAllowedIPs: []string{"10.0.0.1"}})

	rec := serve(e, http.MethodGet, "/static/live_sales.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "WebSocket"))

	rec = serve(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	e := newEcho(t, SystemOptions{})

	rec := serve(e, http.MethodGet, "/cart", "")
	assert.Equal(t, "/auth/user/log-in", rec.Header().Get(echo.HeaderLocation))

	rec = serve(e, http.MethodGet, "/admin/sales", tokenFor(t, models.RoleUser))
	assert.Equal(t, "/auth/admin/log-in", rec.Header().Get(echo.HeaderLocation))

	rec = serve(e, http.MethodGet, "/no-such-page", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodGet, "/", tokenFor(t, models.RoleAdmin))
	assert.Equal(t, "/admin/products?page=1", rec.Header().Get(echo.HeaderLocation))
}

func TestAuthPagesRedirectLoggedInVisitors(t *testing.T) {
	e := newEcho(t, SystemOptions{})
	token := tokenFor(t, models.RoleUser)

	rec := serve(e, http.MethodGet, "/auth/admin/log-in", token)
	assert.Equal(t, "/products?page=1", rec.Header().Get(echo.HeaderLocation))

	rec = serve(e, http.MethodPost, "/auth/user/logout", token)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}
