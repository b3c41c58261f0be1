package controllers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/session"
	"github.com/HSouheill/sm_online_shop/views"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testJWTSecret     = "controllers-test-secret"
	testSessionSecret = "0123456789abcdef0123456789abcdef"
)

type testValidator struct {
	validator *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.validator.Struct(i)
}

type testEnv struct {
	e *echo.Echo

	products      *fakeProducts
	users         *fakeUsers
	orders        *fakeOrders
	sales         *fakeSales
	userAccounts  *fakeAccounts
	adminAccounts *fakeAccounts
	tokens        *fakeTokens
	images        *fakeImages
	notifier      *fakeNotifier
	mailer        *fakeMailer

	shop  *ShopController
	admin *AdminController
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	env := &testEnv{
		products:      newFakeProducts(2),
		users:         newFakeUsers(),
		orders:        &fakeOrders{},
		sales:         &fakeSales{},
		userAccounts:  newFakeAccounts(models.RoleUser),
		adminAccounts: newFakeAccounts(models.RoleAdmin),
		tokens:        newFakeTokens(),
		images:        &fakeImages{},
		notifier:      &fakeNotifier{},
		mailer:        &fakeMailer{},
	}

	e := echo.New()
	e.Renderer = renderer
	e.Validator = &testValidator{validator: validator.New()}
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(middleware.JWTMiddleware(testJWTSecret))

	sessions := session.NewStore(testSessionSecret, 3600, false)
	base := Base{Sessions: sessions}

	env.shop = NewShopController(base, env.products, env.users, env.orders, env.sales,
		env.userAccounts, env.notifier, "http://shop.test")
	env.admin = NewAdminController(base, env.products, env.sales, env.images, nil, 7)

	e.GET("/", env.shop.GetIndex)
	e.GET("/products", env.shop.GetProducts)
	e.GET("/products/:id", env.shop.GetProduct)
	e.GET("/products/category/:category", env.shop.GetCategoryProducts)

	requireUser := middleware.RequireRole(models.RoleUser, sessions)
	e.GET("/add-to-cart/:id", env.shop.GetAddToCart, requireUser)
	e.POST("/cart", env.shop.PostCart, requireUser)
	e.GET("/cart", env.shop.GetCart, requireUser)
	e.POST("/cart-delete-item", env.shop.PostCartDeleteProduct, requireUser)
	e.POST("/create-order", env.shop.PostOrder, requireUser)
	e.GET("/orders", env.shop.GetOrders, requireUser)
	e.GET("/orders/:id", env.shop.GetInvoice, requireUser)

	admin := e.Group("/admin", middleware.RequireRole(models.RoleAdmin, sessions))
	admin.GET("/products", env.admin.GetProducts)
	admin.GET("/products/category/:category", env.admin.GetProducts)
	admin.GET("/add-product", env.admin.GetAddProduct)
	admin.POST("/add-product", env.admin.PostAddProduct)
	admin.GET("/edit-product/:id", env.admin.GetEditProduct)
	admin.POST("/edit-product", env.admin.PostEditProduct)
	admin.POST("/delete-product", env.admin.PostDeleteProduct)
	admin.GET("/sales", env.admin.GetSales)

	settings := AuthSettings{JWTSecret: testJWTSecret, TokenTTL: time.Hour, BaseURL: "http://shop.test"}
	for _, accounts := range []*fakeAccounts{env.userAccounts, env.adminAccounts} {
		ac := NewAuthController(base, accounts, env.tokens, env.mailer, nil, settings)
		g := e.Group("/auth/" + string(ac.Role()))
		g.GET("/sign-up", ac.GetSignUp)
		g.POST("/sign-up", ac.PostSignUp)
		g.GET("/log-in", ac.GetLogIn)
		g.POST("/log-in", ac.PostLogIn)
		g.GET("/reset", ac.GetReset)
		g.POST("/reset", ac.PostReset)
		g.GET("/new-password", ac.GetNewPassword)
		g.POST("/new-password", ac.PostNewPassword)
		g.POST("/logout", ac.PostLogout)
	}

	env.e = e
	return env
}

// browser keeps cookies between requests like a real one would
type browser struct {
	t       *testing.T
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (env *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, env: env, cookies: map[string]*http.Cookie{}}
}

// loggedIn returns a browser carrying a valid auth cookie for id acting as role
func (env *testEnv) loggedIn(t *testing.T, role models.Role, id primitive.ObjectID) *browser {
	t.Helper()
	token, err := middleware.GenerateJWT(testJWTSecret, &models.Account{ID: id, Email: "someone@example.com"}, role, time.Hour)
	require.NoError(t, err)

	b := env.browser(t)
	b.cookies[middleware.AuthCookieName] = &http.Cookie{Name: middleware.AuthCookieName, Value: token}
	return b
}

func (b *browser) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.env.e.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil, "")
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, target, strings.NewReader(form.Encode()), echo.MIMEApplicationForm)
}

func (b *browser) postMultipart(target string, fields map[string]string, fileName string, fileData []byte) *httptest.ResponseRecorder {
	b.t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(b.t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("image", fileName)
		require.NoError(b.t, err)
		_, err = part.Write(fileData)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, w.Close())

	return b.do(http.MethodPost, target, &body, w.FormDataContentType())
}

// follow requests the page a redirect points to
func (b *browser) follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	b.t.Helper()
	require.Equal(b.t, http.StatusFound, rec.Code, rec.Body.String())
	return b.get(rec.Header().Get(echo.HeaderLocation))
}
