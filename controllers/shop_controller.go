package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HSouheill/sm_online_shop/middleware"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/repositories"
	"github.com/HSouheill/sm_online_shop/services"
	"github.com/HSouheill/sm_online_shop/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShopController serves the storefront, the cart and the orders of users
type ShopController struct {
	Base
	products ProductStore
	users    UserStore
	orders   OrderStore
	sales    SalesStore
	accounts AccountStore
	notifier SaleNotifier
	baseURL  string
	now      func() time.Time
}

// SaleEvent is what an admin's live sales page receives for each ordered line
type SaleEvent struct {
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

func NewShopController(base Base, products ProductStore, users UserStore, orders OrderStore,
	sales SalesStore, accounts AccountStore, notifier SaleNotifier, baseURL string) *ShopController {
	return &ShopController{
		Base:     base,
		products: products,
		users:    users,
		orders:   orders,
		sales:    sales,
		accounts: accounts,
		notifier: notifier,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// GetIndex sends visitors to the first catalog page
func (sc *ShopController) GetIndex(c echo.Context) error {
	return c.Redirect(http.StatusFound, middleware.GetRole(c).HomePath())
}

// GetProducts lists a page of in-stock products of every admin
func (sc *ShopController) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	page := utils.ParsePage(c.QueryParam("page"))

	products, err := sc.products.FindProductsForPage(ctx, page)
	if err != nil {
		return serverError(c, "find products", err)
	}
	categories, err := sc.products.FindCategories(ctx)
	if err != nil {
		return serverError(c, "find categories", err)
	}

	return sc.render(c, http.StatusOK, "shop/products.html", echo.Map{
		"Title":       "Products",
		"Page":        products,
		"PageURL":     "/products?page=",
		"Categories":  categories,
		"CategoryURL": "/products/category/",
	})
}

// GetCategoryProducts lists a page of in-stock products of one category
func (sc *ShopController) GetCategoryProducts(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.Param("category")
	page := utils.ParsePage(c.QueryParam("page"))

	products, err := sc.products.FindCategoryProductsForPage(ctx, category, page)
	if err != nil {
		return serverError(c, "find category products", err)
	}
	categories, err := sc.products.FindCategories(ctx)
	if err != nil {
		return serverError(c, "find categories", err)
	}

	return sc.render(c, http.StatusOK, "shop/products.html", echo.Map{
		"Title":       category,
		"Category":    category,
		"Page":        products,
		"PageURL":     "/products/category/" + url.PathEscape(category) + "?page=",
		"Categories":  categories,
		"CategoryURL": "/products/category/",
	})
}

// GetProduct shows one product
func (sc *ShopController) GetProduct(c echo.Context) error {
	product, err := sc.products.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serverError(c, "find product", err)
	}
	if product == nil {
		return sc.redirectWithError(c, "/products?page=1", "Product not found")
	}

	return sc.render(c, http.StatusOK, "shop/product.html", echo.Map{
		"Title":   product.Title,
		"Product": product,
	})
}

// GetAddToCart shows the quantity form for a product
func (sc *ShopController) GetAddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	page := utils.ParsePage(c.QueryParam("page"))

	product, err := sc.products.FindByID(ctx, c.Param("id"))
	if err != nil {
		return serverError(c, "find product", err)
	}
	if product == nil || product.Quantity < 1 {
		return sc.redirectWithError(c, "/products?page="+strconv.Itoa(page), "Product not found or out of stock")
	}

	user, err := sc.currentUser(c)
	if err != nil || user == nil {
		return err
	}

	return sc.render(c, http.StatusOK, "shop/add_to_cart.html", echo.Map{
		"Title":      "Add to cart",
		"Product":    product,
		"Balance":    user.Balance,
		"ReturnPage": page,
	})
}

// PostCart reserves stock, takes the price from the balance and adds the units to the cart
func (sc *ShopController) PostCart(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.AddToCartRequest
	messages := bindAndValidate(c, &req)
	page := req.Page
	if page < 1 {
		page = 1
	}
	listURL := "/products?page=" + strconv.Itoa(page)
	if messages != nil {
		if req.ProductID == "" {
			return sc.redirectWithErrors(c, listURL, nil, messages...)
		}
		return sc.redirectWithErrors(c, sc.addToCartURL(req.ProductID, page), nil, messages...)
	}
	formURL := sc.addToCartURL(req.ProductID, page)
	previous := map[string]string{"quantity": strconv.Itoa(req.Quantity)}

	product, err := sc.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return serverError(c, "find product", err)
	}
	if product == nil {
		return sc.redirectWithError(c, listURL, "Product not found")
	}
	if err := utils.ProductQuantityValidator(product, req.Quantity); err != nil {
		return sc.redirectWithErrors(c, formURL, previous, err.Error())
	}

	user, err := sc.currentUser(c)
	if err != nil || user == nil {
		return err
	}

	amount := product.LineTotal(req.Quantity)
	if err := utils.CartTotalValidator(models.CartTotal(user.Cart), amount, user.Balance); err != nil {
		return sc.redirectWithErrors(c, formURL, previous, err.Error())
	}

	if err := sc.products.DecrementQuantity(ctx, product.ID, req.Quantity); err != nil {
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return sc.redirectWithErrors(c, formURL, previous, "Not enough items of "+product.Title+" left in stock")
		}
		return serverError(c, "reserve stock", err)
	}

	if err := sc.users.DebitBalance(ctx, user.ID, amount); err != nil {
		sc.restock(c, product.ID, req.Quantity)
		if errors.Is(err, repositories.ErrInsufficientBalance) {
			return sc.redirectWithErrors(c, formURL, previous, "Your balance is not enough for this purchase")
		}
		return serverError(c, "debit balance", err)
	}

	if err := sc.users.AddToCart(ctx, user.ID, product.ID, req.Quantity, amount); err != nil {
		sc.restock(c, product.ID, req.Quantity)
		sc.refund(c, user.ID, amount)
		return serverError(c, "add to cart", err)
	}

	return sc.redirectWithInfo(c, listURL, fmt.Sprintf("%d x %s added to your cart", req.Quantity, product.Title))
}

// GetCart lists the cart with the products it refers to
func (sc *ShopController) GetCart(c echo.Context) error {
	user, err := sc.currentUser(c)
	if err != nil || user == nil {
		return err
	}

	lines, missing, err := sc.cartLines(c, user.Cart)
	if err != nil {
		return serverError(c, "load cart", err)
	}
	balance := user.Balance
	for _, item := range missing {
		removed, err := sc.users.RemoveFromCart(c.Request().Context(), user.ID, item.ProductID)
		if err != nil {
			c.Logger().Errorf("Failed to drop deleted product %s from cart: %v", item.ProductID.Hex(), err)
			continue
		}
		if removed != nil {
			sc.refund(c, user.ID, removed.Amount)
			balance += removed.Amount
		}
	}

	return sc.render(c, http.StatusOK, "shop/cart.html", echo.Map{
		"Title":   "Cart",
		"Lines":   lines,
		"Total":   models.CartTotal(cartItems(lines)),
		"Balance": balance,
	})
}

// PostCartDeleteProduct drops a cart line, returning its units to stock and its price to the balance
func (sc *ShopController) PostCartDeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	userID := accountID(c)

	productID, err := primitive.ObjectIDFromHex(c.FormValue("productId"))
	if err != nil {
		return sc.redirectWithError(c, "/cart", "Product not found")
	}

	item, err := sc.users.RemoveFromCart(ctx, userID, productID)
	if err != nil {
		return serverError(c, "remove from cart", err)
	}
	if item == nil {
		return sc.redirectWithError(c, "/cart", "That product is not in your cart")
	}

	sc.restock(c, item.ProductID, item.Quantity)
	sc.refund(c, userID, item.Amount)

	return sc.redirectWithInfo(c, "/cart", "Product removed from your cart")
}

// PostOrder turns the cart into an order and books the sales of every admin involved
func (sc *ShopController) PostOrder(c echo.Context) error {
	ctx := c.Request().Context()
	userID := accountID(c)

	items, err := sc.users.TakeCart(ctx, userID)
	if err != nil {
		return serverError(c, "take cart", err)
	}
	if len(items) == 0 {
		return sc.redirectWithError(c, "/cart", "Your cart is empty")
	}

	lines, missing, err := sc.cartLines(c, items)
	if err != nil {
		sc.restoreCart(c, userID, items)
		return serverError(c, "load cart", err)
	}
	for _, item := range missing {
		sc.refund(c, userID, item.Amount)
	}
	if len(lines) == 0 {
		return sc.redirectWithError(c, "/cart", "The products in your cart are no longer available")
	}

	order := models.NewOrder(userID, lines, sc.now())
	if err := sc.orders.Create(ctx, order); err != nil {
		sc.restoreCart(c, userID, cartItems(lines))
		return serverError(c, "create order", err)
	}
	middleware.OrdersTotal.Inc()

	if err := sc.sales.AddSalesToAdmins(ctx, order.Products, order.CreatedAt); err != nil {
		c.Logger().Errorf("Failed to book sales of order %s: %v", order.ID.Hex(), err)
	}
	sc.notifySales(c, order)

	return sc.redirectWithInfo(c, "/orders", "Your order has been placed")
}

// GetOrders lists the user's orders, newest first
func (sc *ShopController) GetOrders(c echo.Context) error {
	orders, err := sc.orders.FindByUserID(c.Request().Context(), accountID(c))
	if err != nil {
		return serverError(c, "find orders", err)
	}

	return sc.render(c, http.StatusOK, "shop/orders.html", echo.Map{
		"Title":  "Orders",
		"Orders": orders,
	})
}

// GetInvoice streams the PDF invoice of one of the user's orders
func (sc *ShopController) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	userID := accountID(c)

	order, err := sc.orders.FindByID(ctx, c.Param("id"))
	if err != nil {
		return serverError(c, "find order", err)
	}
	if order == nil {
		return sc.redirectWithError(c, "/orders", "Order not found")
	}
	if order.UserID != userID {
		c.Logger().Warnf("User %s asked for the invoice of order %s", userID.Hex(), order.ID.Hex())
		return sc.redirectWithError(c, "/orders", "Unauthorized")
	}

	customer, err := sc.accounts.FindByID(ctx, userID)
	if err != nil {
		return serverError(c, "find customer", err)
	}

	var buf bytes.Buffer
	if err := services.WriteInvoicePDF(&buf, order, customer, services.InvoiceURL(sc.baseURL, order)); err != nil {
		return serverError(c, "write invoice", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("inline; filename=%q", services.InvoiceFilename(order)))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// currentUser loads the logged in user. A nil user means the account is gone
// and the response has already been written.
func (sc *ShopController) currentUser(c echo.Context) (*models.User, error) {
	user, err := sc.users.FindByID(c.Request().Context(), accountID(c))
	if err != nil {
		return nil, serverError(c, "find user", err)
	}
	if user == nil {
		middleware.ClearAuthCookie(c)
		return nil, sc.redirectWithError(c, models.RoleUser.AuthPath("log-in"), "Please log in as User to continue")
	}
	return user, nil
}

// cartLines joins items with their products. Items whose product was deleted
// come back as missing so the caller can refund them.
func (sc *ShopController) cartLines(c echo.Context, items []models.CartItem) ([]models.CartLine, []models.CartItem, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := sc.products.FindByIDs(c.Request().Context(), ids)
	if err != nil {
		return nil, nil, err
	}

	lines := make([]models.CartLine, 0, len(items))
	var missing []models.CartItem
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			missing = append(missing, item)
			continue
		}
		lines = append(lines, models.CartLine{Product: product, Quantity: item.Quantity, Total: item.Amount})
	}
	if len(missing) > 0 {
		if err := sc.Sessions.AddInfo(c, "Products that left the shop were removed from your cart and refunded"); err != nil {
			c.Logger().Errorf("Failed to store flash: %v", err)
		}
	}
	return lines, missing, nil
}

// restoreCart puts taken items back after a failed checkout
func (sc *ShopController) restoreCart(c echo.Context, userID primitive.ObjectID, items []models.CartItem) {
	for _, item := range items {
		if err := sc.users.AddToCart(c.Request().Context(), userID, item.ProductID, item.Quantity, item.Amount); err != nil {
			c.Logger().Errorf("Failed to restore cart item %s for user %s: %v", item.ProductID.Hex(), userID.Hex(), err)
		}
	}
}

func (sc *ShopController) restock(c echo.Context, productID primitive.ObjectID, quantity int) {
	if err := sc.products.IncrementQuantity(c.Request().Context(), productID, quantity); err != nil {
		c.Logger().Errorf("Failed to restock %d of product %s: %v", quantity, productID.Hex(), err)
	}
}

func (sc *ShopController) refund(c echo.Context, userID primitive.ObjectID, amount float64) {
	if amount <= 0 {
		return
	}
	if err := sc.users.CreditBalance(c.Request().Context(), userID, amount); err != nil {
		c.Logger().Errorf("Failed to refund %.2f to user %s: %v", amount, userID.Hex(), err)
	}
}

func (sc *ShopController) notifySales(c echo.Context, order *models.Order) {
	if sc.notifier == nil {
		return
	}
	for _, p := range order.Products {
		event := SaleEvent{
			OrderID:   order.ID.Hex(),
			ProductID: p.ProductID.Hex(),
			Title:     p.Title,
			Quantity:  p.Quantity,
			Total:     p.LineTotal(),
		}
		if err := sc.notifier.NotifySale(p.AdminID, event); err != nil {
			c.Logger().Warnf("Failed to notify admin %s: %v", p.AdminID.Hex(), err)
		}
	}
}

func (sc *ShopController) addToCartURL(productID string, page int) string {
	return "/add-to-cart/" + url.PathEscape(productID) + "?page=" + strconv.Itoa(page)
}

func cartItems(lines []models.CartLine) []models.CartItem {
	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CartItem{ProductID: line.Product.ID, Quantity: line.Quantity, Amount: line.Total})
	}
	return items
}
