package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/repositories"
	"github.com/HSouheill/sm_online_shop/utils"
	"github.com/HSouheill/sm_online_shop/websocket"
	"github.com/labstack/echo/v4"
)

const adminProductsURL = "/admin/products?page=1"

// AdminController lets admins manage their own products and read their sales
type AdminController struct {
	Base
	products  ProductStore
	sales     SalesStore
	images    ImageStore
	hub       *websocket.Hub
	salesDays int
	location  *time.Location
	now       func() time.Time
}

func NewAdminController(base Base, products ProductStore, sales SalesStore, images ImageStore,
	hub *websocket.Hub, salesDays int) *AdminController {
	if salesDays < 1 {
		salesDays = 7
	}
	return &AdminController{
		Base:      base,
		products:  products,
		sales:     sales,
		images:    images,
		hub:       hub,
		salesDays: salesDays,
		location:  time.Local,
		now:       time.Now,
	}
}

// GetProducts lists a page of the admin's products, optionally of one category
func (ac *AdminController) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	adminID := accountID(c)
	page := utils.ParsePage(c.QueryParam("page"))
	category := c.Param("category")

	var (
		products *models.ProductsPage
		err      error
		pageURL  = "/admin/products?page="
	)
	if category != "" {
		products, err = ac.products.FindCategoryProductsForAdminIDAndPage(ctx, adminID, category, page)
		pageURL = "/admin/products/category/" + url.PathEscape(category) + "?page="
	} else {
		products, err = ac.products.FindPageProductsForAdminID(ctx, adminID, page)
	}
	if err != nil {
		return serverError(c, "find admin products", err)
	}

	categories, err := ac.products.FindCategoriesForAdminID(ctx, adminID)
	if err != nil {
		return serverError(c, "find admin categories", err)
	}

	return ac.render(c, http.StatusOK, "admin/products.html", echo.Map{
		"Title":       "Your products",
		"Category":    category,
		"Page":        products,
		"PageURL":     pageURL,
		"Categories":  categories,
		"CategoryURL": "/admin/products/category/",
	})
}

// GetAddProduct shows the empty product form
func (ac *AdminController) GetAddProduct(c echo.Context) error {
	metadata, err := ac.products.FindMetadata(c.Request().Context())
	if err != nil {
		return serverError(c, "find metadata", err)
	}

	return ac.renderProductForm(c, false, nil, metadata)
}

// PostAddProduct stores the uploaded image and creates the product
func (ac *AdminController) PostAddProduct(c echo.Context) error {
	ctx := c.Request().Context()
	const formURL = "/admin/add-product"

	var req models.ProductRequest
	previous := productForm(c)
	if messages := bindAndValidate(c, &req); messages != nil {
		return ac.redirectWithErrors(c, formURL, previous, messages...)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return ac.redirectWithErrors(c, formURL, previous, "Attached file is not an image.")
	}
	imageURL, err := ac.images.Save(ctx, file)
	if err != nil {
		return ac.imageError(c, formURL, previous, err)
	}

	product, err := ac.products.CreateOne(ctx, req, imageURL, accountID(c))
	if err != nil {
		ac.deleteImage(c, imageURL)
		if errors.Is(err, repositories.ErrInvalidProduct) {
			return ac.redirectWithErrors(c, formURL, previous, "Invalid product data")
		}
		return serverError(c, "create product", err)
	}

	c.Logger().Infof("Admin %s added product %s", accountID(c).Hex(), product.ID.Hex())
	return ac.redirectWithInfo(c, adminProductsURL, "Product "+product.Title+" added")
}

// GetEditProduct shows the form filled with one of the admin's products
func (ac *AdminController) GetEditProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := ac.products.FindByID(ctx, c.Param("id"))
	if err != nil {
		return serverError(c, "find product", err)
	}
	if product == nil || product.AdminID != accountID(c) {
		return ac.redirectWithError(c, adminProductsURL, "Product not found")
	}

	metadata, err := ac.products.FindMetadata(ctx)
	if err != nil {
		return serverError(c, "find metadata", err)
	}

	return ac.renderProductForm(c, true, product, metadata)
}

// PostEditProduct updates one of the admin's products, replacing the image when a new one is sent
func (ac *AdminController) PostEditProduct(c echo.Context) error {
	ctx := c.Request().Context()
	productID := c.FormValue("productId")

	product, err := ac.products.FindByID(ctx, productID)
	if err != nil {
		return serverError(c, "find product", err)
	}
	if product == nil || product.AdminID != accountID(c) {
		return ac.redirectWithError(c, adminProductsURL, "Product not found")
	}

	formURL := "/admin/edit-product/" + product.ID.Hex()
	var req models.ProductRequest
	previous := productForm(c)
	if messages := bindAndValidate(c, &req); messages != nil {
		return ac.redirectWithErrors(c, formURL, previous, messages...)
	}

	oldImage := product.ImageURL
	imageURL := oldImage
	if file, err := c.FormFile("image"); err == nil {
		imageURL, err = ac.images.Save(ctx, file)
		if err != nil {
			return ac.imageError(c, formURL, previous, err)
		}
	}

	if err := ac.products.UpdateDetails(ctx, product, req, imageURL); err != nil {
		if imageURL != oldImage {
			ac.deleteImage(c, imageURL)
		}
		if errors.Is(err, repositories.ErrInvalidProduct) {
			return ac.redirectWithErrors(c, formURL, previous, "Invalid product data")
		}
		return serverError(c, "update product", err)
	}
	if imageURL != oldImage {
		ac.deleteImage(c, oldImage)
	}

	return ac.redirectWithInfo(c, adminProductsURL, "Product "+product.Title+" updated")
}

// PostDeleteProduct removes the image and then the product
func (ac *AdminController) PostDeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	adminID := accountID(c)

	product, err := ac.products.FindByID(ctx, c.FormValue("productId"))
	if err != nil {
		return serverError(c, "find product", err)
	}
	if product == nil || product.AdminID != adminID {
		return ac.redirectWithError(c, adminProductsURL, "Product not found")
	}

	ac.deleteImage(c, product.ImageURL)

	deleted, err := ac.products.DeleteByID(ctx, product.ID, adminID)
	if err != nil {
		return serverError(c, "delete product", err)
	}
	if !deleted {
		return ac.redirectWithError(c, adminProductsURL, "Product not found")
	}

	c.Logger().Infof("Admin %s deleted product %s", adminID.Hex(), product.ID.Hex())
	return ac.redirectWithInfo(c, adminProductsURL, "Product "+product.Title+" deleted")
}

// GetSales summarizes the admin's sales between from and to, both days included.
// Without dates the last salesDays days are shown.
func (ac *AdminController) GetSales(c echo.Context) error {
	now := ac.now().In(ac.location)
	today := startOfDay(now)

	from, hasFrom, errFrom := utils.ParseDate(c.QueryParam("from"), ac.location)
	to, hasTo, errTo := utils.ParseDate(c.QueryParam("to"), ac.location)
	if errFrom != nil || errTo != nil {
		return ac.redirectWithError(c, "/admin/sales", "Dates must look like 2024-01-31")
	}
	if !hasTo {
		to = today
	}
	if !hasFrom {
		from = to.AddDate(0, 0, -(ac.salesDays - 1))
	}
	if from.After(today) || to.After(today) {
		return ac.redirectWithError(c, adminProductsURL, "Sales can not be shown for future dates")
	}
	if from.After(to) {
		return ac.redirectWithError(c, "/admin/sales", "The start date must not be after the end date")
	}

	end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	summaries, err := ac.sales.GetSalesForAdminIDWithinAnInterval(c.Request().Context(), accountID(c), from, end)
	if err != nil {
		return serverError(c, "find sales", err)
	}

	totalSales, totalProfit := 0.0, 0.0
	for _, s := range summaries {
		totalSales += s.TotalSales
		totalProfit += s.Profit
	}

	return ac.render(c, http.StatusOK, "admin/sales.html", echo.Map{
		"Title":       "Sales",
		"From":        from,
		"To":          to,
		"Sales":       summaries,
		"TotalSales":  totalSales,
		"TotalProfit": totalProfit,
	})
}

// GetLiveSales subscribes the admin's sales page to new orders
func (ac *AdminController) GetLiveSales(c echo.Context) error {
	return websocket.HandleWebSocket(c, ac.hub, accountID(c))
}

func (ac *AdminController) renderProductForm(c echo.Context, editing bool, product *models.Product, metadata *models.Metadata) error {
	form := map[string]string{}
	if product != nil {
		form = map[string]string{
			"title":            product.Title,
			"description":      product.Description,
			"buyingPrice":      strconv.FormatFloat(product.BuyingPrice, 'f', -1, 64),
			"percentageProfit": strconv.FormatFloat(product.PercentageProfit, 'f', -1, 64),
			"quantity":         strconv.Itoa(product.Quantity),
			"category":         product.Category,
			"brand":            product.Brand,
		}
	}
	if metadata == nil {
		metadata = &models.Metadata{}
	}

	title := "Add product"
	if editing {
		title = "Edit product"
	}
	data := ac.pageData(c, echo.Map{
		"Title":    title,
		"Editing":  editing,
		"Product":  product,
		"Metadata": metadata,
	})

	// Values of a rejected submission win over the stored ones
	if previous, ok := data["Previous"].(map[string]string); ok {
		for k, v := range previous {
			form[k] = v
		}
	}
	data["Form"] = form

	return c.Render(http.StatusOK, "admin/edit_product.html", data)
}

func (ac *AdminController) imageError(c echo.Context, formURL string, previous map[string]string, err error) error {
	if errors.Is(err, utils.ErrInvalidImageType) || errors.Is(err, utils.ErrImageTooLarge) || errors.Is(err, utils.ErrImageDimensions) {
		return ac.redirectWithErrors(c, formURL, previous, err.Error())
	}
	return serverError(c, "save image", err)
}

func (ac *AdminController) deleteImage(c echo.Context, imageURL string) {
	if err := ac.images.Delete(c.Request().Context(), imageURL); err != nil {
		c.Logger().Warnf("Failed to delete image %s: %v", imageURL, err)
	}
}

// productForm keeps the submitted text fields to refill the form after a rejection
func productForm(c echo.Context) map[string]string {
	form := map[string]string{}
	for _, key := range []string{"title", "description", "buyingPrice", "percentageProfit", "quantity", "category", "brand"} {
		form[key] = c.FormValue(key)
	}
	return form
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
