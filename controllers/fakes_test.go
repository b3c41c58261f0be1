package controllers

import (
	"context"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProducts struct {
	mu      sync.Mutex
	perPage int
	items   map[primitive.ObjectID]*models.Product
	order   []primitive.ObjectID
}

func newFakeProducts(perPage int) *fakeProducts {
	return &fakeProducts{perPage: perPage, items: map[primitive.ObjectID]*models.Product{}}
}

func (f *fakeProducts) add(p models.Product) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.SellingPrice = models.SellingPrice(p.BuyingPrice, p.PercentageProfit)
	f.items[p.ID] = &p
	f.order = append(f.order, p.ID)
	return &p
}

func (f *fakeProducts) get(id primitive.ObjectID) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

func (f *fakeProducts) PerPage() int { return f.perPage }

func (f *fakeProducts) CreateOne(_ context.Context, req models.ProductRequest, imageURL string, adminID primitive.ObjectID) (*models.Product, error) {
	p := models.Product{ImageURL: imageURL, AdminID: adminID}
	req.Apply(&p)
	return f.add(p), nil
}

func (f *fakeProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	if p := f.get(oid); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p := f.get(id); p != nil {
			out[id] = *p
		}
	}
	return out, nil
}

func (f *fakeProducts) UpdateDetails(_ context.Context, product *models.Product, req models.ProductRequest, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.items[product.ID]
	req.Apply(p)
	p.ImageURL = imageURL
	return nil
}

func (f *fakeProducts) IncrementQuantity(_ context.Context, id primitive.ObjectID, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.items[id]; ok {
		p.Quantity += n
	}
	return nil
}

func (f *fakeProducts) DecrementQuantity(_ context.Context, id primitive.ObjectID, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.Quantity < n {
		return repositories.ErrInsufficientStock
	}
	p.Quantity -= n
	return nil
}

func (f *fakeProducts) DeleteByID(_ context.Context, id, adminID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.AdminID != adminID {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeProducts) page(match func(*models.Product) bool, page int, nilWhenEmpty bool) *models.ProductsPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Product
	for _, id := range f.order {
		if p, ok := f.items[id]; ok && match(p) {
			all = append(all, *p)
		}
	}
	if len(all) == 0 && nilWhenEmpty {
		return nil
	}
	data := models.NewPaginationData(page, f.perPage, int64(len(all)))
	start := int(data.Skip(f.perPage))
	if start > len(all) {
		start = len(all)
	}
	end := start + f.perPage
	if end > len(all) {
		end = len(all)
	}
	return &models.ProductsPage{Products: all[start:end], PaginationData: data}
}

func (f *fakeProducts) FindProductsForPage(_ context.Context, page int) (*models.ProductsPage, error) {
	return f.page(func(p *models.Product) bool { return p.Quantity > 0 }, page, true), nil
}

func (f *fakeProducts) FindCategoryProductsForPage(_ context.Context, category string, page int) (*models.ProductsPage, error) {
	return f.page(func(p *models.Product) bool { return p.Quantity > 0 && p.Category == category }, page, true), nil
}

func (f *fakeProducts) FindPageProductsForAdminID(_ context.Context, adminID primitive.ObjectID, page int) (*models.ProductsPage, error) {
	return f.page(func(p *models.Product) bool { return p.AdminID == adminID }, page, false), nil
}

func (f *fakeProducts) FindCategoryProductsForAdminIDAndPage(_ context.Context, adminID primitive.ObjectID, category string, page int) (*models.ProductsPage, error) {
	return f.page(func(p *models.Product) bool { return p.AdminID == adminID && p.Category == category }, page, false), nil
}

func (f *fakeProducts) categories(match func(*models.Product) bool) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range f.items {
		if match(p) && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeProducts) FindCategories(context.Context) ([]string, error) {
	return f.categories(func(p *models.Product) bool { return p.Quantity > 0 }), nil
}

func (f *fakeProducts) FindCategoriesForAdminID(_ context.Context, adminID primitive.ObjectID) ([]string, error) {
	return f.categories(func(p *models.Product) bool { return p.AdminID == adminID }), nil
}

func (f *fakeProducts) FindMetadata(context.Context) (*models.Metadata, error) {
	return &models.Metadata{Categories: f.categories(func(*models.Product) bool { return true })}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) add(balance float64) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{Account: models.Account{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com"}, Balance: balance}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) get(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *f.users[id]
	u.Cart = append([]models.CartItem(nil), u.Cart...)
	return u
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.Cart = append([]models.CartItem(nil), u.Cart...)
	return &cp, nil
}

func (f *fakeUsers) DebitBalance(_ context.Context, id primitive.ObjectID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	if u.Balance < amount {
		return repositories.ErrInsufficientBalance
	}
	u.Balance -= amount
	return nil
}

func (f *fakeUsers) CreditBalance(_ context.Context, id primitive.ObjectID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].Balance += amount
	return nil
}

func (f *fakeUsers) AddToCart(_ context.Context, userID, productID primitive.ObjectID, quantity int, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart[i].Quantity += quantity
			u.Cart[i].Amount += amount
			return nil
		}
	}
	u.Cart = append(u.Cart, models.CartItem{ProductID: productID, Quantity: quantity, Amount: amount})
	return nil
}

func (f *fakeUsers) RemoveFromCart(_ context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	for i, item := range u.Cart {
		if item.ProductID == productID {
			u.Cart = append(u.Cart[:i], u.Cart[i+1:]...)
			return &item, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) TakeCart(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	items := u.Cart
	u.Cart = nil
	return items, nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = primitive.NewObjectID()
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID.Hex() == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) FindByUserID(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			out = append(out, *f.orders[i])
		}
	}
	return out, nil
}

type fakeSales struct {
	mu       sync.Mutex
	booked   []models.OrderProduct
	from, to time.Time
	summary  []models.ProductSalesSummary
}

func (f *fakeSales) AddSalesToAdmins(_ context.Context, products []models.OrderProduct, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.booked = append(f.booked, products...)
	return nil
}

func (f *fakeSales) GetSalesForAdminIDWithinAnInterval(_ context.Context, _ primitive.ObjectID, from, to time.Time) ([]models.ProductSalesSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.from, f.to = from, to
	return f.summary, nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	role     models.Role
	accounts map[primitive.ObjectID]*models.Account
}

func newFakeAccounts(role models.Role) *fakeAccounts {
	return &fakeAccounts{role: role, accounts: map[primitive.ObjectID]*models.Account{}}
}

func (f *fakeAccounts) Role() models.Role { return f.role }

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeAccounts) Create(_ context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == account.Email {
			return repositories.ErrEmailTaken
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	cp := *account
	f.accounts[account.ID] = &cp
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[id].Password = hash
	return nil
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.ResetToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]*models.ResetToken{}}
}

func (f *fakeTokens) CreateOneForID(_ context.Context, requesterID primitive.ObjectID, role models.Role) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &models.ResetToken{
		ID:          primitive.NewObjectID(),
		Token:       primitive.NewObjectID().Hex() + primitive.NewObjectID().Hex() + "0123456789abcdef",
		RequesterID: requesterID,
		Role:        role,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	f.tokens[t.Token] = t
	return t, nil
}

func (f *fakeTokens) FindTokenDetailsByToken(_ context.Context, value string) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[value]
	if !ok || t.Expired(time.Now()) {
		return nil, nil
	}
	return t, nil
}

func (f *fakeTokens) RedeemToken(_ context.Context, value string, role models.Role) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[value]
	if !ok || t.Role != role || t.Expired(time.Now()) {
		return nil, nil
	}
	delete(f.tokens, value)
	return t, nil
}

type fakeImages struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (f *fakeImages) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "/images/" + file.Filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events map[primitive.ObjectID][]interface{}
}

func (f *fakeNotifier) NotifySale(adminID primitive.ObjectID, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = map[primitive.ObjectID][]interface{}{}
	}
	f.events[adminID] = append(f.events[adminID], data)
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	to    string
	links []string
}

func (f *fakeMailer) SendPasswordReset(to, _, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = to
	f.links = append(f.links, link)
	return nil
}
