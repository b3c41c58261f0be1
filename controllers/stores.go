package controllers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/HSouheill/sm_online_shop/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStore is the catalog as the controllers use it
type ProductStore interface {
	PerPage() int
	CreateOne(ctx context.Context, req models.ProductRequest, imageURL string, adminID primitive.ObjectID) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	UpdateDetails(ctx context.Context, product *models.Product, req models.ProductRequest, imageURL string) error
	IncrementQuantity(ctx context.Context, id primitive.ObjectID, n int) error
	DecrementQuantity(ctx context.Context, id primitive.ObjectID, n int) error
	DeleteByID(ctx context.Context, id, adminID primitive.ObjectID) (bool, error)
	FindProductsForPage(ctx context.Context, page int) (*models.ProductsPage, error)
	FindCategoryProductsForPage(ctx context.Context, category string, page int) (*models.ProductsPage, error)
	FindPageProductsForAdminID(ctx context.Context, adminID primitive.ObjectID, page int) (*models.ProductsPage, error)
	FindCategoryProductsForAdminIDAndPage(ctx context.Context, adminID primitive.ObjectID, category string, page int) (*models.ProductsPage, error)
	FindCategories(ctx context.Context) ([]string, error)
	FindCategoriesForAdminID(ctx context.Context, adminID primitive.ObjectID) ([]string, error)
	FindMetadata(ctx context.Context) (*models.Metadata, error)
}

// UserStore holds shopper balances and carts
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	DebitBalance(ctx context.Context, id primitive.ObjectID, amount float64) error
	CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error
	AddToCart(ctx context.Context, userID, productID primitive.ObjectID, quantity int, amount float64) error
	RemoveFromCart(ctx context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error)
	TakeCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
}

type SalesStore interface {
	AddSalesToAdmins(ctx context.Context, products []models.OrderProduct, soldAt time.Time) error
	GetSalesForAdminIDWithinAnInterval(ctx context.Context, adminID primitive.ObjectID, from, to time.Time) ([]models.ProductSalesSummary, error)
}

// AccountStore is one role's account collection
type AccountStore interface {
	Role() models.Role
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

type TokenStore interface {
	CreateOneForID(ctx context.Context, requesterID primitive.ObjectID, role models.Role) (*models.ResetToken, error)
	FindTokenDetailsByToken(ctx context.Context, value string) (*models.ResetToken, error)
	RedeemToken(ctx context.Context, value string, role models.Role) (*models.ResetToken, error)
}

type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

// SaleNotifier pushes live sale events to connected admins
type SaleNotifier interface {
	NotifySale(adminID primitive.ObjectID, saleData interface{}) error
}

// ResetThrottle limits how often a reset link may be requested for an email
type ResetThrottle func(ctx context.Context, email string) error
