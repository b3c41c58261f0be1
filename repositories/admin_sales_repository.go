package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminSalesRepository keeps one sales ledger document per admin
type AdminSalesRepository struct {
	collection *mongo.Collection
}

func NewAdminSalesRepository(db *mongo.Database) *AdminSalesRepository {
	return &AdminSalesRepository{
		collection: db.Collection(config.AdminSalesCollection),
	}
}

// CreateOne starts an empty ledger for adminID
func (r *AdminSalesRepository) CreateOne(ctx context.Context, adminID primitive.ObjectID) (*models.AdminSales, error) {
	if adminID.IsZero() {
		return nil, ErrInvalidID
	}

	sales := &models.AdminSales{AdminID: adminID, Products: []models.ProductSales{}}
	res, err := r.collection.InsertOne(ctx, sales)
	if err != nil {
		return nil, fmt.Errorf("insert admin sales: %w", err)
	}
	sales.ID = res.InsertedID.(primitive.ObjectID)
	return sales, nil
}

// FindOneForAdminID returns nil when the admin has no ledger yet
func (r *AdminSalesRepository) FindOneForAdminID(ctx context.Context, adminID primitive.ObjectID) (*models.AdminSales, error) {
	var sales models.AdminSales
	err := r.collection.FindOne(ctx, bson.M{"adminId": adminID}).Decode(&sales)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin sales: %w", err)
	}
	return &sales, nil
}

// FindByAdminIDAndDelete removes the ledger and returns it, nil when there was none
func (r *AdminSalesRepository) FindByAdminIDAndDelete(ctx context.Context, adminID primitive.ObjectID) (*models.AdminSales, error) {
	var sales models.AdminSales
	err := r.collection.FindOneAndDelete(ctx, bson.M{"adminId": adminID}).Decode(&sales)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete admin sales: %w", err)
	}
	return &sales, nil
}

// ClearProducts empties the ledger but keeps the document
func (r *AdminSalesRepository) ClearProducts(ctx context.Context, adminID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"adminId": adminID},
		bson.M{"$set": bson.M{"products": []models.ProductSales{}}})
	if err != nil {
		return fmt.Errorf("clear admin sales: %w", err)
	}
	return nil
}

// AddOrderedProduct appends a sale of item to the admin's ledger.
// The product entry and the ledger itself are created on first sale.
func (r *AdminSalesRepository) AddOrderedProduct(ctx context.Context, adminID primitive.ObjectID, item models.OrderProduct, soldAt time.Time) error {
	sale := models.SaleFromOrderProduct(item, soldAt)

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"adminId": adminID, "products.productId": item.ProductID},
		bson.M{
			"$push": bson.M{"products.$.sales": sale},
			"$set": bson.M{
				"products.$.title":    item.Title,
				"products.$.imageUrl": item.ImageURL,
			},
		})
	if err != nil {
		return fmt.Errorf("push sale: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	entry := models.ProductSales{
		ProductID: item.ProductID,
		Title:     item.Title,
		ImageURL:  item.ImageURL,
		Sales:     []models.Sale{sale},
	}
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"adminId": adminID},
		bson.M{"$push": bson.M{"products": entry}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("push product sales: %w", err)
	}
	return nil
}

// AddSalesToAdmins records every ordered line in its owner's ledger
func (r *AdminSalesRepository) AddSalesToAdmins(ctx context.Context, products []models.OrderProduct, soldAt time.Time) error {
	for _, item := range products {
		if err := r.AddOrderedProduct(ctx, item.AdminID, item, soldAt); err != nil {
			return err
		}
	}
	return nil
}

// GetSalesForAdminIDWithinAnInterval summarizes the admin's sales made in [from, to]
func (r *AdminSalesRepository) GetSalesForAdminIDWithinAnInterval(ctx context.Context, adminID primitive.ObjectID, from, to time.Time) ([]models.ProductSalesSummary, error) {
	if from.After(to) {
		return nil, ErrInvalidInterval
	}

	sales, err := r.FindOneForAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		return []models.ProductSalesSummary{}, nil
	}
	return sales.Summarize(from, to), nil
}
