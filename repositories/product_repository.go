package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	metadataID = "catalog"
	// MaxImageURLLength bounds the stored image reference
	MaxImageURLLength = 300
)

var productValidator = validator.New()

// CategoryCache stores the storefront category list between requests
type CategoryCache interface {
	Get(ctx context.Context) ([]string, bool)
	Set(ctx context.Context, categories []string)
	Invalidate(ctx context.Context)
}

type ProductRepository struct {
	collection *mongo.Collection
	metadata   *mongo.Collection
	perPage    int
	cache      CategoryCache
}

// NewProductRepository builds a repository paging perPage products at a time.
// cache may be nil.
func NewProductRepository(db *mongo.Database, perPage int, cache CategoryCache) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(config.ProductsCollection),
		metadata:   db.Collection(config.MetadataCollection),
		perPage:    perPage,
		cache:      cache,
	}
}

// PerPage is the page size used by every listing
func (r *ProductRepository) PerPage() int {
	return r.perPage
}

// CreateOne stores a new product owned by adminID and records its category and brand
func (r *ProductRepository) CreateOne(ctx context.Context, req models.ProductRequest, imageURL string, adminID primitive.ObjectID) (*models.Product, error) {
	if adminID.IsZero() {
		return nil, ErrInvalidID
	}
	if err := validateProduct(req, imageURL); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &models.Product{
		ImageURL:  imageURL,
		AdminID:   adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.Apply(product)

	res, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	product.ID = res.InsertedID.(primitive.ObjectID)

	if err := r.addMetadata(ctx, product.Category, product.Brand); err != nil {
		return product, err
	}
	r.invalidateCategories(ctx)
	return product, nil
}

// FindByID returns nil when the product does not exist or id is malformed
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &product, nil
}

// FindByIDs returns the products matching ids, keyed by id
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	found := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

// UpdateDetails replaces the editable fields of product. An empty imageURL keeps the current image.
func (r *ProductRepository) UpdateDetails(ctx context.Context, product *models.Product, req models.ProductRequest, imageURL string) error {
	if imageURL == "" {
		imageURL = product.ImageURL
	}
	if err := validateProduct(req, imageURL); err != nil {
		return err
	}

	req.Apply(product)
	product.ImageURL = imageURL
	product.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"title":            product.Title,
			"description":      product.Description,
			"imageUrl":         product.ImageURL,
			"buyingPrice":      product.BuyingPrice,
			"percentageProfit": product.PercentageProfit,
			"sellingPrice":     product.SellingPrice,
			"quantity":         product.Quantity,
			"category":         product.Category,
			"brand":            product.Brand,
			"updatedAt":        product.UpdatedAt,
		},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if err := r.addMetadata(ctx, product.Category, product.Brand); err != nil {
		return err
	}
	r.invalidateCategories(ctx)
	return nil
}

// IncrementQuantity puts n units back in stock
func (r *ProductRepository) IncrementQuantity(ctx context.Context, id primitive.ObjectID, n int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"quantity": n},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("increment quantity: %w", err)
	}
	r.invalidateCategories(ctx)
	return nil
}

// DecrementQuantity takes n units out of stock, failing with ErrInsufficientStock
// rather than letting the quantity go negative.
func (r *ProductRepository) DecrementQuantity(ctx context.Context, id primitive.ObjectID, n int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": n}},
		bson.M{
			"$inc": bson.M{"quantity": -n},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("decrement quantity: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	r.invalidateCategories(ctx)
	return nil
}

// DeleteByID removes the product when it belongs to adminID and reports whether it did
func (r *ProductRepository) DeleteByID(ctx context.Context, id, adminID primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "adminId": adminID})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount > 0 {
		r.invalidateCategories(ctx)
	}
	return res.DeletedCount > 0, nil
}

// FindProductsForPage lists in-stock products. It returns nil when nothing is in stock.
func (r *ProductRepository) FindProductsForPage(ctx context.Context, page int) (*models.ProductsPage, error) {
	return r.findPage(ctx, inStock(bson.M{}), page, true)
}

// FindCategoryProductsForPage lists in-stock products of category, nil when there are none
func (r *ProductRepository) FindCategoryProductsForPage(ctx context.Context, category string, page int) (*models.ProductsPage, error) {
	return r.findPage(ctx, inStock(bson.M{"category": category}), page, true)
}

// FindPageProductsForAdminID lists every product of the admin, sold out ones included.
// The page is empty, not nil, when there are none.
func (r *ProductRepository) FindPageProductsForAdminID(ctx context.Context, adminID primitive.ObjectID, page int) (*models.ProductsPage, error) {
	return r.findPage(ctx, bson.M{"adminId": adminID}, page, false)
}

// FindCategoryProductsForAdminIDAndPage narrows the admin listing to one category
func (r *ProductRepository) FindCategoryProductsForAdminIDAndPage(ctx context.Context, adminID primitive.ObjectID, category string, page int) (*models.ProductsPage, error) {
	return r.findPage(ctx, bson.M{"adminId": adminID, "category": category}, page, false)
}

// FindCategories returns the sorted categories that have products in stock
func (r *ProductRepository) FindCategories(ctx context.Context) ([]string, error) {
	if r.cache != nil {
		if categories, ok := r.cache.Get(ctx); ok {
			return categories, nil
		}
	}

	categories, err := r.distinctCategories(ctx, inStock(bson.M{}))
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(ctx, categories)
	}
	return categories, nil
}

// FindCategoriesForAdminID returns the sorted categories of the admin's products
func (r *ProductRepository) FindCategoriesForAdminID(ctx context.Context, adminID primitive.ObjectID) ([]string, error) {
	return r.distinctCategories(ctx, bson.M{"adminId": adminID})
}

// FindMetadata returns the known categories and brands
func (r *ProductRepository) FindMetadata(ctx context.Context) (*models.Metadata, error) {
	meta := &models.Metadata{ID: metadataID, Categories: []string{}, Brands: []string{}}
	err := r.metadata.FindOne(ctx, bson.M{"_id": metadataID}).Decode(meta)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find metadata: %w", err)
	}
	sort.Strings(meta.Categories)
	sort.Strings(meta.Brands)
	return meta, nil
}

func (r *ProductRepository) findPage(ctx context.Context, filter bson.M, page int, nilWhenEmpty bool) (*models.ProductsPage, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if total == 0 && nilWhenEmpty {
		return nil, nil
	}

	pagination := models.NewPaginationData(page, r.perPage, total)
	result := &models.ProductsPage{
		Products:       []models.Product{},
		PaginationData: pagination,
	}
	if total == 0 {
		return result, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(pagination.Skip(r.perPage)).
		SetLimit(int64(r.perPage))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	if err := cursor.All(ctx, &result.Products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return result, nil
}

func (r *ProductRepository) distinctCategories(ctx context.Context, filter bson.M) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "category", filter)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *ProductRepository) addMetadata(ctx context.Context, category, brand string) error {
	_, err := r.metadata.UpdateOne(ctx,
		bson.M{"_id": metadataID},
		bson.M{"$addToSet": bson.M{"categories": category, "brands": brand}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

func (r *ProductRepository) invalidateCategories(ctx context.Context) {
	if r.cache != nil {
		r.cache.Invalidate(ctx)
	}
}

// validateProduct checks the product field ranges and the image reference length
func validateProduct(req models.ProductRequest, imageURL string) error {
	if err := productValidator.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if err := productValidator.Var(imageURL, fmt.Sprintf("required,max=%d", MaxImageURLLength)); err != nil {
		return fmt.Errorf("%w: imageUrl: %v", ErrInvalidProduct, err)
	}
	return nil
}

func inStock(filter bson.M) bson.M {
	filter["quantity"] = bson.M{"$gt": 0}
	return filter
}
