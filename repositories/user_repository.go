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

// UserRepository handles the shopper side of a user: balance and cart
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(config.UsersCollection),
	}
}

// FindByID returns nil when the user does not exist
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// DebitBalance takes amount from the balance, failing with ErrInsufficientBalance
// rather than letting it go negative.
func (r *UserRepository) DebitBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"balance": -amount},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// CreditBalance gives amount back to the user
func (r *UserRepository) CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

// AddToCart increases the cart line for productID by quantity units paid with amount,
// creating the line when missing.
func (r *UserRepository) AddToCart(ctx context.Context, userID, productID primitive.ObjectID, quantity int, amount float64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID, "cart.productId": productID},
		bson.M{"$inc": bson.M{"cart.$.quantity": quantity, "cart.$.amount": amount}})
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"cart": models.CartItem{ProductID: productID, Quantity: quantity, Amount: amount}}})
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// RemoveFromCart drops the line for productID and returns it, or nil when the cart had no such line.
// The line is read from the pre-update document so the returned quantity is exactly what was removed.
func (r *UserRepository) RemoveFromCart(ctx context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "cart.productId": productID},
		bson.M{
			"$pull": bson.M{"cart": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("remove from cart: %w", err)
	}

	removed := &models.CartItem{ProductID: productID}
	for _, item := range before.Cart {
		if item.ProductID == productID {
			removed.Quantity += item.Quantity
			removed.Amount += item.Amount
		}
	}
	return removed, nil
}

// TakeCart empties the user's cart and returns what it held.
// Items added after the swap stay in the cart for the next checkout.
func (r *UserRepository) TakeCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"cart": 1})

	var before models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"cart": []models.CartItem{}, "updatedAt": time.Now()}},
		opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("take cart: %w", err)
	}
	return before.Cart, nil
}
