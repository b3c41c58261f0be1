package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/HSouheill/sm_online_shop/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenRepository issues and redeems password reset tokens
type TokenRepository struct {
	collection *mongo.Collection
	validity   time.Duration
	now        func() time.Time
}

func NewTokenRepository(db *mongo.Database, validity time.Duration) *TokenRepository {
	return &TokenRepository{
		collection: db.Collection(config.TokensCollection),
		validity:   validity,
		now:        time.Now,
	}
}

// CreateOneForID issues a token for the account requesterID of role
func (r *TokenRepository) CreateOneForID(ctx context.Context, requesterID primitive.ObjectID, role models.Role) (*models.ResetToken, error) {
	if requesterID.IsZero() {
		return nil, ErrInvalidID
	}

	value, err := utils.GenerateResetToken()
	if err != nil {
		return nil, err
	}

	now := r.now()
	token := &models.ResetToken{
		Token:       value,
		RequesterID: requesterID,
		Role:        role,
		ExpiresAt:   now.Add(r.validity),
		CreatedAt:   now,
	}
	res, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("insert reset token: %w", err)
	}
	token.ID = res.InsertedID.(primitive.ObjectID)
	return token, nil
}

// FindTokenDetailsByToken returns nil when the token is unknown or expired
func (r *TokenRepository) FindTokenDetailsByToken(ctx context.Context, value string) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.collection.FindOne(ctx, bson.M{
		"token":     value,
		"expiresAt": bson.M{"$gt": r.now()},
	}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	return &token, nil
}

// RedeemToken deletes a live token of role and returns it. Only one caller can
// redeem a given token; the others get nil.
func (r *TokenRepository) RedeemToken(ctx context.Context, value string, role models.Role) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.collection.FindOneAndDelete(ctx, bson.M{
		"token":     value,
		"role":      role,
		"expiresAt": bson.M{"$gt": r.now()},
	}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("redeem reset token: %w", err)
	}
	return &token, nil
}

// PurgeExpired deletes every token that expired before now
func (r *TokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": r.now()}})
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return res.DeletedCount, nil
}
