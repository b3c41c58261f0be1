package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountRepository reads and writes the credentials of one role's collection.
// Users and admins share it; defaults seeds role specific fields on creation.
type AccountRepository struct {
	collection *mongo.Collection
	role       models.Role
	defaults   bson.M
}

func NewAccountRepository(db *mongo.Database, role models.Role, defaults bson.M) *AccountRepository {
	name := config.UsersCollection
	if role == models.RoleAdmin {
		name = config.AdminsCollection
	}
	return &AccountRepository{
		collection: db.Collection(name),
		role:       role,
		defaults:   defaults,
	}
}

// Role served by this repository
func (r *AccountRepository) Role() models.Role {
	return r.role
}

// FindByEmail returns nil when no account uses email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

// FindByID returns nil when the account does not exist
func (r *AccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// Create inserts the account with the repository defaults and sets its ID
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	now := time.Now()
	account.Email = normalizeEmail(account.Email)
	account.CreatedAt = now
	account.UpdatedAt = now

	doc := bson.M{
		"name":      account.Name,
		"email":     account.Email,
		"password":  account.Password,
		"createdAt": account.CreatedAt,
		"updatedAt": account.UpdatedAt,
	}
	for k, v := range r.defaults {
		doc[k] = v
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert %s: %w", r.role, err)
	}
	account.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// UpdatePassword stores a new password hash
func (r *AccountRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password": hash, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", r.role, err)
	}
	return &account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
