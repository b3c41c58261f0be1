// models/user.go
package models

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model
type User struct {
	Account `bson:",inline"`
	Balance float64    `json:"balance" bson:"balance"`
	Cart    []CartItem `json:"cart" bson:"cart"`
}

// CartItem is one product line of a user's cart.
// Amount is what was debited from the balance for it and what a removal refunds.
type CartItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Amount    float64            `json:"amount" bson:"amount"`
}

// CartLine is a cart item joined with the product it refers to
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

// CartTotal sums what was paid for the cart
func CartTotal(items []CartItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Amount))
	}
	return total.Round(2).InexactFloat64()
}

type AddToCartRequest struct {
	ProductID string `form:"productId" validate:"required,len=24,hexadecimal"`
	Quantity  int    `form:"quantity" validate:"required,min=1"`
	Page      int    `form:"page"`
}
