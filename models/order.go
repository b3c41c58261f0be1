package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is an immutable snapshot of a checked-out cart
type Order struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Products  []OrderProduct     `json:"products" bson:"products"`
	Total     float64            `json:"total" bson:"total"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// OrderProduct freezes the product fields at purchase time
type OrderProduct struct {
	ProductID    primitive.ObjectID `json:"productId" bson:"productId"`
	Title        string             `json:"title" bson:"title"`
	ImageURL     string             `json:"imageUrl" bson:"imageUrl"`
	SellingPrice float64            `json:"sellingPrice" bson:"sellingPrice"`
	BuyingPrice  float64            `json:"buyingPrice" bson:"buyingPrice"`
	Quantity     int                `json:"quantity" bson:"quantity"`
	Total        float64            `json:"total" bson:"total"`
	AdminID      primitive.ObjectID `json:"adminId" bson:"adminId"`
}

// NewOrder snapshots the cart lines into an order and totals it
func NewOrder(userID primitive.ObjectID, lines []CartLine, now time.Time) *Order {
	order := &Order{
		UserID:    userID,
		Products:  make([]OrderProduct, 0, len(lines)),
		CreatedAt: now,
	}
	for _, line := range lines {
		order.Products = append(order.Products, OrderProduct{
			ProductID:    line.Product.ID,
			Title:        line.Product.Title,
			ImageURL:     line.Product.ImageURL,
			SellingPrice: line.Product.SellingPrice,
			BuyingPrice:  line.Product.BuyingPrice,
			Quantity:     line.Quantity,
			Total:        line.Total,
			AdminID:      line.Product.AdminID,
		})
	}
	order.Total = order.ComputeTotal()
	return order
}

// LineTotal is what the customer paid for the line
func (p OrderProduct) LineTotal() float64 {
	return p.Total
}

// Cost is what the line cost the admin at buying price
func (p OrderProduct) Cost() float64 {
	return decimal.NewFromFloat(p.BuyingPrice).Mul(decimal.NewFromInt(int64(p.Quantity))).Round(2).InexactFloat64()
}

// ComputeTotal sums the order lines
func (o *Order) ComputeTotal() float64 {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(decimal.NewFromFloat(p.LineTotal()))
	}
	return total.Round(2).InexactFloat64()
}
