package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product model
type Product struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title            string             `json:"title" bson:"title"`
	ImageURL         string             `json:"imageUrl" bson:"imageUrl"`
	Description      string             `json:"description" bson:"description"`
	BuyingPrice      float64            `json:"buyingPrice" bson:"buyingPrice"`
	PercentageProfit float64            `json:"percentageProfit" bson:"percentageProfit"`
	SellingPrice     float64            `json:"sellingPrice" bson:"sellingPrice"`
	Quantity         int                `json:"quantity" bson:"quantity"`
	Category         string             `json:"category" bson:"category"`
	Brand            string             `json:"brand" bson:"brand"`
	AdminID          primitive.ObjectID `json:"adminId" bson:"adminId"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductRequest is the admin product form
type ProductRequest struct {
	Title            string  `form:"title" validate:"required,min=3,max=100"`
	Description      string  `form:"description" validate:"required,min=10,max=1000"`
	BuyingPrice      float64 `form:"buyingPrice" validate:"required,gte=1,lte=1000000"`
	PercentageProfit float64 `form:"percentageProfit" validate:"gte=0,lte=100"`
	Quantity         int     `form:"quantity" validate:"gte=0,lte=20000"`
	Category         string  `form:"category" validate:"required,min=3,max=50"`
	Brand            string  `form:"brand" validate:"required,min=2,max=50"`
}

// Metadata collects every category and brand admins have used
type Metadata struct {
	ID         string   `json:"-" bson:"_id"`
	Categories []string `json:"categories" bson:"categories"`
	Brands     []string `json:"brands" bson:"brands"`
}

// SellingPrice applies a percentage margin to a buying price, rounded to cents.
func SellingPrice(buyingPrice, percentageProfit float64) float64 {
	margin := decimal.NewFromFloat(percentageProfit).Div(decimal.NewFromInt(100))
	price := decimal.NewFromFloat(buyingPrice).Mul(decimal.NewFromInt(1).Add(margin))
	return price.Round(2).InexactFloat64()
}

// Apply copies the form values onto p and recomputes the selling price
func (req ProductRequest) Apply(p *Product) {
	p.Title = req.Title
	p.Description = req.Description
	p.BuyingPrice = req.BuyingPrice
	p.PercentageProfit = req.PercentageProfit
	p.Quantity = req.Quantity
	p.Category = req.Category
	p.Brand = req.Brand
	p.SellingPrice = SellingPrice(req.BuyingPrice, req.PercentageProfit)
}

// LineTotal is the price of quantity units at the current selling price
func (p *Product) LineTotal(quantity int) float64 {
	return decimal.NewFromFloat(p.SellingPrice).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}
