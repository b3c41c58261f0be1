package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminSales is the sales ledger of one admin
type AdminSales struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AdminID  primitive.ObjectID `json:"adminId" bson:"adminId"`
	Products []ProductSales     `json:"products" bson:"products"`
}

// ProductSales groups the sale events of one product
type ProductSales struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Title     string             `json:"title" bson:"title"`
	ImageURL  string             `json:"imageUrl" bson:"imageUrl"`
	Sales     []Sale             `json:"sales" bson:"sales"`
}

// Sale records units sold with what they brought in and what they cost
type Sale struct {
	Quantity int       `json:"quantity" bson:"quantity"`
	SoldAt   time.Time `json:"soldAt" bson:"soldAt"`
	Revenue  float64   `json:"revenue" bson:"revenue"`
	Cost     float64   `json:"cost" bson:"cost"`
}

// ProductSalesSummary is a product's totals within a reporting interval
type ProductSalesSummary struct {
	ProductID  primitive.ObjectID `json:"productId"`
	Title      string             `json:"title"`
	ImageURL   string             `json:"imageUrl"`
	Quantity   int                `json:"quantity"`
	TotalSales float64            `json:"totalSales"`
	Profit     float64            `json:"profit"`
}

// SaleFromOrderProduct builds the ledger entry for an ordered line
func SaleFromOrderProduct(p OrderProduct, soldAt time.Time) Sale {
	return Sale{
		Quantity: p.Quantity,
		SoldAt:   soldAt,
		Revenue:  p.LineTotal(),
		Cost:     p.Cost(),
	}
}

// Summarize totals the sales made in [from, to] per product.
// Products without a sale in the interval are left out. Entries sharing a
// product id are merged, keeping the most recent title and image.
func (s *AdminSales) Summarize(from, to time.Time) []ProductSalesSummary {
	type acc struct {
		summary ProductSalesSummary
		revenue decimal.Decimal
		cost    decimal.Decimal
	}

	var order []primitive.ObjectID
	byProduct := make(map[primitive.ObjectID]*acc)

	for _, product := range s.Products {
		for _, sale := range product.Sales {
			if sale.SoldAt.Before(from) || sale.SoldAt.After(to) {
				continue
			}
			a, ok := byProduct[product.ProductID]
			if !ok {
				a = &acc{summary: ProductSalesSummary{ProductID: product.ProductID}}
				byProduct[product.ProductID] = a
				order = append(order, product.ProductID)
			}
			a.summary.Title = product.Title
			a.summary.ImageURL = product.ImageURL
			a.summary.Quantity += sale.Quantity
			a.revenue = a.revenue.Add(decimal.NewFromFloat(sale.Revenue))
			a.cost = a.cost.Add(decimal.NewFromFloat(sale.Cost))
		}
	}

	summaries := make([]ProductSalesSummary, 0, len(order))
	for _, id := range order {
		a := byProduct[id]
		a.summary.TotalSales = a.revenue.Round(2).InexactFloat64()
		a.summary.Profit = a.revenue.Sub(a.cost).Round(2).InexactFloat64()
		summaries = append(summaries, a.summary)
	}
	return summaries
}
