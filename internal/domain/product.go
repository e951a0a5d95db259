package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the money fields of a product.
type Pricing struct {
	AskingPrice decimal.Decimal `json:"askingPrice"`
	MainPrice   decimal.Decimal `json:"mainPrice"`
	// Discount is a percentage in [0, 100].
	Discount decimal.Decimal `json:"discount"`
}

// UnitPrice is the asking price less the discount, rounded to cents.
func (p Pricing) UnitPrice() decimal.Decimal {
	return p.AskingPrice.Mul(hundred.Sub(p.Discount)).Div(hundred).Round(2)
}

// Product is a catalog entry. Stock lives on its variants.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Person      string `json:"person"`
	Pricing
	Sales     int       `json:"sales"`
	Variants  []Variant `json:"utilities"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Variant is one color of a product and its stock count.
type Variant struct {
	ProductID string    `json:"productId"`
	Color     string    `json:"color"`
	Stock     int       `json:"numberOfProducts"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Populated when the variant is loaded for checkout.
	ProductName string  `json:"-"`
	Pricing     Pricing `json:"-"`
}

// StockMovement reasons.
const (
	MovementReserve = "reserve"
	MovementRestock = "restock"
	MovementFulfill = "fulfill"
	MovementAdjust  = "adjust"
)

// StockMovement is one audited change to a variant's stock.
type StockMovement struct {
	ProductID string    `json:"productId"`
	Color     string    `json:"color"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
}
