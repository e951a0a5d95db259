package domain

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// LineItem is one cart entry as submitted by the client.
type LineItem struct {
	ProductID string `json:"id" validate:"required"`
	Color     string `json:"color" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// OrderLine is a line item enriched with the name and prices captured at
// order time. It is what orders and transactions store.
type OrderLine struct {
	ProductID string          `json:"id"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	MainPrice decimal.Decimal `json:"mainPrice"`
}

// Subtotal returns UnitPrice * Quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MainAmount returns MainPrice * Quantity.
func (l OrderLine) MainAmount() decimal.Decimal {
	return l.MainPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item strips the captured prices.
func (l OrderLine) Item() LineItem {
	return LineItem{ProductID: l.ProductID, Color: l.Color, Quantity: l.Quantity}
}

// Items converts stored lines back into line items.
func Items(lines []OrderLine) []LineItem {
	items := make([]LineItem, len(lines))
	for i, l := range lines {
		items[i] = l.Item()
	}
	return items
}

// MergeLines sums the quantities of lines addressing the same variant,
// keeping first-seen order.
func MergeLines(lines []LineItem) []LineItem {
	type key struct{ id, color string }
	idx := make(map[key]int, len(lines))
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		k := key{l.ProductID, l.Color}
		if i, ok := idx[k]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[k] = len(out)
		out = append(out, l)
	}
	return out
}

// LockOrder returns a copy of lines sorted by product id then color. Every
// operation that touches variant rows walks them in this order so two
// transactions never wait on each other's locks.
func LockOrder(lines []LineItem) []LineItem {
	out := slices.Clone(lines)
	slices.SortStableFunc(out, func(a, b LineItem) int {
		return cmp.Or(cmp.Compare(a.ProductID, b.ProductID), cmp.Compare(a.Color, b.Color))
	})
	return out
}

// Totals sums subtotals and main amounts across lines.
func Totals(lines []OrderLine) (total, mainAmount decimal.Decimal) {
	total, mainAmount = decimal.Zero, decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		mainAmount = mainAmount.Add(l.MainAmount())
	}
	return total, mainAmount
}
