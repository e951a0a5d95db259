package domain

import "time"

// Review is a rating left by a buyer who received the product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Color     string    `json:"color"`
	UserEmail string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewSummary aggregates the ratings of a product.
type ReviewSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}
