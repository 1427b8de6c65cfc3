package models

import "time"

type Product struct {
	ID              int       `db:"id" json:"id"`
	ProductName     string    `db:"product_name" json:"product_name"`
	Cost            int       `db:"cost" json:"cost"`
	AmountAvailable int       `db:"amount_available" json:"amount_available"`
	SellerID        int       `db:"seller_id" json:"seller"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ProductRequest is the body of product create and update calls.
type ProductRequest struct {
	ProductName     string `json:"product_name"`
	Cost            *int   `json:"cost"`
	AmountAvailable *int   `json:"amount_available"`
}
