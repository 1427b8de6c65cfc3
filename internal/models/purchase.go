package models

type BuyRequest struct {
	ProductID *int `json:"product_id"`
	Amount    *int `json:"amount"`
}

// PurchaseResult is returned by a successful buy. Change is left out of the
// JSON body when nothing is returned to the buyer.
type PurchaseResult struct {
	Product string `json:"product"`
	Total   int    `json:"total"`
	Change  int    `json:"change,omitempty"`
}

type DepositResult struct {
	Detail   string `json:"detail"`
	Username string `json:"username"`
	Amount   int    `json:"amount"`
	Deposit  int    `json:"deposit"`
}
