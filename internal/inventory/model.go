package inventory

import "time"

// Movement is an append-only ledger row; stock_quantity on the product is its running sum.
type Movement struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	QuantityDelta int       `json:"quantity_delta"`
	Reason        string    `json:"reason"`
	ReferenceID   *string   `json:"reference_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type AdjustInput struct {
	ProductID     string  `json:"product_id" validate:"required,uuid"`
	QuantityDelta int     `json:"quantity_delta"`
	Reason        string  `json:"reason" validate:"required,min=1,max=200"`
	ReferenceID   *string `json:"reference_id" validate:"omitempty,uuid"`
}

const ReasonInitialStock = "initial stock"
