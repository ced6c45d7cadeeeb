package models

import "time"

type Order struct {
	ID              int       `json:"pk"`
	DeliveryAddress string    `json:"delivery_address"`
	Promocode       string    `json:"promocode"`
	CreatedAt       time.Time `json:"created_at"`
	UserID          int       `json:"user_id"`
	Receipt         string    `json:"receipt,omitempty"`
	Products        []Product `json:"products,omitempty"`
}

func (o Order) ProductIDs() []int {
	ids := make([]int, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

type OrderExportItem struct {
	ID              int      `json:"pk"`
	DeliveryAddress string   `json:"delivery_address"`
	Promocode       string   `json:"promocode"`
	UserID          int      `json:"user_id"`
	Products        []string `json:"products"`
}

type OrdersExport struct {
	Orders []OrderExportItem `json:"orders"`
}

// UserOrderExportItem is the per-user export row; the payload is keyed by the
// owner's username.
type UserOrderExportItem struct {
	ID              int    `json:"pk"`
	DeliveryAddress string `json:"delivery_address"`
	Promocode       string `json:"promocode"`
}

type OrderFilter struct {
	UserID          *int
	Search          string
	DeliveryAddress *string
	Promocode       *string
	Ordering        []string
	Limit           int
	Offset          int
}
