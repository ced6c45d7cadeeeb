package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int             `json:"pk"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   int             `json:"created_by"`
	Archived    bool            `json:"archived"`
	Preview     string          `json:"preview"`
	Images      []ProductImage  `json:"images,omitempty"`
}

func (p Product) String() string {
	return fmt.Sprintf("Product(pk=%d, name=%q)", p.ID, p.Name)
}

// ShortDescription truncates the description to n runes, appending "..." when cut.
func (p Product) ShortDescription(n int) string {
	r := []rune(p.Description)
	if len(r) <= n {
		return p.Description
	}
	return string(r[:n]) + "..."
}

type ProductImage struct {
	ID          int    `json:"id"`
	ProductID   int    `json:"product_id"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

type ProductExportItem struct {
	ID       int             `json:"pk"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Archived bool            `json:"archived"`
}

type ProductsExport struct {
	Products []ProductExportItem `json:"products"`
}

// ProductFilter drives both the shop listing and the REST collection.
type ProductFilter struct {
	IncludeArchived bool
	Search          string
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	Discount        *int
	Archived        *bool
	Ordering        []string
	Limit           int
	Offset          int
}
