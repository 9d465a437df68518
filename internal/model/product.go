package model

import (
	"strings"
	"time"
)

type Currency string

const (
	CurrencyUZS Currency = "UZS"
	CurrencyUSD Currency = "USD"

	// DefaultCurrency is assigned whenever a draft or record carries no currency.
	DefaultCurrency = CurrencyUZS

	// PlaceholderName is stored for drafts the extractor returned without a name.
	PlaceholderName = "Unknown"
)

// OrDefault returns c, or DefaultCurrency when c is empty.
func (c Currency) OrDefault() Currency {
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// ProductDraft is an unconfirmed product as produced by the extractor.
// A nil field means the value was not captured.
type ProductDraft struct {
	Name      *string   `json:"name,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Firma     *string   `json:"firma,omitempty"`
	Code      *string   `json:"code,omitempty"`
	Quantity  *int64    `json:"quantity,omitempty"`
	CostPrice *float64  `json:"cost_price,omitempty"`
	SalePrice *float64  `json:"sale_price,omitempty"`
	Currency  *Currency `json:"currency,omitempty"`
}

// DraftBatch is the ordered set of drafts produced by one extraction.
type DraftBatch []ProductDraft

// Product is a persisted inventory record.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Category  *string   `db:"category" json:"category"` // Nullable
	Firma     *string   `db:"firma" json:"firma"`
	Code      *string   `db:"code" json:"code"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	CostPrice *float64  `db:"cost_price" json:"cost_price"`
	SalePrice *float64  `db:"sale_price" json:"sale_price"`
	Currency  Currency  `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewProductFromDraft applies the persistence defaults to a draft.
func NewProductFromDraft(ownerID int64, d ProductDraft) *Product {
	p := &Product{
		OwnerID:   ownerID,
		Name:      PlaceholderName,
		Category:  nonEmpty(d.Category),
		Firma:     nonEmpty(d.Firma),
		Code:      nonEmpty(d.Code),
		CostPrice: d.CostPrice,
		SalePrice: d.SalePrice,
		Currency:  DefaultCurrency,
	}
	if d.Name != nil && strings.TrimSpace(*d.Name) != "" {
		p.Name = strings.TrimSpace(*d.Name)
	}
	if d.Quantity != nil {
		p.Quantity = *d.Quantity
	}
	if d.Currency != nil {
		p.Currency = d.Currency.OrDefault()
	}
	return p
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
