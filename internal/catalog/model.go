package catalog

import (
	"time"
)

// Product is the canonical record of a trackable item. The code is the QR
// payload printed on the physical label and is immutable once assigned.
// Quantity is owned exclusively by the stock engine; nothing else writes it.
type Product struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	AssetCode  string    `json:"asset_code"`
	ImportDate time.Time `json:"import_date"`
	Quantity   int64     `json:"quantity"`
	Unit       string    `json:"unit"`
	ImageRef   string    `json:"image_ref,omitempty"`
	CreatedBy  int64     `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search         string
	Category       string
	ImportDateFrom time.Time
	ImportDateTo   time.Time
	Page           int
	PerPage        int
}

// NewProduct carries the fields an actor supplies at creation. The code and
// timestamps are server-assigned.
type NewProduct struct {
	Name       string
	Category   string
	AssetCode  string
	ImportDate time.Time
	Quantity   int64
	Unit       string
	ImageRef   string
}

// FieldUpdate holds a partial update of descriptive columns. Nil means leave
// unchanged. Quantity is deliberately absent: quantity changes go through the
// stock engine, never through a catalog edit.
type FieldUpdate struct {
	Name       *string
	Category   *string
	AssetCode  *string
	ImportDate *time.Time
	Unit       *string
	ImageRef   *string
}

// IsEmpty reports whether the update touches no columns.
func (u FieldUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.AssetCode == nil &&
		u.ImportDate == nil && u.Unit == nil && u.ImageRef == nil
}
