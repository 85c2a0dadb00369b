package stock

import (
	"time"
)

// Direction classifies a ledger entry by how the change was initiated.
type Direction string

const (
	// DirectionIn represents received stock.
	DirectionIn Direction = "IN"
	// DirectionOut represents issued stock.
	DirectionOut Direction = "OUT"
	// DirectionCheckout represents stock taken by a staff member scanning a label.
	DirectionCheckout Direction = "CHECKOUT"
)

// LedgerEntry is an immutable witness of one quantity change. The sum of
// deltas for a product, added to its initial quantity, always equals the
// product's current quantity.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	ActorID   *int64    `json:"actor_id"`
	Direction Direction `json:"direction"`
	Delta     int64     `json:"delta"`
	Note      string    `json:"note,omitempty"`
	Ref       string    `json:"ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangeInput describes one requested stock mutation. Delta is the signed
// quantity change; Direction tells the ledger how to classify it. ActorID
// zero means system-initiated. Ref optionally ties the change to an external
// document and must be a UUID when present.
type ChangeInput struct {
	Code      string
	Delta     int64
	Direction Direction
	ActorID   int64
	Note      string
	Ref       string
}

// LedgerFilter narrows ledger listings.
type LedgerFilter struct {
	ProductID int64
	Direction Direction
	Limit     int
}
