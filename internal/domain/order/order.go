package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: already exists")
	ErrInvalidTransition = errors.New("order: invalid state transition")
	ErrInvalidTotal      = errors.New("order: total must be zero or greater")
)

type Status string

const (
	// StatusDraft is an order under construction; drafts are never persisted.
	StatusDraft Status = "draft"
	// StatusPlaced is the committed, terminal success state.
	StatusPlaced Status = "placed"
	// StatusRejected is the terminal failure state; rejected orders leave no trace.
	StatusRejected Status = "rejected"
)

// Line is one requested product/quantity pair of a draft order.
type Line struct {
	ProductID string
	Quantity  int
}

// Placement is the join record linking a committed order to one product.
// Written exactly once, at commit; never independently mutated.
type Placement struct {
	OrderID   string
	ProductID string
	Quantity  int
}

type Order struct {
	ID         string
	OwnerID    string
	Total      decimal.Decimal
	Status     Status
	Placements []Placement
	CreatedAt  time.Time
}

// New builds a draft order for the given owner. Per-line checks are the
// validator's job; New only guards the identifiers.
func New(id, ownerID string, lines []Line) (*Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	if ownerID == "" {
		return nil, errors.New("order: owner id is required")
	}

	placements := make([]Placement, 0, len(lines))
	for _, l := range lines {
		placements = append(placements, Placement{
			OrderID:   id,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		})
	}

	return &Order{
		ID:         id,
		OwnerID:    ownerID,
		Total:      decimal.Zero,
		Status:     StatusDraft,
		Placements: placements,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Place moves a draft to its terminal success state with the server-computed
// total. Client-supplied totals never reach this point.
func (o *Order) Place(total decimal.Decimal) error {
	if o.Status != StatusDraft {
		return ErrInvalidTransition
	}
	if total.IsNegative() {
		return ErrInvalidTotal
	}
	o.Total = total
	o.Status = StatusPlaced
	return nil
}

// Reject moves a draft to its terminal failure state.
func (o *Order) Reject() error {
	if o.Status != StatusDraft {
		return ErrInvalidTransition
	}
	o.Status = StatusRejected
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Placements = append([]Placement(nil), o.Placements...)
	return &clone
}
