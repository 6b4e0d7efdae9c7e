package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlacedEvent is emitted after an order commits. It carries the finalized
// order so the notification collaborator never has to read back state.
type PlacedEvent struct {
	OrderID    string
	OwnerID    string
	Total      decimal.Decimal
	Placements []Placement
	OccurredAt time.Time
}

func (PlacedEvent) EventName() string { return "order.placed" }

func NewPlacedEvent(o *Order) PlacedEvent {
	return PlacedEvent{
		OrderID:    o.ID,
		OwnerID:    o.OwnerID,
		Total:      o.Total,
		Placements: append([]Placement(nil), o.Placements...),
		OccurredAt: time.Now().UTC(),
	}
}
