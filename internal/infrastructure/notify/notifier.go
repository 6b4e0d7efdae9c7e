package notify

import (
	"context"

	domain "github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/observability"
	"github.com/minicart/fulfillment/internal/observability/logctx"
)

// Notifier delivers a finalized order to the outside world. Delivery is
// best-effort: the committed order stands regardless of the outcome here.
type Notifier interface {
	Notify(ctx context.Context, evt domain.PlacedEvent) error
}

// LogNotifier is the default collaborator: it records the placed order in the
// service log. Useful for local runs and as a fallback when no webhook is
// configured.
type LogNotifier struct {
	log observability.Logger
}

func NewLogNotifier(logger observability.Logger) *LogNotifier {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogNotifier{log: logger.With(observability.F("component", "log_notifier"))}
}

func (n *LogNotifier) Notify(ctx context.Context, evt domain.PlacedEvent) error {
	logctx.FromOr(ctx, n.log).Info("order_placed_notification",
		observability.F("order_id", evt.OrderID),
		observability.F("owner_id", evt.OwnerID),
		observability.F("total", evt.Total.String()),
		observability.F("placements", len(evt.Placements)),
	)
	return nil
}
