package notify

import (
	"context"
	"time"

	domain "github.com/minicart/fulfillment/internal/domain/order"
	domoutbox "github.com/minicart/fulfillment/internal/domain/outbox"
	"github.com/minicart/fulfillment/internal/observability"
	"github.com/minicart/fulfillment/internal/observability/logctx"
)

const (
	notifyPeer     = "notifier"
	notifyEndpoint = "order.placed"
)

// Worker subscribes to placed-order events and hands them to the notifier.
// Failures are recorded for operational visibility and never surface to the
// caller who placed the order.
type Worker struct {
	subscriber domoutbox.Subscriber
	notifier   Notifier

	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewWorker(subscriber domoutbox.Subscriber, notifier Notifier, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber:   subscriber,
		notifier:     notifier,
		log:          tel.Logger().With(observability.F("component", "notify_worker")),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(domain.PlacedEvent{}.EventName(), w.handleOrderPlaced)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, w.log)
	evt, ok := e.(domain.PlacedEvent)
	if !ok {
		return nil
	}

	start := time.Now()
	outcome := "success"
	err := w.notifier.Notify(ctx, evt)
	if err != nil {
		outcome = "error"
		logger.Warn("notification_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("error", err),
		)
	} else {
		logger.Info("notification_sent",
			observability.F("order_id", evt.OrderID),
		)
	}

	w.extCounter.Add(1,
		observability.L("peer", notifyPeer),
		observability.L("endpoint", notifyEndpoint),
		observability.L("outcome", outcome),
	)
	w.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", notifyPeer),
		observability.L("endpoint", notifyEndpoint),
	)
	return err
}
