package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/infrastructure/notify"
	"github.com/minicart/fulfillment/internal/infrastructure/outbox"
)

type recordingNotifier struct {
	mu       sync.Mutex
	received []domain.PlacedEvent
	err      error
	done     chan struct{}
}

func (n *recordingNotifier) Notify(ctx context.Context, evt domain.PlacedEvent) error {
	n.mu.Lock()
	n.received = append(n.received, evt)
	n.mu.Unlock()
	if n.done != nil {
		n.done <- struct{}{}
	}
	return n.err
}

func placedEvent(orderID string) domain.PlacedEvent {
	return domain.PlacedEvent{
		OrderID:    orderID,
		OwnerID:    "owner-1",
		Total:      decimal.NewFromInt(20),
		Placements: []domain.Placement{{OrderID: orderID, ProductID: "prod-a", Quantity: 2}},
		OccurredAt: time.Now().UTC(),
	}
}

func TestWorkerDeliversPlacedEvents(t *testing.T) {
	bus := outbox.NewBus(nil)
	notifier := &recordingNotifier{done: make(chan struct{}, 1)}
	notify.NewWorker(bus, notifier, nil).Start()

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	require.NoError(t, bus.Publish(ctx, placedEvent("order-1")))

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.received, 1)
	assert.Equal(t, "order-1", notifier.received[0].OrderID)
	assert.Equal(t, "owner-1", notifier.received[0].OwnerID)
}

func TestWorkerSwallowsNotifierFailures(t *testing.T) {
	bus := outbox.NewBus(nil)
	notifier := &recordingNotifier{done: make(chan struct{}, 2), err: errors.New("webhook down")}
	notify.NewWorker(bus, notifier, nil).Start()

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	// Publishing keeps working after a failed delivery.
	require.NoError(t, bus.Publish(ctx, placedEvent("order-1")))
	require.NoError(t, bus.Publish(ctx, placedEvent("order-2")))

	for i := 0; i < 2; i++ {
		select {
		case <-notifier.done:
		case <-time.After(2 * time.Second):
			t.Fatal("notification not attempted")
		}
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.received, 2)
}
