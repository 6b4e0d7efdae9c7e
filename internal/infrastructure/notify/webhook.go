package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	domain "github.com/minicart/fulfillment/internal/domain/order"
)

// WebhookNotifier POSTs placed orders to an external endpoint.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &WebhookNotifier{client: client, url: url}
}

type webhookPayload struct {
	OrderID    string            `json:"order_id"`
	OwnerID    string            `json:"owner_id"`
	TotalPrice string            `json:"total_price"`
	Placements []webhookLineItem `json:"placements"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type webhookLineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, evt domain.PlacedEvent) error {
	payload := webhookPayload{
		OrderID:    evt.OrderID,
		OwnerID:    evt.OwnerID,
		TotalPrice: evt.Total.String(),
		OccurredAt: evt.OccurredAt,
	}
	for _, p := range evt.Placements {
		payload.Placements = append(payload.Placements, webhookLineItem{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
		})
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("notify: webhook post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: webhook status %d", resp.StatusCode())
	}
	return nil
}
