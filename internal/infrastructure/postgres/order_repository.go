package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domain "github.com/minicart/fulfillment/internal/domain/order"
)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	q := r.db.querier(ctx)

	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, owner_id, total_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, order.ID, order.OwnerID, order.Total.String(), string(order.Status), order.CreatedAt)
	if err != nil {
		return fmt.Errorf("order repository: insert: %w", err)
	}

	for _, p := range order.Placements {
		_, err := q.Exec(ctx, `
			INSERT INTO placements (order_id, product_id, quantity)
			VALUES ($1, $2, $3)
		`, p.OrderID, p.ProductID, p.Quantity)
		if err != nil {
			return fmt.Errorf("order repository: insert placement: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) FindByOwner(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	q := r.db.querier(ctx)

	var (
		entity domain.Order
		total  string
		status string
	)
	err := q.QueryRow(ctx, `
		SELECT id, owner_id, total_price::text, status, created_at
		FROM orders
		WHERE id = $1 AND owner_id = $2
	`, orderID, ownerID).Scan(&entity.ID, &entity.OwnerID, &total, &status, &entity.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: find: %w", err)
	}

	entity.Status = domain.Status(status)
	if entity.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order repository: total %q: %w", total, err)
	}
	if entity.Placements, err = r.placements(ctx, entity.ID); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	q := r.db.querier(ctx)

	rows, err := q.Query(ctx, `
		SELECT id, owner_id, total_price::text, status, created_at
		FROM orders
		WHERE owner_id = $1
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var (
			entity domain.Order
			total  string
			status string
		)
		if err := rows.Scan(&entity.ID, &entity.OwnerID, &total, &status, &entity.CreatedAt); err != nil {
			return nil, fmt.Errorf("order repository: list scan: %w", err)
		}
		entity.Status = domain.Status(status)
		if entity.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("order repository: total %q: %w", total, err)
		}
		orders = append(orders, &entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order repository: list rows: %w", err)
	}

	for _, o := range orders {
		if o.Placements, err = r.placements(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) placements(ctx context.Context, orderID string) ([]domain.Placement, error) {
	rows, err := r.db.querier(ctx).Query(ctx, `
		SELECT order_id, product_id, quantity
		FROM placements
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: placements: %w", err)
	}
	defer rows.Close()

	var placements []domain.Placement
	for rows.Next() {
		var p domain.Placement
		if err := rows.Scan(&p.OrderID, &p.ProductID, &p.Quantity); err != nil {
			return nil, fmt.Errorf("order repository: placements scan: %w", err)
		}
		placements = append(placements, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order repository: placements rows: %w", err)
	}
	return placements, nil
}
