package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domain "github.com/minicart/fulfillment/internal/domain/catalog"
)

// Catalog is the Postgres-backed product catalog. DecrementAll relies on a
// conditional UPDATE per product: the WHERE clause re-checks availability at
// commit time, so the non-negative-stock invariant holds no matter what the
// validation snapshot said.
type Catalog struct {
	db *DB
}

func NewCatalog(db *DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) Snapshot(ctx context.Context, productIDs []string) (domain.Snapshot, error) {
	if len(productIDs) == 0 {
		return domain.Snapshot{}, nil
	}

	rows, err := c.db.querier(ctx).Query(ctx, `
		SELECT id, title, unit_price::text, quantity
		FROM products
		WHERE id = ANY($1)
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog: snapshot: %w", err)
	}
	defer rows.Close()

	snap := make(domain.Snapshot, len(productIDs))
	for rows.Next() {
		var (
			id, title, price string
			quantity         int
		)
		if err := rows.Scan(&id, &title, &price, &quantity); err != nil {
			return nil, fmt.Errorf("catalog: snapshot scan: %w", err)
		}
		unitPrice, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("catalog: snapshot price %q: %w", price, err)
		}
		snap[id] = domain.View{Title: title, UnitPrice: unitPrice, Available: quantity}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: snapshot rows: %w", err)
	}

	for _, id := range productIDs {
		if _, ok := snap[id]; !ok {
			return nil, &domain.NotFoundError{ProductID: id}
		}
	}
	return snap, nil
}

func (c *Catalog) DecrementAll(ctx context.Context, reqs []domain.DecrementRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	// All-or-nothing requires a surrounding transaction; open one when the
	// caller has not already.
	if txFrom(ctx) == nil {
		return c.db.RunInTx(ctx, func(ctx context.Context) error {
			return c.decrementAll(ctx, reqs)
		})
	}
	return c.decrementAll(ctx, reqs)
}

func (c *Catalog) decrementAll(ctx context.Context, reqs []domain.DecrementRequest) error {
	q := c.db.querier(ctx)

	for _, r := range reqs {
		if r.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}

		tag, err := q.Exec(ctx, `
			UPDATE products
			SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND quantity >= $2
		`, r.ProductID, r.Quantity)
		if err != nil {
			return fmt.Errorf("catalog: decrement %s: %w", r.ProductID, err)
		}
		if tag.RowsAffected() > 0 {
			continue
		}

		// The guard refused: distinguish a missing product from a shortfall.
		// The returned error aborts the transaction, undoing earlier lines.
		var remaining int
		err = q.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1`, r.ProductID).Scan(&remaining)
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{ProductID: r.ProductID}
		}
		if err != nil {
			return fmt.Errorf("catalog: decrement %s: %w", r.ProductID, err)
		}
		return &domain.InsufficientStockError{ProductID: r.ProductID, Remaining: remaining}
	}
	return nil
}
