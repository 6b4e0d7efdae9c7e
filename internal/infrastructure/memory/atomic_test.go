package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minicart/fulfillment/internal/domain/catalog"
	"github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/infrastructure/memory"
)

func available(t *testing.T, c *memory.Catalog, id string) int {
	t.Helper()
	snap, err := c.Snapshot(context.Background(), []string{id})
	require.NoError(t, err)
	return snap[id].Available
}

func TestRunInTxCommits(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5})
	repo := memory.NewOrderRepository()
	atomic := memory.NewAtomic()

	err := atomic.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := c.DecrementAll(ctx, []catalog.DecrementRequest{{ProductID: "prod-a", Quantity: 3}}); err != nil {
			return err
		}
		return repo.Insert(ctx, placedOrder(t, "order-1", "owner-1"))
	})
	require.NoError(t, err)

	assert.Equal(t, 2, available(t, c, "prod-a"))
	_, err = repo.FindByOwner(context.Background(), "owner-1", "order-1")
	assert.NoError(t, err)
}

func TestRunInTxRollsBackEveryPriorStep(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5})
	repo := memory.NewOrderRepository()
	atomic := memory.NewAtomic()

	boom := errors.New("boom")
	err := atomic.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := c.DecrementAll(ctx, []catalog.DecrementRequest{{ProductID: "prod-a", Quantity: 3}}); err != nil {
			return err
		}
		if err := repo.Insert(ctx, placedOrder(t, "order-1", "owner-1")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The decrement is restocked and the order leaves no trace.
	assert.Equal(t, 5, available(t, c, "prod-a"))
	_, err = repo.FindByOwner(context.Background(), "owner-1", "order-1")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestRunInTxFailedDecrementLeavesStockUntouched(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5, "prod-b": 1})
	atomic := memory.NewAtomic()

	err := atomic.RunInTx(context.Background(), func(ctx context.Context) error {
		return c.DecrementAll(ctx, []catalog.DecrementRequest{
			{ProductID: "prod-a", Quantity: 2},
			{ProductID: "prod-b", Quantity: 2},
		})
	})

	var ins *catalog.InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 5, available(t, c, "prod-a"))
	assert.Equal(t, 1, available(t, c, "prod-b"))
}

func TestRunInTxMutationsOutsideTxSurvive(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5})
	atomic := memory.NewAtomic()

	// A decrement outside any atomic unit records no undo.
	require.NoError(t, c.DecrementAll(context.Background(), []catalog.DecrementRequest{{ProductID: "prod-a", Quantity: 1}}))

	err := atomic.RunInTx(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 4, available(t, c, "prod-a"))
}
