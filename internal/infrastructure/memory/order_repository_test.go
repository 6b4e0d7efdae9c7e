package memory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/infrastructure/memory"
)

func placedOrder(t *testing.T, id, ownerID string) *order.Order {
	t.Helper()
	o, err := order.New(id, ownerID, []order.Line{{ProductID: "prod-a", Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, o.Place(decimal.NewFromInt(20)))
	return o
}

func TestInsertAndFindByOwner(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, placedOrder(t, "order-1", "owner-1")))

	found, err := repo.FindByOwner(ctx, "owner-1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", found.ID)
	assert.Equal(t, order.StatusPlaced, found.Status)
}

func TestFindByOwnerHidesForeignOrders(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, placedOrder(t, "order-1", "owner-1")))

	// Same response as for an id that does not exist at all.
	_, err := repo.FindByOwner(ctx, "owner-2", "order-1")
	assert.ErrorIs(t, err, order.ErrNotFound)

	_, err = repo.FindByOwner(ctx, "owner-2", "order-nope")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestInsertConflict(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, placedOrder(t, "order-1", "owner-1")))
	assert.ErrorIs(t, repo.Insert(ctx, placedOrder(t, "order-1", "owner-1")), order.ErrConflict)
}

func TestListByOwner(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, placedOrder(t, "order-1", "owner-1")))
	require.NoError(t, repo.Insert(ctx, placedOrder(t, "order-2", "owner-1")))
	require.NoError(t, repo.Insert(ctx, placedOrder(t, "order-3", "owner-2")))

	orders, err := repo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "owner-1", o.OwnerID)
	}

	orders, err = repo.ListByOwner(ctx, "owner-3")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestStoredOrdersAreIsolatedFromCallers(t *testing.T) {
	repo := memory.NewOrderRepository()
	ctx := context.Background()

	original := placedOrder(t, "order-1", "owner-1")
	require.NoError(t, repo.Insert(ctx, original))
	original.Placements[0].Quantity = 99

	found, err := repo.FindByOwner(ctx, "owner-1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, 2, found.Placements[0].Quantity)
}
