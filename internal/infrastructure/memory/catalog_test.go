package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minicart/fulfillment/internal/domain/catalog"
	"github.com/minicart/fulfillment/internal/infrastructure/memory"
)

func newCatalog(t *testing.T, stocks map[string]int) *memory.Catalog {
	t.Helper()
	c := memory.NewCatalog()
	for id, qty := range stocks {
		p, err := catalog.NewProduct(id, "product "+id, decimal.NewFromInt(10), qty)
		require.NoError(t, err)
		c.Put(p)
	}
	return c
}

func TestSnapshotUnknownProduct(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5})

	_, err := c.Snapshot(context.Background(), []string{"prod-a", "prod-x"})

	var nf *catalog.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "prod-x", nf.ProductID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDecrementAll(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5, "prod-b": 5})

	err := c.DecrementAll(context.Background(), []catalog.DecrementRequest{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 3},
	})
	require.NoError(t, err)

	snap, err := c.Snapshot(context.Background(), []string{"prod-a", "prod-b"})
	require.NoError(t, err)
	assert.Equal(t, 3, snap["prod-a"].Available)
	assert.Equal(t, 2, snap["prod-b"].Available)
}

func TestDecrementAllIsAllOrNothing(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5, "prod-b": 1})

	err := c.DecrementAll(context.Background(), []catalog.DecrementRequest{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 3},
	})

	var short *catalog.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "prod-b", short.ProductID)
	assert.Equal(t, 1, short.Remaining)

	// The satisfiable line must not have been applied either.
	snap, serr := c.Snapshot(context.Background(), []string{"prod-a", "prod-b"})
	require.NoError(t, serr)
	assert.Equal(t, 5, snap["prod-a"].Available)
	assert.Equal(t, 1, snap["prod-b"].Available)
}

func TestDecrementAllRejectsNonPositiveQuantity(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 5})

	err := c.DecrementAll(context.Background(), []catalog.DecrementRequest{
		{ProductID: "prod-a", Quantity: 0},
	})
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	const (
		initial = 50
		callers = 100
	)
	c := newCatalog(t, map[string]int{"prod-a": initial})

	var (
		wg        sync.WaitGroup
		successes int64
		mu        sync.Mutex
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := c.DecrementAll(context.Background(), []catalog.DecrementRequest{
				{ProductID: "prod-a", Quantity: 1},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, initial, successes)

	snap, err := c.Snapshot(context.Background(), []string{"prod-a"})
	require.NoError(t, err)
	assert.Equal(t, 0, snap["prod-a"].Available)
}

func TestOverlappingBatchesDoNotDeadlock(t *testing.T) {
	c := newCatalog(t, map[string]int{"prod-a": 10000, "prod-b": 10000})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.DecrementAll(context.Background(), []catalog.DecrementRequest{
				{ProductID: "prod-a", Quantity: 1},
				{ProductID: "prod-b", Quantity: 1},
			})
		}()
		go func() {
			defer wg.Done()
			_ = c.DecrementAll(context.Background(), []catalog.DecrementRequest{
				{ProductID: "prod-b", Quantity: 1},
				{ProductID: "prod-a", Quantity: 1},
			})
		}()
	}
	wg.Wait()

	snap, err := c.Snapshot(context.Background(), []string{"prod-a", "prod-b"})
	require.NoError(t, err)
	assert.Equal(t, 10000-400, snap["prod-a"].Available)
	assert.Equal(t, 10000-400, snap["prod-b"].Available)
}
