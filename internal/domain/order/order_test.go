package order_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minicart/fulfillment/internal/domain/order"
)

func TestNewDraftOrder(t *testing.T) {
	o, err := order.New("order-1", "owner-1", []order.Line{
		{ProductID: "prod-a", Quantity: 2},
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusDraft, o.Status)
	assert.True(t, o.Total.IsZero())
	require.Len(t, o.Placements, 1)
	assert.Equal(t, order.Placement{OrderID: "order-1", ProductID: "prod-a", Quantity: 2}, o.Placements[0])
	assert.False(t, o.CreatedAt.IsZero())
}

func TestNewRequiresIdentifiers(t *testing.T) {
	_, err := order.New("", "owner-1", nil)
	assert.Error(t, err)

	_, err = order.New("order-1", "", nil)
	assert.Error(t, err)
}

func TestPlaceSetsTotalAndStatus(t *testing.T) {
	o, err := order.New("order-1", "owner-1", []order.Line{{ProductID: "prod-a", Quantity: 2}})
	require.NoError(t, err)

	total := decimal.NewFromInt(44)
	require.NoError(t, o.Place(total))

	assert.Equal(t, order.StatusPlaced, o.Status)
	assert.True(t, o.Total.Equal(total))
}

func TestPlaceRejectsNegativeTotal(t *testing.T) {
	o, err := order.New("order-1", "owner-1", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, o.Place(decimal.NewFromInt(-1)), order.ErrInvalidTotal)
	assert.Equal(t, order.StatusDraft, o.Status)
}

func TestTerminalStatesAllowNoFurtherTransitions(t *testing.T) {
	placed, err := order.New("order-1", "owner-1", nil)
	require.NoError(t, err)
	require.NoError(t, placed.Place(decimal.Zero))
	assert.ErrorIs(t, placed.Place(decimal.Zero), order.ErrInvalidTransition)
	assert.ErrorIs(t, placed.Reject(), order.ErrInvalidTransition)

	rejected, err := order.New("order-2", "owner-1", nil)
	require.NoError(t, err)
	require.NoError(t, rejected.Reject())
	assert.ErrorIs(t, rejected.Place(decimal.Zero), order.ErrInvalidTransition)
	assert.ErrorIs(t, rejected.Reject(), order.ErrInvalidTransition)
}

func TestCloneIsIndependent(t *testing.T) {
	o, err := order.New("order-1", "owner-1", []order.Line{{ProductID: "prod-a", Quantity: 2}})
	require.NoError(t, err)

	clone := o.Clone()
	clone.Placements[0].Quantity = 99

	assert.Equal(t, 2, o.Placements[0].Quantity)
}
