package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRecompute(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()

	cart := Cart{
		Items: []CartItem{
			{MenuItemID: itemA, Name: "Paneer Tikka", Portion: PortionFull, UnitPrice: 100, Quantity: 2},
			{MenuItemID: itemB, Name: "Masala Chai", Portion: PortionSingle, UnitPrice: 50, Quantity: 1},
		},
	}
	cart.Recompute()

	assert.Equal(t, 250.0, cart.Subtotal)
	assert.Equal(t, 13.0, cart.GST, "GST is round(250 * 0.05)")
	assert.Equal(t, 263.0, cart.Total)
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, 200.0, cart.Items[0].LineTotal)
	assert.Equal(t, 50.0, cart.Items[1].LineTotal)
}

func TestCartRecomputeEmpty(t *testing.T) {
	cart := Cart{Items: []CartItem{{UnitPrice: 80, Quantity: 2}}}
	cart.Recompute()
	require.NotZero(t, cart.Total)

	cart.Items = nil
	cart.Recompute()

	assert.Zero(t, cart.Subtotal)
	assert.Zero(t, cart.GST)
	assert.Zero(t, cart.Total)
	assert.Zero(t, cart.ItemCount)
}

func TestCartRecomputeGSTRounding(t *testing.T) {
	// 90 * 0.05 = 4.5 rounds up; 85 * 0.05 = 4.25 rounds down.
	cart := Cart{Items: []CartItem{{UnitPrice: 90, Quantity: 1}}}
	cart.Recompute()
	assert.Equal(t, 5.0, cart.GST)

	cart = Cart{Items: []CartItem{{UnitPrice: 85, Quantity: 1}}}
	cart.Recompute()
	assert.Equal(t, 4.0, cart.GST)
}

func TestCartFindLineMergesByItemAndPortion(t *testing.T) {
	item := uuid.New()
	cart := Cart{
		Items: []CartItem{
			{MenuItemID: item, Portion: PortionHalf, UnitPrice: 60, Quantity: 1},
		},
	}

	// Same item, same portion: merges.
	idx := cart.FindLine(item, PortionHalf)
	require.GreaterOrEqual(t, idx, 0)
	cart.Items[idx].Quantity += 2
	cart.Recompute()

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 180.0, cart.Subtotal)

	// Same item, different portion: separate line.
	assert.Equal(t, -1, cart.FindLine(item, PortionFull))
	assert.Equal(t, -1, cart.FindLine(uuid.New(), PortionHalf))
}

func TestCartSlowItemCount(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{SlowPrep: true, Quantity: 4},
			{SlowPrep: false, Quantity: 1},
			{SlowPrep: true, Quantity: 1},
		},
	}
	assert.Equal(t, 2, cart.SlowItemCount(), "counts lines, not quantities")
}

func TestValidPortion(t *testing.T) {
	assert.True(t, ValidPortion(PortionHalf))
	assert.True(t, ValidPortion(PortionFull))
	assert.True(t, ValidPortion(PortionSingle))
	assert.False(t, ValidPortion("quarter"))
	assert.False(t, ValidPortion(""))
}
