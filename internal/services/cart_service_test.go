package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/masala/internal/models"
)

func TestAddLineRejectsBadInput(t *testing.T) {
	db := openTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db, "9876543210")
	item := createTestItem(t, db, "Samosa", false, map[string]float64{
		models.PortionSingle: 30,
	})

	_, err := svc.AddLine(user.ID, item.ID, models.PortionSingle, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddLine(user.ID, item.ID, "mega", 1)
	assert.ErrorIs(t, err, ErrInvalidPortion)

	_, err = svc.AddLine(user.ID, uuid.New(), models.PortionSingle, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.AddLine(user.ID, item.ID, models.PortionHalf, 1)
	assert.ErrorIs(t, err, ErrItemNotFound, "portion not on the menu for this item")
}

func TestAddLineMergesAndPersistsTotals(t *testing.T) {
	db := openTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db, "9876543210")
	item := createTestItem(t, db, "Paneer Tikka", true, map[string]float64{
		models.PortionHalf: 120,
		models.PortionFull: 200,
	})

	_, err := svc.AddLine(user.ID, item.ID, models.PortionFull, 1)
	require.NoError(t, err)
	cart, err := svc.AddLine(user.ID, item.ID, models.PortionFull, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1, "same (item, portion) merges")
	assert.Equal(t, 3, cart.Items[0].Quantity)

	// Stored totals match the recomputed ones.
	var stored models.Cart
	require.NoError(t, db.Preload("Items").First(&stored, "user_id = ?", user.ID).Error)
	assert.Equal(t, 600.0, stored.Subtotal)
	assert.Equal(t, 30.0, stored.GST)
	assert.Equal(t, 630.0, stored.Total)
	assert.Equal(t, 3, stored.ItemCount)
	assert.Equal(t, 600.0, stored.Items[0].LineTotal)

	// A different portion of the same item is its own line.
	cart, err = svc.AddLine(user.ID, item.ID, models.PortionHalf, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestSetQuantityAndRemove(t *testing.T) {
	db := openTestDB(t)
	svc := NewCartService(db)
	user := createTestUser(t, db, "9876543210")
	item := createTestItem(t, db, "Lassi", false, map[string]float64{
		models.PortionSingle: 60,
	})

	_, err := svc.AddLine(user.ID, item.ID, models.PortionSingle, 2)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(user.ID, item.ID, models.PortionSingle, 5)
	require.NoError(t, err)
	assert.Equal(t, 300.0, cart.Subtotal)

	_, err = svc.SetQuantity(user.ID, uuid.New(), models.PortionSingle, 1)
	assert.ErrorIs(t, err, ErrLineNotFound)

	cart, err = svc.RemoveLine(user.ID, item.ID, models.PortionSingle)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)
	assert.Zero(t, cart.ItemCount)
}
