package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/masala/internal/models"
)

func newOrderFixture(t *testing.T) (*gorm.DB, *CartService, *OrderService) {
	t.Helper()

	db := openTestDB(t)
	carts := NewCartService(db)
	loyalty := NewLoyaltyService(db)
	orders := NewOrderService(db, carts, loyalty, NewNotifyService(nil))
	return db, carts, orders
}

func TestCheckoutPricesAndCreditsPoints(t *testing.T) {
	db, carts, orders := newOrderFixture(t)
	user := createTestUser(t, db, "9876543210")

	chicken := createTestItem(t, db, "Butter Chicken", true, map[string]float64{
		models.PortionFull: 180,
	})
	dal := createTestItem(t, db, "Dal Tadka", false, map[string]float64{
		models.PortionHalf: 70,
	})

	_, err := carts.AddLine(user.ID, chicken.ID, models.PortionFull, 1)
	require.NoError(t, err)
	_, err = carts.AddLine(user.ID, dal.ID, models.PortionHalf, 1)
	require.NoError(t, err)

	order, err := orders.Checkout(user.ID, user.Phone, CheckoutInput{
		OrderType:     models.OrderTypeTakeaway,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, 13.0, order.GST, "round(250 * 0.05)")
	assert.Equal(t, 263.0, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "MSL-"))
	assert.Len(t, order.Items, 2)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(26), got.LoyaltyAvailable, "floor(263/10) earned")

	cart, err := carts.Get(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Total)

	var history int64
	require.NoError(t, db.Model(&models.OrderStatusHistory{}).
		Where("order_id = ?", order.ID).Count(&history).Error)
	assert.Equal(t, int64(1), history)
}

func TestCheckoutInsufficientPointsAborts(t *testing.T) {
	db, carts, orders := newOrderFixture(t)
	user := createTestUser(t, db, "9876543210")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"loyalty_total":     10,
			"loyalty_available": 10,
		}).Error)

	item := createTestItem(t, db, "Biryani", false, map[string]float64{
		models.PortionFull: 200,
	})
	_, err := carts.AddLine(user.ID, item.ID, models.PortionFull, 1)
	require.NoError(t, err)

	_, err = orders.Checkout(user.ID, user.Phone, CheckoutInput{
		OrderType:         models.OrderTypeTakeaway,
		PaymentMethod:     "cash",
		LoyaltyPointsUsed: 50,
	})
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount, "a rejected checkout creates no order")

	cart, err := carts.Get(user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "cart survives a rejected checkout")

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(10), got.LoyaltyAvailable)
}

func TestCheckoutTableRules(t *testing.T) {
	db, _, orders := newOrderFixture(t)
	user := createTestUser(t, db, "9876543210")
	table := 4

	_, err := orders.Checkout(user.ID, user.Phone, CheckoutInput{
		OrderType:     models.OrderTypeDineIn,
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, ErrTableRequired)

	_, err = orders.Checkout(user.ID, user.Phone, CheckoutInput{
		OrderType:     models.OrderTypeTakeaway,
		TableNumber:   &table,
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, ErrTableNotAllowed)
}

func TestCancelRefundsExactlyOnce(t *testing.T) {
	db, carts, orders := newOrderFixture(t)
	user := createTestUser(t, db, "9876543210")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"loyalty_total":     100,
			"loyalty_available": 100,
		}).Error)

	item := createTestItem(t, db, "Thali", false, map[string]float64{
		models.PortionSingle: 250,
	})
	_, err := carts.AddLine(user.ID, item.ID, models.PortionSingle, 1)
	require.NoError(t, err)

	order, err := orders.Checkout(user.ID, user.Phone, CheckoutInput{
		OrderType:         models.OrderTypeTakeaway,
		PaymentMethod:     "cash",
		LoyaltyPointsUsed: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 213.0, order.Total, "263 minus 50 points")

	// After checkout: 100 - 50 redeemed + 21 earned on the order total.
	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	require.Equal(t, int64(71), got.LoyaltyAvailable)

	cancelled, err := orders.Cancel(order.ID, user.ID, models.RoleUser, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(121), got.LoyaltyAvailable, "redeemed points restored")

	_, err = orders.Cancel(order.ID, user.ID, models.RoleUser, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(121), got.LoyaltyAvailable, "second cancel refunds nothing")

	var refunds int64
	require.NoError(t, db.Model(&models.BonusTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.BonusRefund).
		Count(&refunds).Error)
	assert.Equal(t, int64(1), refunds)
}

func TestAdvanceThenDeliveredBlocksCancel(t *testing.T) {
	db, carts, orders := newOrderFixture(t)
	user := createTestUser(t, db, "9876543210")
	staff := createTestUser(t, db, "9876543211")

	item := createTestItem(t, db, "Naan", false, map[string]float64{
		models.PortionSingle: 40,
	})
	_, err := carts.AddLine(user.ID, item.ID, models.PortionSingle, 2)
	require.NoError(t, err)

	order, err := orders.Checkout(user.ID, user.Phone, CheckoutInput{
		OrderType:     models.OrderTypeTakeaway,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	for _, next := range []models.OrderStatus{
		models.StatusConfirmed, models.StatusPreparing,
		models.StatusReady, models.StatusDelivered,
	} {
		_, err = orders.Advance(order.ID, next, staff.ID, models.RoleStaff, "")
		require.NoError(t, err, "advance to %s", next)
	}

	var got models.Order
	require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.StatusDelivered, got.Status)
	assert.NotNil(t, got.PreparingAt)
	assert.NotNil(t, got.DeliveredAt)
	assert.NotNil(t, got.ActualMinutes)

	_, err = orders.Cancel(order.ID, user.ID, models.RoleUser, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = orders.Advance(order.ID, models.StatusReady, staff.ID, models.RoleStaff, "")
	assert.ErrorIs(t, err, ErrInvalidTransition, "delivered is terminal")
}
