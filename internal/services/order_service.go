package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/masala/internal/models"
)

// OrderService owns order creation and the status workflow. Checkout is a
// single transaction covering the loyalty debit, order insert, points
// credit and cart clear, keyed by the user's cart row lock so two
// checkouts for one user cannot interleave.
type OrderService struct {
	db      *gorm.DB
	carts   *CartService
	loyalty *LoyaltyService
	notify  *NotifyService
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, carts *CartService, loyalty *LoyaltyService, notify *NotifyService) *OrderService {
	return &OrderService{db: db, carts: carts, loyalty: loyalty, notify: notify}
}

// CheckoutInput carries the order parameters supplied by the client.
type CheckoutInput struct {
	OrderType         string
	TableNumber       *int
	PaymentMethod     string
	LoyaltyPointsUsed int64
	Notes             string
}

// Checkout snapshots the user's cart into a new pending order. Cart totals
// are carried over verbatim; the loyalty redemption is subtracted from the
// payable total, never from the GST base.
func (s *OrderService) Checkout(userID uuid.UUID, phone string, in CheckoutInput) (*models.Order, error) {
	switch in.OrderType {
	case models.OrderTypeDineIn:
		if in.TableNumber == nil {
			return nil, ErrTableRequired
		}
	case models.OrderTypeTakeaway:
		if in.TableNumber != nil {
			return nil, ErrTableNotAllowed
		}
	default:
		return nil, ErrInvalidOrderType
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").
			Where("user_id = ?", userID).
			First(&cart).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrCartEmpty
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		cart.Recompute()

		total := cart.Total - float64(in.LoyaltyPointsUsed)
		if total < 0 {
			return ErrPointsExceedTotal
		}

		now := time.Now()
		number, err := models.GenerateOrderNumber(now)
		if err != nil {
			return err
		}
		order = models.Order{
			UserID:            userID,
			OrderNumber:       number,
			Phone:             phone,
			OrderType:         in.OrderType,
			TableNumber:       in.TableNumber,
			Status:            models.StatusPending,
			PlacedAt:          now,
			Subtotal:          cart.Subtotal,
			GST:               cart.GST,
			Discount:          0,
			LoyaltyPointsUsed: in.LoyaltyPointsUsed,
			Total:             total,
			EstimatedMinutes:  models.EstimatePrepMinutes(cart.ItemCount, cart.SlowItemCount(), now),
			PaymentMethod:     in.PaymentMethod,
			PaymentStatus:     models.PaymentPending,
			Notes:             in.Notes,
		}
		for _, line := range cart.Items {
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID: line.MenuItemID,
				Name:       line.Name,
				Portion:    line.Portion,
				UnitPrice:  line.UnitPrice,
				Quantity:   line.Quantity,
				LineTotal:  line.LineTotal,
				SlowPrep:   line.SlowPrep,
			})
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if in.LoyaltyPointsUsed > 0 {
			if err := s.loyalty.Debit(tx, userID, in.LoyaltyPointsUsed, &order.ID); err != nil {
				return err
			}
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ActorID:   &userID,
			ActorRole: models.RoleUser,
			Note:      "order placed",
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if _, err := s.loyalty.Credit(tx, userID, order.Total, &order.ID); err != nil {
			return err
		}

		return s.carts.clearLocked(tx, &cart)
	})
	if err != nil {
		return nil, err
	}

	go s.notify.Publish(userID, OrderEvent{
		Type:        EventOrderCreated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total,
		At:          order.PlacedAt,
	})

	return &order, nil
}

// Advance moves an order forward through the workflow and appends the
// audited history entry. Entering preparing stamps the kitchen start;
// entering delivered stamps the delivery time and derives the actual
// preparation minutes.
func (s *OrderService) Advance(orderID uuid.UUID, next models.OrderStatus, actorID uuid.UUID, actorRole, note string) (*models.Order, error) {
	if !models.ValidStatus(next) {
		return nil, ErrInvalidTransition
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}

		if !order.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}

		now := time.Now()
		updates := map[string]interface{}{"status": next}

		switch next {
		case models.StatusPreparing:
			if order.PreparingAt == nil {
				order.PreparingAt = &now
				updates["preparing_at"] = &now
			}
		case models.StatusDelivered:
			order.DeliveredAt = &now
			minutes := int(now.Sub(order.CreatedAt).Minutes())
			order.ActualMinutes = &minutes
			updates["delivered_at"] = &now
			updates["actual_minutes"] = minutes
		}

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   next,
			ActorID:    &actorID,
			ActorRole:  actorRole,
			Note:       note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		order.Status = next
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notify.Publish(order.UserID, OrderEvent{
		Type:        EventOrderStatus,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total,
		At:          time.Now(),
	})

	return &order, nil
}

// Cancel moves a non-terminal order to cancelled and reverses any loyalty
// redemption. The transition check makes the refund exactly-once: a second
// cancel fails with ErrInvalidTransition before any mutation.
func (s *OrderService) Cancel(orderID uuid.UUID, actorID uuid.UUID, actorRole, reason string) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}

		if !order.Status.CanTransitionTo(models.StatusCancelled) {
			return ErrInvalidTransition
		}

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   models.StatusCancelled,
			ActorID:    &actorID,
			ActorRole:  actorRole,
			Note:       reason,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if order.LoyaltyPointsUsed > 0 {
			if err := s.loyalty.Refund(tx, order.UserID, order.LoyaltyPointsUsed, &order.ID); err != nil {
				return err
			}
		}

		order.Status = models.StatusCancelled
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.StatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notify.Publish(order.UserID, OrderEvent{
		Type:        EventOrderStatus,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(models.StatusCancelled),
		Total:       order.Total,
		At:          time.Now(),
	})

	return &order, nil
}

// AddFeedback attaches a one-time rating to a delivered order.
func (s *OrderService) AddFeedback(orderID, userID uuid.UUID, rating int, comment string) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ? AND user_id = ?", orderID, userID).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status != models.StatusDelivered {
			return ErrFeedbackNotAllowed
		}
		if order.Rating != nil {
			return ErrFeedbackExists
		}

		now := time.Now()
		order.Rating = &rating
		order.FeedbackComment = comment
		order.FeedbackAt = &now

		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"rating":           rating,
				"feedback_comment": comment,
				"feedback_at":      &now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// MarkPayment records the gateway's verdict on the order. Payment and
// order lifecycle are decoupled: a failed payment is recorded but never
// rolls the order back.
func (s *OrderService) MarkPayment(orderNumber, transactionID, status string) (*models.Order, error) {
	if status != models.PaymentPaid && status != models.PaymentFailed {
		return nil, ErrInvalidPaymentStatus
	}

	var order models.Order
	if err := s.db.First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"payment_status": status,
			"transaction_id": transactionID,
		}).Error; err != nil {
		return nil, err
	}

	order.PaymentStatus = status
	order.TransactionID = transactionID

	if status == models.PaymentFailed {
		log.Printf("[Order] Payment failed for order %s (tx %s)", orderNumber, transactionID)
	}

	return &order, nil
}
