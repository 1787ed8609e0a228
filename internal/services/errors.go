package services

import "errors"

// Business-rule violations surfaced to handlers. All are detected before
// any state mutation, so a failed request never leaves torn state.
var (
	ErrNoOTP          = errors.New("no active verification code")
	ErrOTPExpired     = errors.New("verification code expired")
	ErrOTPMaxAttempts = errors.New("verification attempts exhausted")
	ErrOTPInvalid     = errors.New("invalid verification code")

	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrPointsExceedTotal  = errors.New("loyalty points exceed payable total")

	ErrCartEmpty       = errors.New("cart is empty")
	ErrItemNotFound    = errors.New("menu item not available")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPortion  = errors.New("invalid portion")

	ErrInvalidOrderType     = errors.New("invalid order type")
	ErrTableRequired        = errors.New("table number required for dine-in orders")
	ErrTableNotAllowed      = errors.New("table number not allowed for takeaway orders")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrFeedbackNotAllowed   = errors.New("feedback only allowed on delivered orders")
	ErrFeedbackExists       = errors.New("feedback already recorded")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)
