package market

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/models"
)

const minPhoneLength = 10

type PaymentRequest struct {
	OrderID        uuid.UUID
	Amount         decimal.Decimal
	Method         models.PaymentMethod
	PhoneNumber    string
	IdempotencyKey *string
}

// Validate checks the request fields that need no store lookup.
func (r PaymentRequest) Validate() error {
	if !r.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, r.Method)
	}
	if len(strings.TrimSpace(r.PhoneNumber)) < minPhoneLength {
		return ErrInvalidPhoneNumber
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrAmountMismatch)
	}
	if !FitsColumn(r.Amount) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places or is too large", ErrAmountMismatch, r.Amount, MoneyScale)
	}
	return nil
}

// NewPayment builds the pending payment for order and the order status it
// moves to. The farmer reference is taken from the order, not the caller.
func NewPayment(order models.Order, buyerID uuid.UUID, req PaymentRequest) (models.Payment, models.OrderStatus, error) {
	if err := req.Validate(); err != nil {
		return models.Payment{}, order.Status, err
	}
	if order.BuyerID != buyerID {
		return models.Payment{}, order.Status, ErrForbidden
	}

	next, err := NextOrderStatus(order, ActionPay)
	if err != nil {
		return models.Payment{}, order.Status, err
	}

	if !req.Amount.Equal(order.TotalPrice) {
		return models.Payment{}, order.Status, fmt.Errorf("%w: got %s, want %s", ErrAmountMismatch, req.Amount, order.TotalPrice)
	}

	return models.Payment{
		OrderID:        order.ID,
		BuyerID:        buyerID,
		FarmerID:       order.FarmerID,
		Amount:         req.Amount,
		Method:         req.Method,
		Status:         models.PaymentPending,
		PhoneNumber:    strings.TrimSpace(req.PhoneNumber),
		IdempotencyKey: req.IdempotencyKey,
	}, next, nil
}

// NextPaymentStatus settles a pending payment. Settled payments never move.
func NextPaymentStatus(current, target models.PaymentStatus) (models.PaymentStatus, error) {
	if current != models.PaymentPending || target == models.PaymentPending || !target.Valid() {
		return current, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, current, target)
	}
	return target, nil
}
