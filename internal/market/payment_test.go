package market

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/agromarket/internal/models"
)

func pendingPayNowOrder(buyer uuid.UUID) models.Order {
	return models.Order{
		ID:          uuid.New(),
		BuyerID:     buyer,
		FarmerID:    uuid.New(),
		Quantity:    decimal.NewFromInt(10),
		TotalPrice:  decimal.NewFromInt(30000),
		Status:      models.OrderStatusPending,
		PaymentType: models.PayNow,
	}
}

func TestNewPaymentMovesOrderToPaid(t *testing.T) {
	buyer := uuid.New()
	order := pendingPayNowOrder(buyer)
	key := "retry-1"

	payment, next, err := NewPayment(order, buyer, PaymentRequest{
		OrderID:        order.ID,
		Amount:         decimal.NewFromInt(30000),
		Method:         models.MethodMTNMoMo,
		PhoneNumber:    " 0772123456 ",
		IdempotencyKey: &key,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, next)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, order.FarmerID, payment.FarmerID)
	assert.Equal(t, buyer, payment.BuyerID)
	assert.Equal(t, order.ID, payment.OrderID)
	assert.Equal(t, "0772123456", payment.PhoneNumber)
	assert.Equal(t, &key, payment.IdempotencyKey)
}

func TestNewPaymentRejections(t *testing.T) {
	buyer := uuid.New()
	valid := PaymentRequest{
		Amount:      decimal.NewFromInt(30000),
		Method:      models.MethodAirtelMoney,
		PhoneNumber: "0752123456",
	}

	t.Run("short phone", func(t *testing.T) {
		req := valid
		req.PhoneNumber = "075212"
		_, _, err := NewPayment(pendingPayNowOrder(buyer), buyer, req)
		assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
	})

	t.Run("unknown method", func(t *testing.T) {
		req := valid
		req.Method = "visa"
		_, _, err := NewPayment(pendingPayNowOrder(buyer), buyer, req)
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("wrong amount", func(t *testing.T) {
		req := valid
		req.Amount = decimal.NewFromInt(29999)
		_, _, err := NewPayment(pendingPayNowOrder(buyer), buyer, req)
		assert.ErrorIs(t, err, ErrAmountMismatch)
	})

	t.Run("sub-cent amount", func(t *testing.T) {
		req := valid
		req.Amount = decimal.RequireFromString("30000.001")
		assert.ErrorIs(t, req.Validate(), ErrAmountMismatch)
	})

	t.Run("not the buyer", func(t *testing.T) {
		_, _, err := NewPayment(pendingPayNowOrder(buyer), uuid.New(), valid)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("pay on delivery", func(t *testing.T) {
		order := pendingPayNowOrder(buyer)
		order.PaymentType = models.PayOnDelivery
		_, next, err := NewPayment(order, buyer, valid)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, models.OrderStatusPending, next)
	})

	t.Run("already paid", func(t *testing.T) {
		order := pendingPayNowOrder(buyer)
		order.Status = models.OrderStatusPaid
		_, _, err := NewPayment(order, buyer, valid)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestNextPaymentStatus(t *testing.T) {
	for _, target := range []models.PaymentStatus{models.PaymentSuccess, models.PaymentCompleted, models.PaymentFailed} {
		got, err := NextPaymentStatus(models.PaymentPending, target)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	}

	_, err := NextPaymentStatus(models.PaymentPending, models.PaymentPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = NextPaymentStatus(models.PaymentSuccess, models.PaymentFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = NextPaymentStatus(models.PaymentPending, "refunded")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
