package market

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/models"
)

type OrderAction string

const (
	ActionPay      OrderAction = "pay"
	ActionConfirm  OrderAction = "confirm"
	ActionCancel   OrderAction = "cancel"
	ActionComplete OrderAction = "complete"
)

// NextOrderStatus applies action to the order's current status.
func NextOrderStatus(order models.Order, action OrderAction) (models.OrderStatus, error) {
	from := order.Status
	if from.Terminal() {
		return from, fmt.Errorf("%w: order is %s", ErrInvalidTransition, from)
	}

	switch action {
	case ActionPay:
		if from == models.OrderStatusPending && order.PaymentType == models.PayNow {
			return models.OrderStatusPaid, nil
		}
	case ActionConfirm:
		if from == models.OrderStatusPending {
			return models.OrderStatusConfirmed, nil
		}
	case ActionCancel:
		if from == models.OrderStatusPending {
			return models.OrderStatusCancelled, nil
		}
	case ActionComplete:
		return models.OrderStatusCompleted, nil
	default:
		return from, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	return from, fmt.Errorf("%w: cannot %s a %s %s order", ErrInvalidTransition, action, from, order.PaymentType)
}

// AuthorizeOrderAction checks that the session may perform action on order.
func AuthorizeOrderAction(s *Session, order models.Order, action OrderAction) error {
	if s == nil {
		return ErrForbidden
	}
	id := s.Account.ID

	switch action {
	case ActionPay:
		if s.Account.Role == models.RoleBuyer && order.BuyerID == id {
			return RequireApproved(s)
		}
	case ActionConfirm, ActionCancel:
		if s.Account.Role == models.RoleFarmer && order.FarmerID == id {
			return nil
		}
	case ActionComplete:
		if s.Account.Role == models.RoleAdmin {
			return nil
		}
		if s.Account.Role == models.RoleFarmer && order.FarmerID == id {
			return nil
		}
	}
	return ErrForbidden
}

// CanPayNow reports whether the buyer-facing pay action is offered.
func CanPayNow(order models.Order) bool {
	return order.Status == models.OrderStatusPending && order.PaymentType == models.PayNow
}

// CanView reports whether the session may read the order.
func CanView(s *Session, order models.Order) bool {
	if s == nil {
		return false
	}
	switch s.Account.Role {
	case models.RoleAdmin:
		return true
	case models.RoleBuyer:
		return order.BuyerID == s.Account.ID
	case models.RoleFarmer:
		return order.FarmerID == s.Account.ID
	}
	return false
}

// Quantities and money are stored as NUMERIC(14,2).
const (
	MoneyScale  = 2
	moneyDigits = 12
)

var moneyLimit = decimal.New(1, moneyDigits)

// FitsColumn reports whether d is stored without rounding: at most MoneyScale
// decimal places and below the column's integer range.
func FitsColumn(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}

// ValidateQuantity rejects quantities that are not positive or do not fit the column.
func ValidateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidQuantity)
	}
	if !FitsColumn(q) {
		return fmt.Errorf("%w: %s has more than %d decimal places or is too large", ErrInvalidQuantity, q, MoneyScale)
	}
	return nil
}

// ValidateCommodityPrice checks an admin-set reference price. Zero is allowed.
func ValidateCommodityPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidPrice)
	}
	if !FitsColumn(p) {
		return fmt.Errorf("%w: %s has more than %d decimal places or is too large", ErrInvalidPrice, p, MoneyScale)
	}
	return nil
}

type OrderRequest struct {
	ListingID        uuid.UUID
	Quantity         decimal.Decimal
	PaymentType      models.PaymentType
	DeliveryLocation *string
	BuyerMessage     *string
}

// NewOrder prices a pending order against the listing as it is now. The
// total is rounded half up to cents, and it and the farmer reference are
// fixed here and never recomputed.
func NewOrder(buyerID uuid.UUID, listing models.Listing, req OrderRequest) (models.Order, error) {
	if !req.PaymentType.Valid() {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidPaymentType, req.PaymentType)
	}
	if !listing.IsAvailable {
		return models.Order{}, ErrListingUnavailable
	}
	if listing.FarmerID == buyerID {
		return models.Order{}, ErrOwnListing
	}
	if err := ValidateQuantity(req.Quantity); err != nil {
		return models.Order{}, err
	}
	if req.Quantity.GreaterThan(listing.Quantity) {
		return models.Order{}, fmt.Errorf("%w: %s exceeds available %s", ErrInvalidQuantity, req.Quantity, listing.Quantity)
	}
	total := req.Quantity.Mul(listing.PricePerUnit).Round(MoneyScale)
	if !FitsColumn(total) {
		return models.Order{}, fmt.Errorf("%w: order total %s is too large", ErrInvalidQuantity, total)
	}

	return models.Order{
		ListingID:        uuid.NullUUID{UUID: listing.ID, Valid: true},
		BuyerID:          buyerID,
		FarmerID:         listing.FarmerID,
		Quantity:         req.Quantity,
		TotalPrice:       total,
		Status:           models.OrderStatusPending,
		PaymentType:      req.PaymentType,
		DeliveryLocation: req.DeliveryLocation,
		BuyerMessage:     req.BuyerMessage,
	}, nil
}

// ValidateListing checks the farmer-supplied listing fields.
func ValidateListing(l models.Listing) error {
	if l.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidQuantity)
	}
	if !FitsColumn(l.Quantity) {
		return fmt.Errorf("%w: %s has more than %d decimal places or is too large", ErrInvalidQuantity, l.Quantity, MoneyScale)
	}
	if !l.PricePerUnit.IsPositive() {
		return fmt.Errorf("%w: price per unit must be greater than zero", ErrInvalidPrice)
	}
	if !FitsColumn(l.PricePerUnit) {
		return fmt.Errorf("%w: %s has more than %d decimal places or is too large", ErrInvalidPrice, l.PricePerUnit, MoneyScale)
	}
	return nil
}
