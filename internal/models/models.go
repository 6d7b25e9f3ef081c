package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountPending  AccountStatus = "pending"
	AccountApproved AccountStatus = "approved"
	AccountRejected AccountStatus = "rejected"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountPending, AccountApproved, AccountRejected:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusCompleted
}

type PaymentType string

const (
	PayNow        PaymentType = "pay_now"
	PayOnDelivery PaymentType = "pay_on_delivery"
)

func (p PaymentType) Valid() bool {
	return p == PayNow || p == PayOnDelivery
}

type PaymentMethod string

const (
	MethodMTNMoMo     PaymentMethod = "mtn_momo"
	MethodAirtelMoney PaymentMethod = "airtel_money"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodMTNMoMo || m == MethodAirtelMoney
}

// Label is the provider name shown on statements.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodMTNMoMo:
		return "MTN Mobile Money"
	case MethodAirtelMoney:
		return "Airtel Money"
	}
	return string(m)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Successful reports whether the payment counts toward earnings and spend.
func (s PaymentStatus) Successful() bool {
	return s == PaymentSuccess || s == PaymentCompleted
}

// SuccessfulPaymentStatuses lists the statuses summed by the aggregate queries.
var SuccessfulPaymentStatuses = []PaymentStatus{PaymentSuccess, PaymentCompleted}

type Account struct {
	ID        uuid.UUID     `json:"id"`
	FullName  string        `json:"full_name"`
	Phone     string        `json:"phone"`
	Location  string        `json:"location"`
	Role      Role          `json:"role"`
	Status    AccountStatus `json:"account_status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Commodity struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Listing struct {
	ID           uuid.UUID       `json:"id"`
	FarmerID     uuid.UUID       `json:"farmer_id"`
	CommodityID  uuid.UUID       `json:"commodity_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Location     string          `json:"location"`
	Description  *string         `json:"description"`
	IsAvailable  bool            `json:"is_available"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	ListingID        uuid.NullUUID   `json:"listing_id"`
	BuyerID          uuid.UUID       `json:"buyer_id"`
	FarmerID         uuid.UUID       `json:"farmer_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Status           OrderStatus     `json:"status"`
	PaymentType      PaymentType     `json:"payment_type"`
	DeliveryLocation *string         `json:"delivery_location"`
	BuyerMessage     *string         `json:"buyer_message"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Payment struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	FarmerID       uuid.UUID       `json:"farmer_id"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"payment_method"`
	Status         PaymentStatus   `json:"status"`
	PhoneNumber    string          `json:"phone_number"`
	TransactionID  *string         `json:"transaction_id"`
	IdempotencyKey *string         `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Placeholder names used when an enrichment lookup misses.
const (
	UnknownName       = "Unknown"
	UnknownFarmerName = "Unknown Farmer"
	DefaultUnit       = "kg"
)

type ListingView struct {
	Listing
	CommodityName string `json:"commodity_name"`
	CommodityUnit string `json:"commodity_unit"`
	FarmerName    string `json:"farmer_name"`
}

type OrderView struct {
	Order
	BuyerName     string `json:"buyer_name"`
	FarmerName    string `json:"farmer_name"`
	CommodityName string `json:"commodity_name"`
	CanPayNow     bool   `json:"can_pay_now"`
}

type PaymentView struct {
	Payment
	BuyerName   string `json:"buyer_name"`
	FarmerName  string `json:"farmer_name"`
	MethodLabel string `json:"payment_method_label"`
}
