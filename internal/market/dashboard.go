package market

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/models"
)

type AdminStats struct {
	PendingUsers  int64 `json:"pending_users"`
	TotalListings int64 `json:"total_listings"`
	TotalOrders   int64 `json:"total_orders"`
	TotalPayments int64 `json:"total_payments"`
}

type FarmerStats struct {
	ActiveListings  int64           `json:"active_listings"`
	PendingOrders   int64           `json:"pending_orders"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	MonthlyEarnings decimal.Decimal `json:"monthly_earnings"`
}

type BuyerStats struct {
	AvailableProduce int64           `json:"available_produce"`
	MyOrders         int64           `json:"my_orders"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	Commodities      int64           `json:"commodities"`
}

// Dashboard is one of FarmerDashboard, BuyerDashboard, AdminDashboard or
// ApprovalNotice.
type Dashboard interface {
	Kind() DashboardKind
	dashboard()
}

type DashboardKind string

const (
	KindFarmer DashboardKind = "farmer"
	KindBuyer  DashboardKind = "buyer"
	KindAdmin  DashboardKind = "admin"
	KindNotice DashboardKind = "notice"
)

type FarmerDashboard struct {
	Stats    FarmerStats          `json:"stats"`
	Listings []models.ListingView `json:"listings"`
	Orders   []models.OrderView   `json:"orders"`
}

type BuyerDashboard struct {
	Stats    BuyerStats           `json:"stats"`
	Listings []models.ListingView `json:"listings"`
	Orders   []models.OrderView   `json:"orders"`
	Payments []models.PaymentView `json:"payments"`
}

type AdminDashboard struct {
	Stats           AdminStats       `json:"stats"`
	PendingAccounts []models.Account `json:"pending_accounts"`
}

// ApprovalNotice replaces the role dashboard until an admin approves the account.
type ApprovalNotice struct {
	Status  models.AccountStatus `json:"account_status"`
	Message string               `json:"message"`
}

func (FarmerDashboard) Kind() DashboardKind { return KindFarmer }
func (BuyerDashboard) Kind() DashboardKind  { return KindBuyer }
func (AdminDashboard) Kind() DashboardKind  { return KindAdmin }
func (ApprovalNotice) Kind() DashboardKind  { return KindNotice }

func (FarmerDashboard) dashboard() {}
func (BuyerDashboard) dashboard()  {}
func (AdminDashboard) dashboard()  {}
func (ApprovalNotice) dashboard()  {}

// DashboardKindFor picks the variant a session is shown.
func DashboardKindFor(s *Session) DashboardKind {
	if !s.Approved() {
		return KindNotice
	}
	switch s.Account.Role {
	case models.RoleAdmin:
		return KindAdmin
	case models.RoleFarmer:
		return KindFarmer
	default:
		return KindBuyer
	}
}

func NoticeFor(status models.AccountStatus) ApprovalNotice {
	if status == models.AccountRejected {
		return ApprovalNotice{
			Status:  status,
			Message: "Your account registration was not approved. Please contact an administrator.",
		}
	}
	return ApprovalNotice{
		Status:  status,
		Message: "Your account is awaiting administrator approval.",
	}
}

// StartOfMonth returns 00:00:00 on the first day of now's month, in now's zone.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
