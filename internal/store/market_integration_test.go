//go:build integration

package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/testsupport"
)

type fixture struct {
	db        *sql.DB
	farmer    *models.Account
	buyer     *models.Account
	commodity *models.Commodity
	listing   *models.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testsupport.StartPostgres(t)

	farmer, err := CreateAccount(ctx, db, NewAccount{
		Email: "farmer@example.com", PasswordHash: "x", FullName: "Okello John",
		Phone: "0772000001", Location: "Gulu", Role: models.RoleFarmer, Status: models.AccountPending,
	})
	if err != nil {
		t.Fatalf("Create farmer: %v", err)
	}
	farmer, err = TransitionAccount(ctx, db, farmer.ID, models.AccountApproved)
	if err != nil {
		t.Fatalf("Approve farmer: %v", err)
	}

	buyer, err := CreateAccount(ctx, db, NewAccount{
		Email: "buyer@example.com", PasswordHash: "x", FullName: "Sarah Achieng",
		Phone: "0772000002", Location: "Kampala", Role: models.RoleBuyer, Status: models.AccountApproved,
	})
	if err != nil {
		t.Fatalf("Create buyer: %v", err)
	}

	commodity, err := CreateCommodity(ctx, db, "Maize", "kg", decimal.NewFromInt(2800))
	if err != nil {
		t.Fatalf("Create commodity: %v", err)
	}

	listing, err := CreateListing(ctx, db, NewListing{
		FarmerID:     farmer.ID,
		CommodityID:  commodity.ID,
		Quantity:     decimal.NewFromInt(50),
		PricePerUnit: decimal.NewFromInt(3000),
		Location:     "Gulu",
	})
	if err != nil {
		t.Fatalf("Create listing: %v", err)
	}

	return &fixture{db: db, farmer: farmer, buyer: buyer, commodity: commodity, listing: listing}
}

func (f *fixture) order(t *testing.T, qty int64, pt models.PaymentType) *models.Order {
	t.Helper()
	order, err := CreateOrder(context.Background(), f.db, f.buyer.ID, market.OrderRequest{
		ListingID:   f.listing.ID,
		Quantity:    decimal.NewFromInt(qty),
		PaymentType: pt,
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	return order
}

func TestPlaceAndPayOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.order(t, 10, models.PayNow)
	if !order.TotalPrice.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("Expected total 30000, got %s", order.TotalPrice)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("Expected pending, got %s", order.Status)
	}

	payment, created, err := RecordPayment(ctx, f.db, f.buyer.ID, market.PaymentRequest{
		OrderID:     order.ID,
		Amount:      decimal.NewFromInt(30000),
		Method:      models.MethodMTNMoMo,
		PhoneNumber: "0772123456",
	})
	if err != nil {
		t.Fatalf("Record payment: %v", err)
	}
	if !created || payment.Status != models.PaymentPending || payment.FarmerID != f.farmer.ID {
		t.Errorf("Unexpected payment: created=%v %+v", created, payment)
	}

	after, err := GetOrder(ctx, f.db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if after.Status != models.OrderStatusPaid {
		t.Errorf("Expected paid, got %s", after.Status)
	}

	listing, err := GetListing(ctx, f.db, f.listing.ID)
	if err != nil {
		t.Fatalf("Get listing: %v", err)
	}
	if !listing.Quantity.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Listing quantity should be unchanged, got %s", listing.Quantity)
	}
}

func TestPaymentIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.order(t, 2, models.PayNow)
	key := "retry-" + uuid.NewString()
	req := market.PaymentRequest{
		OrderID:        order.ID,
		Amount:         decimal.NewFromInt(6000),
		Method:         models.MethodAirtelMoney,
		PhoneNumber:    "0752123456",
		IdempotencyKey: &key,
	}

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 5)
	errs := make([]error, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := RecordPayment(ctx, f.db, f.buyer.ID, req)
			errs[i] = err
			if p != nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Attempt %d failed: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Errorf("Attempt %d returned a different payment", i)
		}
	}

	payments, err := ListPayments(ctx, f.db, PaymentFilter{BuyerID: f.buyer.ID})
	if err != nil {
		t.Fatalf("List payments: %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("Expected 1 payment, got %d", len(payments))
	}
}

func TestConcurrentConfirmAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t, 1, models.PayOnDelivery)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, action := range []market.OrderAction{market.ActionConfirm, market.ActionCancel} {
		wg.Add(1)
		go func(i int, action market.OrderAction) {
			defer wg.Done()
			_, results[i] = TransitionOrder(ctx, f.db, order.ID, func(o models.Order) (models.OrderStatus, error) {
				return market.NextOrderStatus(o, action)
			})
		}(i, action)
	}
	wg.Wait()

	failed := 0
	for _, err := range results {
		if err != nil {
			if !errors.Is(err, market.ErrInvalidTransition) {
				t.Fatalf("Unexpected error: %v", err)
			}
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected exactly one transition to fail, got %d", failed)
	}
}

func TestDeleteListingKeepsOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t, 3, models.PayOnDelivery)

	if err := DeleteListing(ctx, f.db, f.listing.ID, f.buyer.ID); !errors.Is(err, database.ErrListingNotFound) {
		t.Fatalf("Expected not found for non-owner, got %v", err)
	}
	if err := DeleteListing(ctx, f.db, f.listing.ID, f.farmer.ID); err != nil {
		t.Fatalf("Delete listing: %v", err)
	}

	after, err := GetOrder(ctx, f.db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if after.ListingID.Valid {
		t.Error("Expected listing reference to be cleared")
	}

	views, err := EnrichOrders(ctx, f.db, []models.Order{*after})
	if err != nil {
		t.Fatalf("Enrich orders: %v", err)
	}
	if views[0].CommodityName != models.UnknownName || views[0].BuyerName != "Sarah Achieng" {
		t.Errorf("Unexpected view: %+v", views[0])
	}
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := CreateOrders(ctx, f.db, f.buyer.ID, []market.OrderRequest{
		{ListingID: f.listing.ID, Quantity: decimal.NewFromInt(1), PaymentType: models.PayOnDelivery},
		{ListingID: f.listing.ID, Quantity: decimal.NewFromInt(500), PaymentType: models.PayOnDelivery},
	})
	if !errors.Is(err, market.ErrInvalidQuantity) {
		t.Fatalf("Expected invalid quantity, got %v", err)
	}

	orders, err := ListOrders(ctx, f.db, OrderFilter{BuyerID: f.buyer.ID})
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Expected no orders after failed checkout, got %d", len(orders))
	}
}

func TestStatsCountSuccessfulPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, target := range []models.PaymentStatus{models.PaymentSuccess, models.PaymentCompleted, models.PaymentFailed} {
		order := f.order(t, 1, models.PayNow)
		p, _, err := RecordPayment(ctx, f.db, f.buyer.ID, market.PaymentRequest{
			OrderID: order.ID, Amount: decimal.NewFromInt(3000), Method: models.MethodMTNMoMo, PhoneNumber: "0772123456",
		})
		if err != nil {
			t.Fatalf("Record payment: %v", err)
		}
		if _, err := UpdatePaymentStatus(ctx, f.db, p.ID, target, nil); err != nil {
			t.Fatalf("Update payment: %v", err)
		}
	}
	f.order(t, 1, models.PayOnDelivery)

	farmer, err := FarmerStats(ctx, f.db, f.farmer.ID, market.StartOfMonth(time.Now()))
	if err != nil {
		t.Fatalf("Farmer stats: %v", err)
	}
	if !farmer.TotalEarnings.Equal(decimal.NewFromInt(6000)) || !farmer.MonthlyEarnings.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("Unexpected earnings: %+v", farmer)
	}
	if farmer.PendingOrders != 1 || farmer.ActiveListings != 1 {
		t.Errorf("Unexpected counts: %+v", farmer)
	}

	future := market.StartOfMonth(time.Now().AddDate(0, 1, 0))
	farmer, err = FarmerStats(ctx, f.db, f.farmer.ID, future)
	if err != nil {
		t.Fatalf("Farmer stats: %v", err)
	}
	if !farmer.MonthlyEarnings.IsZero() {
		t.Errorf("Expected no earnings after next month start, got %s", farmer.MonthlyEarnings)
	}

	buyer, err := BuyerStats(ctx, f.db, f.buyer.ID)
	if err != nil {
		t.Fatalf("Buyer stats: %v", err)
	}
	if buyer.MyOrders != 4 || !buyer.TotalSpent.Equal(decimal.NewFromInt(6000)) || buyer.Commodities != 1 {
		t.Errorf("Unexpected buyer stats: %+v", buyer)
	}

	admin, err := AdminStats(ctx, f.db)
	if err != nil {
		t.Fatalf("Admin stats: %v", err)
	}
	if admin.TotalPayments != 3 || admin.TotalOrders != 4 || admin.PendingUsers != 0 {
		t.Errorf("Unexpected admin stats: %+v", admin)
	}
}
