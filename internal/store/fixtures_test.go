package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/safar/agromarket/internal/models"
)

var (
	accountCols = []string{"id", "full_name", "phone", "location", "role", "account_status", "created_at", "updated_at"}
	listingCols = []string{"id", "farmer_id", "commodity_id", "quantity", "price_per_unit", "location", "description", "is_available", "created_at"}
	orderCols   = []string{"id", "listing_id", "buyer_id", "farmer_id", "quantity", "total_price", "status", "payment_type",
		"delivery_location", "buyer_message", "created_at", "updated_at"}
	paymentCols = []string{"id", "order_id", "buyer_id", "farmer_id", "amount", "payment_method", "status", "phone_number",
		"transaction_id", "idempotency_key", "created_at", "updated_at"}
)

var fixedTime = time.Date(2024, time.March, 17, 9, 30, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func accountRows(accounts ...models.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows(accountCols)
	for _, a := range accounts {
		rows.AddRow(a.ID.String(), a.FullName, a.Phone, a.Location, string(a.Role), string(a.Status), fixedTime, fixedTime)
	}
	return rows
}

func listingRows(listings ...models.Listing) *sqlmock.Rows {
	rows := sqlmock.NewRows(listingCols)
	for _, l := range listings {
		rows.AddRow(l.ID.String(), l.FarmerID.String(), l.CommodityID.String(), l.Quantity.StringFixed(2),
			l.PricePerUnit.StringFixed(2), l.Location, optional(l.Description), l.IsAvailable, fixedTime)
	}
	return rows
}

func orderRows(orders ...models.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows(orderCols)
	for _, o := range orders {
		var listing any
		if o.ListingID.Valid {
			listing = o.ListingID.UUID.String()
		}
		created := o.CreatedAt
		if created.IsZero() {
			created = fixedTime
		}
		rows.AddRow(o.ID.String(), listing, o.BuyerID.String(), o.FarmerID.String(), o.Quantity.StringFixed(2),
			o.TotalPrice.StringFixed(2), string(o.Status), string(o.PaymentType), optional(o.DeliveryLocation),
			optional(o.BuyerMessage), created, created)
	}
	return rows
}

func paymentRows(payments ...models.Payment) *sqlmock.Rows {
	rows := sqlmock.NewRows(paymentCols)
	for _, p := range payments {
		rows.AddRow(p.ID.String(), p.OrderID.String(), p.BuyerID.String(), p.FarmerID.String(), p.Amount.StringFixed(2),
			string(p.Method), string(p.Status), p.PhoneNumber, optional(p.TransactionID), optional(p.IdempotencyKey),
			fixedTime, fixedTime)
	}
	return rows
}

func sampleListing(farmerID uuid.UUID) models.Listing {
	return models.Listing{
		ID:           uuid.New(),
		FarmerID:     farmerID,
		CommodityID:  uuid.New(),
		Quantity:     decimal.NewFromInt(50),
		PricePerUnit: decimal.NewFromInt(3000),
		Location:     "Mbarara",
		IsAvailable:  true,
	}
}

func sampleOrder(buyerID, farmerID uuid.UUID) models.Order {
	return models.Order{
		ID:          uuid.New(),
		ListingID:   uuid.NullUUID{UUID: uuid.New(), Valid: true},
		BuyerID:     buyerID,
		FarmerID:    farmerID,
		Quantity:    decimal.NewFromInt(10),
		TotalPrice:  decimal.NewFromInt(30000),
		Status:      models.OrderStatusPending,
		PaymentType: models.PayNow,
	}
}
