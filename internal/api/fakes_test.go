package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/safar/agromarket/internal/auth"
	"github.com/safar/agromarket/internal/cart"
	"github.com/safar/agromarket/internal/logger"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

type fakeAuth struct {
	mu       sync.Mutex
	sessions map[string]*market.Session
	signups  []auth.SignUpInput
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]*market.Session{}}
}

// login registers a session for a fresh account and returns its bearer token.
func (f *fakeAuth) login(role models.Role, status models.AccountStatus) (string, *market.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &market.Session{
		ID: uuid.New(),
		Account: models.Account{
			ID:       uuid.New(),
			FullName: "Test " + string(role),
			Role:     role,
			Status:   status,
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	token := "token-" + s.ID.String()
	f.sessions[token] = s
	return token, s
}

func (f *fakeAuth) SignUp(_ context.Context, in auth.SignUpInput) (*models.Account, error) {
	status, err := market.InitialAccountStatus(in.Role)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups = append(f.signups, in)
	return &models.Account{ID: uuid.New(), FullName: in.FullName, Role: in.Role, Status: status}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (string, *market.Session, error) {
	if password != "secret123" {
		return "", nil, auth.ErrInvalidCredentials
	}
	token, s := f.login(models.RoleBuyer, models.AccountApproved)
	return token, s, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*market.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return s, nil
}

func (f *fakeAuth) SignOut(_ context.Context, s *market.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, existing := range f.sessions {
		if existing.ID == s.ID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeAuth) ChangePassword(_ context.Context, _ *market.Session, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return auth.ErrWeakPassword
	}
	return nil
}

type fakeCarts struct {
	mu    sync.Mutex
	lines map[uuid.UUID]map[uuid.UUID]decimal.Decimal
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{lines: map[uuid.UUID]map[uuid.UUID]decimal.Decimal{}}
}

func (c *fakeCarts) cart(buyerID uuid.UUID) map[uuid.UUID]decimal.Decimal {
	if c.lines[buyerID] == nil {
		c.lines[buyerID] = map[uuid.UUID]decimal.Decimal{}
	}
	return c.lines[buyerID]
}

func (c *fakeCarts) Add(_ context.Context, buyerID, listingID uuid.UUID, quantity decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := c.cart(buyerID)
	lines[listingID] = lines[listingID].Add(quantity)
	return nil
}

func (c *fakeCarts) Set(_ context.Context, buyerID, listingID uuid.UUID, quantity decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !quantity.IsPositive() {
		delete(c.cart(buyerID), listingID)
		return nil
	}
	c.cart(buyerID)[listingID] = quantity
	return nil
}

func (c *fakeCarts) Remove(_ context.Context, buyerID, listingID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cart(buyerID), listingID)
	return nil
}

func (c *fakeCarts) Clear(_ context.Context, buyerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, buyerID)
	return nil
}

func (c *fakeCarts) Items(_ context.Context, buyerID uuid.UUID) ([]cart.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := []cart.Item{}
	for id, qty := range c.lines[buyerID] {
		items = append(items, cart.Item{ListingID: id, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ListingID.String() < items[j].ListingID.String() })
	return items, nil
}

type harness struct {
	server *Server
	mock   sqlmock.Sqlmock
	db     *sql.DB
	auth   *fakeAuth
	carts  *fakeCarts
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &harness{mock: mock, db: db, auth: newFakeAuth(), carts: newFakeCarts()}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	h.server = NewServer(db, h.auth, h.carts, logger.Discard(), opts)
	return h
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

var (
	listingCols = []string{"id", "farmer_id", "commodity_id", "quantity", "price_per_unit", "location", "description", "is_available", "created_at"}
	orderCols   = []string{"id", "listing_id", "buyer_id", "farmer_id", "quantity", "total_price", "status", "payment_type",
		"delivery_location", "buyer_message", "created_at", "updated_at"}
	accountCols = []string{"id", "full_name", "phone", "location", "role", "account_status", "created_at", "updated_at"}
)

var fixedTime = time.Date(2024, time.March, 17, 9, 30, 0, 0, time.UTC)

func listingRows(listings ...models.Listing) *sqlmock.Rows {
	rows := sqlmock.NewRows(listingCols)
	for _, l := range listings {
		rows.AddRow(l.ID.String(), l.FarmerID.String(), l.CommodityID.String(), l.Quantity.StringFixed(2),
			l.PricePerUnit.StringFixed(2), l.Location, nil, l.IsAvailable, fixedTime)
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
		rows.AddRow(o.ID.String(), listing, o.BuyerID.String(), o.FarmerID.String(), o.Quantity.StringFixed(2),
			o.TotalPrice.StringFixed(2), string(o.Status), string(o.PaymentType), nil, nil, fixedTime, fixedTime)
	}
	return rows
}

func testListing(farmerID uuid.UUID) models.Listing {
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

func testOrder(buyerID, farmerID uuid.UUID, status models.OrderStatus) models.Order {
	return models.Order{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		FarmerID:    farmerID,
		Quantity:    decimal.NewFromInt(10),
		TotalPrice:  decimal.NewFromInt(30000),
		Status:      status,
		PaymentType: models.PayNow,
	}
}
