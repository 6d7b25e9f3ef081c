package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

const orderColumns = `id, listing_id, buyer_id, farmer_id, quantity, total_price, status, payment_type,
	delivery_location, buyer_message, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.ListingID,
		&o.BuyerID,
		&o.FarmerID,
		&o.Quantity,
		&o.TotalPrice,
		&o.Status,
		&o.PaymentType,
		&o.DeliveryLocation,
		&o.BuyerMessage,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrder prices and inserts a single pending order.
func CreateOrder(ctx context.Context, db *sql.DB, buyerID uuid.UUID, req market.OrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var err error
		order, err = placeOrder(ctx, tx, buyerID, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// CreateOrders inserts every order of a checkout or none of them.
func CreateOrders(ctx context.Context, db *sql.DB, buyerID uuid.UUID, reqs []market.OrderRequest) ([]models.Order, error) {
	if len(reqs) == 0 {
		return nil, market.ErrEmptyCart
	}

	var orders []models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		orders = make([]models.Order, 0, len(reqs))
		for _, req := range reqs {
			order, err := placeOrder(ctx, tx, buyerID, req)
			if err != nil {
				return fmt.Errorf("listing %s: %w", req.ListingID, err)
			}
			orders = append(orders, *order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func placeOrder(ctx context.Context, tx *sql.Tx, buyerID uuid.UUID, req market.OrderRequest) (*models.Order, error) {
	listing, err := getListing(ctx, tx, req.ListingID, "FOR SHARE")
	if err != nil {
		return nil, err
	}

	draft, err := market.NewOrder(buyerID, *listing, req)
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`INSERT INTO orders (listing_id, buyer_id, farmer_id, quantity, total_price, status, payment_type,
		                     delivery_location, buyer_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING `+orderColumns,
		draft.ListingID, draft.BuyerID, draft.FarmerID, draft.Quantity, draft.TotalPrice,
		draft.Status, draft.PaymentType, draft.DeliveryLocation, draft.BuyerMessage))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Order, error) {
	return getOrder(ctx, db, id, "")
}

func getOrder(ctx context.Context, q querier, id uuid.UUID, lock string) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 `+lock, id))
	if err != nil {
		return nil, database.NotFound(err, database.ErrOrderNotFound, "get order")
	}
	return order, nil
}

// TransitionOrder locks the order row and lets decide pick the next status
// from the committed current state. A concurrent transition waits for the
// lock and is then decided against the first one's result.
func TransitionOrder(ctx context.Context, db *sql.DB, id uuid.UUID, decide func(models.Order) (models.OrderStatus, error)) (*models.Order, error) {
	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := getOrder(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}

		next, err := decide(*current)
		if err != nil {
			return err
		}

		order, err = setOrderStatus(ctx, tx, id, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func setOrderStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	order, err := scanOrder(tx.QueryRowContext(ctx,
		`UPDATE orders
		 SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, status))
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return order, nil
}

// OrderFilter narrows order listings. Zero fields match everything.
type OrderFilter struct {
	BuyerID  uuid.UUID
	FarmerID uuid.UUID
	Status   models.OrderStatus
}

const orderFilterClause = `($1::uuid IS NULL OR buyer_id = $1)
	   AND ($2::uuid IS NULL OR farmer_id = $2)
	   AND ($3 = '' OR status = $3)`

func (f OrderFilter) args() []any {
	return []any{nullableID(f.BuyerID), nullableID(f.FarmerID), string(f.Status)}
}

// ListOrders returns matching orders, newest first.
func ListOrders(ctx context.Context, db *sql.DB, filter OrderFilter) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE `+orderFilterClause+`
		 ORDER BY created_at DESC, id DESC`,
		filter.args()...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, filter OrderFilter, cursor string, limit int) (*CursorPage[models.Order], error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	limit = ClampLimit(limit)

	args := append(filter.args(), cursorData.CreatedAt, cursorData.ID, limit+1)
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE `+orderFilterClause+`
		   AND (created_at, id) < ($4, $5)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $6`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage[models.Order]{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}
