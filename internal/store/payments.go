package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

const paymentColumns = `id, order_id, buyer_id, farmer_id, amount, payment_method, status, phone_number,
	transaction_id, idempotency_key, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.BuyerID,
		&p.FarmerID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.PhoneNumber,
		&p.TransactionID,
		&p.IdempotencyKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RecordPayment inserts a pending payment and moves its order to paid in one
// transaction. When req carries an idempotency key that was already used for
// the same buyer and order, the stored payment is returned and created is false.
func RecordPayment(ctx context.Context, db *sql.DB, buyerID uuid.UUID, req market.PaymentRequest) (payment *models.Payment, created bool, err error) {
	if existing, ok, err := replayPayment(ctx, db, buyerID, req); err != nil || ok {
		return existing, false, err
	}

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := getOrder(ctx, tx, req.OrderID, "FOR UPDATE")
		if err != nil {
			return err
		}

		draft, next, err := market.NewPayment(*order, buyerID, req)
		if err != nil {
			return err
		}

		payment, err = scanPayment(tx.QueryRowContext(ctx,
			`INSERT INTO payments (order_id, buyer_id, farmer_id, amount, payment_method, status, phone_number,
			                       idempotency_key, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			 RETURNING `+paymentColumns,
			draft.OrderID, draft.BuyerID, draft.FarmerID, draft.Amount, draft.Method, draft.Status,
			draft.PhoneNumber, draft.IdempotencyKey))
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		_, err = setOrderStatus(ctx, tx, order.ID, next)
		return err
	})
	if err != nil {
		// A concurrent request with the same key may have won the race.
		if existing, ok, lookupErr := replayPayment(ctx, db, buyerID, req); lookupErr == nil && ok {
			return existing, false, nil
		}
		return nil, false, err
	}

	return payment, true, nil
}

func replayPayment(ctx context.Context, db *sql.DB, buyerID uuid.UUID, req market.PaymentRequest) (*models.Payment, bool, error) {
	if req.IdempotencyKey == nil || *req.IdempotencyKey == "" {
		return nil, false, nil
	}

	existing, err := GetPaymentByIdempotencyKey(ctx, db, *req.IdempotencyKey)
	if errors.Is(err, database.ErrPaymentNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if existing.BuyerID != buyerID || existing.OrderID != req.OrderID {
		return nil, false, market.ErrForbidden
	}
	return existing, true, nil
}

func GetPayment(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Payment, error) {
	p, err := scanPayment(db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, database.NotFound(err, database.ErrPaymentNotFound, "get payment")
	}
	return p, nil
}

func GetPaymentByIdempotencyKey(ctx context.Context, db *sql.DB, key string) (*models.Payment, error) {
	p, err := scanPayment(db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key))
	if err != nil {
		return nil, database.NotFound(err, database.ErrPaymentNotFound, "get payment by key")
	}
	return p, nil
}

// UpdatePaymentStatus settles a pending payment. The order is left untouched.
func UpdatePaymentStatus(ctx context.Context, db *sql.DB, id uuid.UUID, target models.PaymentStatus, transactionID *string) (*models.Payment, error) {
	var payment *models.Payment

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return database.NotFound(err, database.ErrPaymentNotFound, "lock payment")
		}

		next, err := market.NextPaymentStatus(current.Status, target)
		if err != nil {
			return err
		}

		payment, err = scanPayment(tx.QueryRowContext(ctx,
			`UPDATE payments
			 SET status = $2, transaction_id = COALESCE($3, transaction_id), updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+paymentColumns,
			id, next, transactionID))
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// PaymentFilter scopes payment listings to one side of the trade.
type PaymentFilter struct {
	BuyerID  uuid.UUID
	FarmerID uuid.UUID
}

func ListPayments(ctx context.Context, db *sql.DB, filter PaymentFilter) ([]models.Payment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE ($1::uuid IS NULL OR buyer_id = $1)
		   AND ($2::uuid IS NULL OR farmer_id = $2)
		 ORDER BY created_at DESC, id DESC`,
		nullableID(filter.BuyerID), nullableID(filter.FarmerID))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return payments, nil
}
