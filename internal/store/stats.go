package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

func successfulStatuses() any {
	out := make([]string, len(models.SuccessfulPaymentStatuses))
	for i, s := range models.SuccessfulPaymentStatuses {
		out[i] = string(s)
	}
	return pq.Array(out)
}

func AdminStats(ctx context.Context, db *sql.DB) (market.AdminStats, error) {
	var stats market.AdminStats
	err := db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM accounts WHERE account_status = $1),
			(SELECT COUNT(*) FROM produce_listings),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM payments)`,
		models.AccountPending).Scan(
		&stats.PendingUsers,
		&stats.TotalListings,
		&stats.TotalOrders,
		&stats.TotalPayments,
	)
	if err != nil {
		return stats, fmt.Errorf("admin stats: %w", err)
	}
	return stats, nil
}

// FarmerStats counts the farmer's open work and sums successful payments,
// all-time and since monthStart.
func FarmerStats(ctx context.Context, db *sql.DB, farmerID uuid.UUID, monthStart time.Time) (market.FarmerStats, error) {
	var stats market.FarmerStats
	err := db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM produce_listings WHERE farmer_id = $1 AND is_available),
			(SELECT COUNT(*) FROM orders WHERE farmer_id = $1 AND status = $2),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE farmer_id = $1 AND status = ANY($3)),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE farmer_id = $1 AND status = ANY($3) AND created_at >= $4)`,
		farmerID, models.OrderStatusPending, successfulStatuses(), monthStart).Scan(
		&stats.ActiveListings,
		&stats.PendingOrders,
		&stats.TotalEarnings,
		&stats.MonthlyEarnings,
	)
	if err != nil {
		return stats, fmt.Errorf("farmer stats: %w", err)
	}
	return stats, nil
}

func BuyerStats(ctx context.Context, db *sql.DB, buyerID uuid.UUID) (market.BuyerStats, error) {
	var stats market.BuyerStats
	err := db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM produce_listings WHERE is_available),
			(SELECT COUNT(*) FROM orders WHERE buyer_id = $1),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE buyer_id = $1 AND status = ANY($2)),
			(SELECT COUNT(*) FROM commodities)`,
		buyerID, successfulStatuses()).Scan(
		&stats.AvailableProduce,
		&stats.MyOrders,
		&stats.TotalSpent,
		&stats.Commodities,
	)
	if err != nil {
		return stats, fmt.Errorf("buyer stats: %w", err)
	}
	return stats, nil
}
