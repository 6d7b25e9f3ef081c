package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/models"
)

const commodityColumns = `id, name, unit, current_price, created_at, updated_at`

func scanCommodity(row rowScanner) (*models.Commodity, error) {
	c := &models.Commodity{}
	if err := row.Scan(&c.ID, &c.Name, &c.Unit, &c.CurrentPrice, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func CreateCommodity(ctx context.Context, db *sql.DB, name, unit string, price decimal.Decimal) (*models.Commodity, error) {
	if unit == "" {
		unit = models.DefaultUnit
	}
	c, err := scanCommodity(db.QueryRowContext(ctx,
		`INSERT INTO commodities (name, unit, current_price, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING `+commodityColumns,
		name, unit, price))
	if err != nil {
		return nil, fmt.Errorf("create commodity: %w", err)
	}
	return c, nil
}

func UpdateCommodityPrice(ctx context.Context, db *sql.DB, id uuid.UUID, price decimal.Decimal) (*models.Commodity, error) {
	c, err := scanCommodity(db.QueryRowContext(ctx,
		`UPDATE commodities
		 SET current_price = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+commodityColumns,
		id, price))
	if err != nil {
		return nil, database.NotFound(err, database.ErrCommodityNotFound, "update commodity price")
	}
	return c, nil
}

func ListCommodities(ctx context.Context, db *sql.DB) ([]models.Commodity, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+commodityColumns+` FROM commodities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list commodities: %w", err)
	}
	defer rows.Close()

	commodities := []models.Commodity{}
	for rows.Next() {
		c, err := scanCommodity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commodity: %w", err)
		}
		commodities = append(commodities, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return commodities, nil
}
