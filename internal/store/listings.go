package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

const listingColumns = `id, farmer_id, commodity_id, quantity, price_per_unit, location, description, is_available, created_at`

func scanListing(row rowScanner) (*models.Listing, error) {
	l := &models.Listing{}
	err := row.Scan(
		&l.ID,
		&l.FarmerID,
		&l.CommodityID,
		&l.Quantity,
		&l.PricePerUnit,
		&l.Location,
		&l.Description,
		&l.IsAvailable,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

type NewListing struct {
	FarmerID     uuid.UUID
	CommodityID  uuid.UUID
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	Location     string
	Description  *string
}

func CreateListing(ctx context.Context, db *sql.DB, req NewListing) (*models.Listing, error) {
	err := market.ValidateListing(models.Listing{Quantity: req.Quantity, PricePerUnit: req.PricePerUnit})
	if err != nil {
		return nil, err
	}

	l, err := scanListing(db.QueryRowContext(ctx,
		`INSERT INTO produce_listings (farmer_id, commodity_id, quantity, price_per_unit, location, description, is_available, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		 RETURNING `+listingColumns,
		req.FarmerID, req.CommodityID, req.Quantity, req.PricePerUnit, req.Location, req.Description))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCommodityNotFound
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

// DeleteListing removes a listing owned by farmerID. Orders placed against it
// keep their rows with listing_id cleared.
func DeleteListing(ctx context.Context, db *sql.DB, id, farmerID uuid.UUID) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM produce_listings WHERE id = $1 AND farmer_id = $2`, id, farmerID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrListingNotFound
	}
	return nil
}

func GetListing(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Listing, error) {
	return getListing(ctx, db, id, "")
}

// getListing reads one listing, optionally with a row-level lock clause.
func getListing(ctx context.Context, q querier, id uuid.UUID, lock string) (*models.Listing, error) {
	l, err := scanListing(q.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM produce_listings WHERE id = $1 `+lock, id))
	if err != nil {
		return nil, database.NotFound(err, database.ErrListingNotFound, "get listing")
	}
	return l, nil
}

// ListAvailableListings returns every listing open for ordering, newest first.
func ListAvailableListings(ctx context.Context, db *sql.DB) ([]models.Listing, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+listingColumns+`
		 FROM produce_listings
		 WHERE is_available
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list available listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func ListFarmerListings(ctx context.Context, db *sql.DB, farmerID uuid.UUID) ([]models.Listing, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+listingColumns+`
		 FROM produce_listings
		 WHERE farmer_id = $1
		 ORDER BY created_at DESC`, farmerID)
	if err != nil {
		return nil, fmt.Errorf("list farmer listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

// GetListings fetches the listings with the given ids. Missing ids are absent
// from the map.
func GetListings(ctx context.Context, db *sql.DB, ids []uuid.UUID) (map[uuid.UUID]models.Listing, error) {
	ids = uniqueIDs(ids)
	out := make(map[uuid.UUID]models.Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM produce_listings WHERE id = ANY($1::uuid[])`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("get listings: %w", err)
	}
	defer rows.Close()

	listings, err := collectListings(rows)
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		out[l.ID] = l
	}
	return out, nil
}

func collectListings(rows *sql.Rows) ([]models.Listing, error) {
	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return listings, nil
}
