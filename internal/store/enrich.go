package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

type commodityRef struct {
	name string
	unit string
}

func accountNames(ctx context.Context, db *sql.DB, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	ids = uniqueIDs(ids)
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, full_name FROM accounts WHERE id = ANY($1::uuid[])`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("load account names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan account name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return names, nil
}

func commodityRefs(ctx context.Context, db *sql.DB, ids []uuid.UUID) (map[uuid.UUID]commodityRef, error) {
	ids = uniqueIDs(ids)
	refs := make(map[uuid.UUID]commodityRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, unit FROM commodities WHERE id = ANY($1::uuid[])`, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("load commodities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var ref commodityRef
		if err := rows.Scan(&id, &ref.name, &ref.unit); err != nil {
			return nil, fmt.Errorf("scan commodity: %w", err)
		}
		refs[id] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return refs, nil
}

// listingCommodityNames maps listing ids to the name of their commodity.
func listingCommodityNames(ctx context.Context, db *sql.DB, listingIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	listingIDs = uniqueIDs(listingIDs)
	names := make(map[uuid.UUID]string, len(listingIDs))
	if len(listingIDs) == 0 {
		return names, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT l.id, c.name
		 FROM produce_listings l
		 JOIN commodities c ON c.id = l.commodity_id
		 WHERE l.id = ANY($1::uuid[])`, uuidArray(listingIDs))
	if err != nil {
		return nil, fmt.Errorf("load listing commodities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan listing commodity: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return names, nil
}

func nameOr(names map[uuid.UUID]string, id uuid.UUID, fallback string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fallback
}

// EnrichListings attaches commodity and farmer names with one query per
// referenced table.
func EnrichListings(ctx context.Context, db *sql.DB, listings []models.Listing) ([]models.ListingView, error) {
	commodityIDs := make([]uuid.UUID, 0, len(listings))
	farmerIDs := make([]uuid.UUID, 0, len(listings))
	for _, l := range listings {
		commodityIDs = append(commodityIDs, l.CommodityID)
		farmerIDs = append(farmerIDs, l.FarmerID)
	}

	commodities, err := commodityRefs(ctx, db, commodityIDs)
	if err != nil {
		return nil, err
	}
	farmers, err := accountNames(ctx, db, farmerIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.ListingView, 0, len(listings))
	for _, l := range listings {
		ref, ok := commodities[l.CommodityID]
		if !ok {
			ref = commodityRef{name: models.UnknownName, unit: models.DefaultUnit}
		}
		views = append(views, models.ListingView{
			Listing:       l,
			CommodityName: ref.name,
			CommodityUnit: ref.unit,
			FarmerName:    nameOr(farmers, l.FarmerID, models.UnknownFarmerName),
		})
	}
	return views, nil
}

func EnrichOrders(ctx context.Context, db *sql.DB, orders []models.Order) ([]models.OrderView, error) {
	accountIDs := make([]uuid.UUID, 0, 2*len(orders))
	listingIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		accountIDs = append(accountIDs, o.BuyerID, o.FarmerID)
		if o.ListingID.Valid {
			listingIDs = append(listingIDs, o.ListingID.UUID)
		}
	}

	names, err := accountNames(ctx, db, accountIDs)
	if err != nil {
		return nil, err
	}
	commodities, err := listingCommodityNames(ctx, db, listingIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		commodity := models.UnknownName
		if o.ListingID.Valid {
			commodity = nameOr(commodities, o.ListingID.UUID, models.UnknownName)
		}
		views = append(views, models.OrderView{
			Order:         o,
			BuyerName:     nameOr(names, o.BuyerID, models.UnknownName),
			FarmerName:    nameOr(names, o.FarmerID, models.UnknownFarmerName),
			CommodityName: commodity,
			CanPayNow:     market.CanPayNow(o),
		})
	}
	return views, nil
}

func EnrichPayments(ctx context.Context, db *sql.DB, payments []models.Payment) ([]models.PaymentView, error) {
	accountIDs := make([]uuid.UUID, 0, 2*len(payments))
	for _, p := range payments {
		accountIDs = append(accountIDs, p.BuyerID, p.FarmerID)
	}

	names, err := accountNames(ctx, db, accountIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, models.PaymentView{
			Payment:     p,
			BuyerName:   nameOr(names, p.BuyerID, models.UnknownName),
			FarmerName:  nameOr(names, p.FarmerID, models.UnknownFarmerName),
			MethodLabel: p.Method.Label(),
		})
	}
	return views, nil
}
