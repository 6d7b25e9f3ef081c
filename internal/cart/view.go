package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

type Line struct {
	Listing   models.ListingView `json:"listing"`
	Quantity  decimal.Decimal    `json:"quantity"`
	LineTotal decimal.Decimal    `json:"line_total"`
}

type View struct {
	Lines []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
	// Missing lists cart entries whose listing no longer exists.
	Missing []uuid.UUID `json:"missing,omitempty"`
}

// BuildView prices each cart line at the listing's current price.
func BuildView(items []Item, listings map[uuid.UUID]models.ListingView) View {
	view := View{Lines: []Line{}, Total: decimal.Zero}
	for _, item := range items {
		listing, ok := listings[item.ListingID]
		if !ok {
			view.Missing = append(view.Missing, item.ListingID)
			continue
		}
		total := item.Quantity.Mul(listing.PricePerUnit)
		view.Lines = append(view.Lines, Line{
			Listing:   listing,
			Quantity:  item.Quantity,
			LineTotal: total,
		})
		view.Total = view.Total.Add(total)
	}
	return view
}

type CheckoutInput struct {
	PaymentType      models.PaymentType
	DeliveryLocation string
	BuyerMessage     *string
}

// OrderRequests turns cart lines into one order request per listing.
func OrderRequests(items []Item, in CheckoutInput) ([]market.OrderRequest, error) {
	if len(items) == 0 {
		return nil, market.ErrEmptyCart
	}

	location := in.DeliveryLocation
	reqs := make([]market.OrderRequest, 0, len(items))
	for _, item := range items {
		reqs = append(reqs, market.OrderRequest{
			ListingID:        item.ListingID,
			Quantity:         item.Quantity,
			PaymentType:      in.PaymentType,
			DeliveryLocation: &location,
			BuyerMessage:     in.BuyerMessage,
		})
	}
	return reqs, nil
}
