package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/cart"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

func (s *Server) getCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID := session(r).Account.ID
	items, err := s.carts.Items(r.Context(), buyerID)
	if err != nil {
		s.fail(w, r, "load cart", err)
		return
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ListingID)
	}
	found, err := store.GetListings(r.Context(), s.db, ids)
	if err != nil {
		s.fail(w, r, "load cart", err)
		return
	}
	listings := make([]models.Listing, 0, len(found))
	for _, l := range found {
		listings = append(listings, l)
	}
	views, err := store.EnrichListings(r.Context(), s.db, listings)
	if err != nil {
		s.fail(w, r, "load cart", err)
		return
	}
	byID := make(map[uuid.UUID]models.ListingView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}

	s.respondJSON(w, http.StatusOK, cart.BuildView(items, byID))
}

type cartItemRequest struct {
	ListingID uuid.UUID       `json:"listing_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req cartItemRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "add to cart", err)
		return
	}
	if err := market.ValidateQuantity(req.Quantity); err != nil {
		s.fail(w, r, "add to cart", err)
		return
	}

	listing, err := store.GetListing(r.Context(), s.db, req.ListingID)
	if err != nil {
		s.fail(w, r, "add to cart", err)
		return
	}
	buyerID := session(r).Account.ID
	switch {
	case !listing.IsAvailable:
		s.fail(w, r, "add to cart", market.ErrListingUnavailable)
		return
	case listing.FarmerID == buyerID:
		s.fail(w, r, "add to cart", market.ErrOwnListing)
		return
	}

	if err := s.carts.Add(r.Context(), buyerID, req.ListingID, req.Quantity); err != nil {
		s.fail(w, r, "add to cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cartQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// setCartItem replaces a line's quantity. Zero or less removes the line.
func (s *Server) setCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := pathID(ps, "listing_id")
	if err != nil {
		s.fail(w, r, "update cart", err)
		return
	}
	var req cartQuantityRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "update cart", err)
		return
	}
	if err := s.carts.Set(r.Context(), session(r).Account.ID, listingID, req.Quantity); err != nil {
		s.fail(w, r, "update cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID, err := pathID(ps, "listing_id")
	if err != nil {
		s.fail(w, r, "update cart", err)
		return
	}
	if err := s.carts.Remove(r.Context(), session(r).Account.ID, listingID); err != nil {
		s.fail(w, r, "update cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.carts.Clear(r.Context(), session(r).Account.ID); err != nil {
		s.fail(w, r, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	PaymentType      models.PaymentType `json:"payment_type" validate:"required,oneof=pay_now pay_on_delivery"`
	DeliveryLocation string             `json:"delivery_location" validate:"required,min=2,max=255"`
	BuyerMessage     *string            `json:"buyer_message" validate:"omitempty,max=1000"`
}

// checkout places one order per cart line in a single transaction and empties
// the cart only after every order is stored.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req checkoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "checkout", err)
		return
	}

	buyerID := session(r).Account.ID
	items, err := s.carts.Items(r.Context(), buyerID)
	if err != nil {
		s.fail(w, r, "checkout", err)
		return
	}
	reqs, err := cart.OrderRequests(items, cart.CheckoutInput{
		PaymentType:      req.PaymentType,
		DeliveryLocation: strings.TrimSpace(req.DeliveryLocation),
		BuyerMessage:     req.BuyerMessage,
	})
	if err != nil {
		s.fail(w, r, "checkout", err)
		return
	}

	orders, err := store.CreateOrders(r.Context(), s.db, buyerID, reqs)
	if err != nil {
		s.fail(w, r, "checkout", err)
		return
	}
	metrics.RecordOrdersPlaced(string(req.PaymentType), len(orders))

	if err := s.carts.Clear(r.Context(), buyerID); err != nil {
		s.log.WithError(err).WithField("buyer_id", buyerID).Warn("clear cart after checkout")
	}

	views, err := store.EnrichOrders(r.Context(), s.db, orders)
	if err != nil {
		s.fail(w, r, "checkout", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, views)
}
