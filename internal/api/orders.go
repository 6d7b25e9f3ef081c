package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

// orderScope limits order and payment listings to the caller's side of the trade.
func orderScope(sess *market.Session) store.OrderFilter {
	switch sess.Account.Role {
	case models.RoleBuyer:
		return store.OrderFilter{BuyerID: sess.Account.ID}
	case models.RoleFarmer:
		return store.OrderFilter{FarmerID: sess.Account.ID}
	}
	return store.OrderFilter{}
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := orderScope(session(r))
	filter.Status = models.OrderStatus(r.URL.Query().Get("status"))
	if filter.Status != "" && !filter.Status.Valid() {
		s.fail(w, r, "list orders", invalid("invalid status %q", filter.Status))
		return
	}

	cursor := r.URL.Query().Get("cursor")
	if _, err := store.DecodeCursor(cursor); err != nil {
		s.fail(w, r, "list orders", invalid("invalid cursor"))
		return
	}

	page, err := store.ListOrdersCursor(r.Context(), s.db, filter, cursor, queryInt(r, "limit", store.DefaultPageSize))
	if err != nil {
		s.fail(w, r, "list orders", err)
		return
	}

	views, err := store.EnrichOrders(r.Context(), s.db, page.Items)
	if err != nil {
		s.fail(w, r, "list orders", err)
		return
	}
	s.respondJSON(w, http.StatusOK, store.CursorPage[models.OrderView]{
		Items:      views,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, "get order", err)
		return
	}
	order, err := store.GetOrder(r.Context(), s.db, id)
	if err != nil {
		s.fail(w, r, "get order", err)
		return
	}
	if !market.CanView(session(r), *order) {
		s.fail(w, r, "get order", market.ErrForbidden)
		return
	}

	views, err := store.EnrichOrders(r.Context(), s.db, []models.Order{*order})
	if err != nil {
		s.fail(w, r, "get order", err)
		return
	}
	s.respondJSON(w, http.StatusOK, views[0])
}

type orderRequest struct {
	ListingID        uuid.UUID          `json:"listing_id" validate:"required"`
	Quantity         decimal.Decimal    `json:"quantity"`
	PaymentType      models.PaymentType `json:"payment_type" validate:"required,oneof=pay_now pay_on_delivery"`
	DeliveryLocation *string            `json:"delivery_location" validate:"omitempty,max=255"`
	BuyerMessage     *string            `json:"buyer_message" validate:"omitempty,max=1000"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req orderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "create order", err)
		return
	}

	order, err := store.CreateOrder(r.Context(), s.db, session(r).Account.ID, market.OrderRequest{
		ListingID:        req.ListingID,
		Quantity:         req.Quantity,
		PaymentType:      req.PaymentType,
		DeliveryLocation: req.DeliveryLocation,
		BuyerMessage:     req.BuyerMessage,
	})
	if err != nil {
		s.fail(w, r, "create order", err)
		return
	}
	metrics.RecordOrdersPlaced(string(order.PaymentType), 1)

	s.respondJSON(w, http.StatusCreated, order)
}

// transitionOrder applies action under the order's row lock. Authorization is
// checked against the locked row so it sees the current participants.
func (s *Server) transitionOrder(action market.OrderAction) httprouter.Handle {
	op := string(action) + " order"
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := pathID(ps, "id")
		if err != nil {
			s.fail(w, r, op, err)
			return
		}

		sess := session(r)
		order, err := store.TransitionOrder(r.Context(), s.db, id, func(o models.Order) (models.OrderStatus, error) {
			if err := market.AuthorizeOrderAction(sess, o, action); err != nil {
				return o.Status, err
			}
			return market.NextOrderStatus(o, action)
		})
		metrics.RecordOrderTransition(string(action), err)
		if err != nil {
			s.fail(w, r, op, err)
			return
		}
		s.respondJSON(w, http.StatusOK, order)
	}
}
