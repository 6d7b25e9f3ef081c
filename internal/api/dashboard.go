package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

type dashboardResponse struct {
	Kind      market.DashboardKind `json:"kind"`
	Dashboard market.Dashboard     `json:"dashboard"`
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	d, err := s.buildDashboard(r.Context(), session(r))
	if err != nil {
		s.fail(w, r, "load dashboard", err)
		return
	}
	s.respondJSON(w, http.StatusOK, dashboardResponse{Kind: d.Kind(), Dashboard: d})
}

func (s *Server) buildDashboard(ctx context.Context, sess *market.Session) (market.Dashboard, error) {
	switch market.DashboardKindFor(sess) {
	case market.KindFarmer:
		return s.farmerDashboard(ctx, sess.Account.ID)
	case market.KindBuyer:
		return s.buyerDashboard(ctx, sess.Account.ID)
	case market.KindAdmin:
		return s.adminDashboard(ctx)
	default:
		return market.NoticeFor(sess.Account.Status), nil
	}
}

func (s *Server) farmerDashboard(ctx context.Context, farmerID uuid.UUID) (market.Dashboard, error) {
	monthStart := market.StartOfMonth(s.now().In(s.loc))
	stats, err := store.FarmerStats(ctx, s.db, farmerID, monthStart)
	if err != nil {
		return nil, err
	}

	listings, err := store.ListFarmerListings(ctx, s.db, farmerID)
	if err != nil {
		return nil, err
	}
	listingViews, err := store.EnrichListings(ctx, s.db, listings)
	if err != nil {
		return nil, err
	}

	orders, err := store.ListOrders(ctx, s.db, store.OrderFilter{FarmerID: farmerID})
	if err != nil {
		return nil, err
	}
	orderViews, err := store.EnrichOrders(ctx, s.db, orders)
	if err != nil {
		return nil, err
	}

	return market.FarmerDashboard{Stats: stats, Listings: listingViews, Orders: orderViews}, nil
}

func (s *Server) buyerDashboard(ctx context.Context, buyerID uuid.UUID) (market.Dashboard, error) {
	stats, err := store.BuyerStats(ctx, s.db, buyerID)
	if err != nil {
		return nil, err
	}

	listings, err := store.ListAvailableListings(ctx, s.db)
	if err != nil {
		return nil, err
	}
	listingViews, err := store.EnrichListings(ctx, s.db, listings)
	if err != nil {
		return nil, err
	}

	orders, err := store.ListOrders(ctx, s.db, store.OrderFilter{BuyerID: buyerID})
	if err != nil {
		return nil, err
	}
	orderViews, err := store.EnrichOrders(ctx, s.db, orders)
	if err != nil {
		return nil, err
	}

	payments, err := store.ListPayments(ctx, s.db, store.PaymentFilter{BuyerID: buyerID})
	if err != nil {
		return nil, err
	}
	paymentViews, err := store.EnrichPayments(ctx, s.db, payments)
	if err != nil {
		return nil, err
	}

	return market.BuyerDashboard{
		Stats:    stats,
		Listings: listingViews,
		Orders:   orderViews,
		Payments: paymentViews,
	}, nil
}

func (s *Server) adminDashboard(ctx context.Context) (market.Dashboard, error) {
	stats, err := store.AdminStats(ctx, s.db)
	if err != nil {
		return nil, err
	}
	pending, err := store.ListAccounts(ctx, s.db, store.AccountFilter{Status: models.AccountPending})
	if err != nil {
		return nil, fmt.Errorf("pending accounts: %w", err)
	}
	return market.AdminDashboard{Stats: stats, PendingAccounts: pending}, nil
}
