package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/store"
)

func (s *Server) listCommodities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	commodities, err := store.ListCommodities(r.Context(), s.db)
	if err != nil {
		s.fail(w, r, "list commodities", err)
		return
	}
	s.respondJSON(w, http.StatusOK, commodities)
}

type commodityRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=100"`
	Unit         string          `json:"unit" validate:"omitempty,max=20"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

func (s *Server) createCommodity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req commodityRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "create commodity", err)
		return
	}
	if err := market.ValidateCommodityPrice(req.CurrentPrice); err != nil {
		s.fail(w, r, "create commodity", err)
		return
	}

	c, err := store.CreateCommodity(r.Context(), s.db, strings.TrimSpace(req.Name), strings.TrimSpace(req.Unit), req.CurrentPrice)
	if err != nil {
		s.fail(w, r, "create commodity", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

type priceRequest struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
}

func (s *Server) updateCommodityPrice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, "update commodity price", err)
		return
	}
	var req priceRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "update commodity price", err)
		return
	}
	if err := market.ValidateCommodityPrice(req.CurrentPrice); err != nil {
		s.fail(w, r, "update commodity price", err)
		return
	}

	c, err := store.UpdateCommodityPrice(r.Context(), s.db, id, req.CurrentPrice)
	if err != nil {
		s.fail(w, r, "update commodity price", err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) listAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	listings, err := store.ListAvailableListings(r.Context(), s.db)
	if err != nil {
		s.fail(w, r, "list listings", err)
		return
	}
	views, err := store.EnrichListings(r.Context(), s.db, listings)
	if err != nil {
		s.fail(w, r, "list listings", err)
		return
	}
	s.respondJSON(w, http.StatusOK, views)
}

func (s *Server) listMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	listings, err := store.ListFarmerListings(r.Context(), s.db, session(r).Account.ID)
	if err != nil {
		s.fail(w, r, "list listings", err)
		return
	}
	views, err := store.EnrichListings(r.Context(), s.db, listings)
	if err != nil {
		s.fail(w, r, "list listings", err)
		return
	}
	s.respondJSON(w, http.StatusOK, views)
}

type listingRequest struct {
	CommodityID  uuid.UUID       `json:"commodity_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Location     string          `json:"location" validate:"required,min=2"`
	Description  *string         `json:"description" validate:"omitempty,max=1000"`
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req listingRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "create listing", err)
		return
	}

	listing, err := store.CreateListing(r.Context(), s.db, store.NewListing{
		FarmerID:     session(r).Account.ID,
		CommodityID:  req.CommodityID,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Location:     strings.TrimSpace(req.Location),
		Description:  req.Description,
	})
	if err != nil {
		s.fail(w, r, "create listing", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, listing)
}

func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, "delete listing", err)
		return
	}
	if err := store.DeleteListing(r.Context(), s.db, id, session(r).Account.ID); err != nil {
		s.fail(w, r, "delete listing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
