package api

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

const idempotencyHeader = "Idempotency-Key"

type paymentRequest struct {
	Amount      decimal.Decimal      `json:"amount"`
	Method      models.PaymentMethod `json:"payment_method" validate:"required"`
	PhoneNumber string               `json:"phone_number" validate:"required"`
}

func (s *Server) payOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, "record payment", err)
		return
	}
	var body paymentRequest
	if err := s.decode(w, r, &body); err != nil {
		s.fail(w, r, "record payment", err)
		return
	}

	req := market.PaymentRequest{
		OrderID:     orderID,
		Amount:      body.Amount,
		Method:      body.Method,
		PhoneNumber: body.PhoneNumber,
	}
	if key := strings.TrimSpace(r.Header.Get(idempotencyHeader)); key != "" {
		if len(key) > 255 {
			s.fail(w, r, "record payment", invalid("%s is too long", idempotencyHeader))
			return
		}
		req.IdempotencyKey = &key
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, "record payment", err)
		return
	}

	payment, created, err := store.RecordPayment(r.Context(), s.db, session(r).Account.ID, req)
	if err != nil {
		s.fail(w, r, "record payment", err)
		return
	}
	metrics.RecordPayment(string(payment.Method), !created)

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	s.respondJSON(w, status, payment)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope := orderScope(session(r))
	payments, err := store.ListPayments(r.Context(), s.db, store.PaymentFilter{
		BuyerID:  scope.BuyerID,
		FarmerID: scope.FarmerID,
	})
	if err != nil {
		s.fail(w, r, "list payments", err)
		return
	}
	views, err := store.EnrichPayments(r.Context(), s.db, payments)
	if err != nil {
		s.fail(w, r, "list payments", err)
		return
	}
	s.respondJSON(w, http.StatusOK, views)
}

type paymentStatusRequest struct {
	Status        models.PaymentStatus `json:"status" validate:"required,oneof=success completed failed"`
	TransactionID *string              `json:"transaction_id" validate:"omitempty,max=255"`
}

func (s *Server) updatePaymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, "update payment status", err)
		return
	}
	var req paymentStatusRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "update payment status", err)
		return
	}

	payment, err := store.UpdatePaymentStatus(r.Context(), s.db, id, req.Status, req.TransactionID)
	if err != nil {
		s.fail(w, r, "update payment status", err)
		return
	}
	s.respondJSON(w, http.StatusOK, payment)
}
