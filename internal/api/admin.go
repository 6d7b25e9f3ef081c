package api

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	filter := store.AccountFilter{
		Status: models.AccountStatus(q.Get("status")),
		Role:   models.Role(q.Get("role")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		s.fail(w, r, "list accounts", invalid("invalid status %q", filter.Status))
		return
	}
	if filter.Role != "" && !filter.Role.Valid() {
		s.fail(w, r, "list accounts", invalid("invalid role %q", filter.Role))
		return
	}

	page, err := store.ListAccountsPage(r.Context(), s.db, filter,
		queryInt(r, "page", 1), queryInt(r, "page_size", store.DefaultPageSize))
	if err != nil {
		s.fail(w, r, "list accounts", err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

type accountProfileRequest struct {
	FullName string      `json:"full_name" validate:"required,min=2"`
	Phone    string      `json:"phone" validate:"required,min=10"`
	Location string      `json:"location" validate:"required,min=2"`
	Role     models.Role `json:"role" validate:"required,oneof=farmer buyer admin"`
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps, "id")
	if err != nil {
		s.fail(w, r, "update account", err)
		return
	}
	var req accountProfileRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "update account", err)
		return
	}

	account, err := store.UpdateAccountProfile(r.Context(), s.db, id, store.AccountProfile{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Location: strings.TrimSpace(req.Location),
		Role:     req.Role,
	})
	if err != nil {
		s.fail(w, r, "update account", err)
		return
	}
	s.respondJSON(w, http.StatusOK, account)
}

func (s *Server) decideAccount(target models.AccountStatus) httprouter.Handle {
	op := "set account " + string(target)
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := pathID(ps, "id")
		if err != nil {
			s.fail(w, r, op, err)
			return
		}
		account, err := store.TransitionAccount(r.Context(), s.db, id, target)
		if err != nil {
			s.fail(w, r, op, err)
			return
		}
		metrics.RecordApprovalDecision(string(account.Status))

		s.respondJSON(w, http.StatusOK, account)
	}
}
