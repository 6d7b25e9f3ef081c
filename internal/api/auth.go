package api

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/safar/agromarket/internal/auth"
	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/models"
)

type signUpRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	FullName string      `json:"full_name" validate:"required,min=2"`
	Phone    string      `json:"phone" validate:"required,min=10"`
	Location string      `json:"location" validate:"required,min=2"`
	Role     models.Role `json:"role" validate:"required,oneof=farmer buyer"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req signUpRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "sign up", err)
		return
	}

	account, err := s.auth.SignUp(r.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Location: req.Location,
		Role:     req.Role,
	})
	if err != nil {
		s.fail(w, r, "sign up", err)
		return
	}
	metrics.RecordAccountRegistered(string(account.Role))

	s.respondJSON(w, http.StatusCreated, account)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *models.Account `json:"account"`
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req signInRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "sign in", err)
		return
	}

	token, session, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "sign in", err)
		return
	}

	s.respondJSON(w, http.StatusOK, signInResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Account:   &session.Account,
	})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.auth.SignOut(r.Context(), session(r)); err != nil {
		s.fail(w, r, "sign out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.respondJSON(w, http.StatusOK, session(r).Account)
}

type changePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req changePasswordRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "change password", err)
		return
	}
	if err := s.auth.ChangePassword(r.Context(), session(r), req.Password); err != nil {
		s.fail(w, r, "change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
