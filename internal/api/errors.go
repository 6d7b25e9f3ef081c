package api

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/safar/agromarket/internal/auth"
	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{database.ErrAccountNotFound, http.StatusNotFound},
	{database.ErrCommodityNotFound, http.StatusNotFound},
	{database.ErrListingNotFound, http.StatusNotFound},
	{database.ErrOrderNotFound, http.StatusNotFound},
	{database.ErrPaymentNotFound, http.StatusNotFound},
	{database.ErrDuplicateEmail, http.StatusConflict},
	{market.ErrInvalidTransition, http.StatusConflict},
	{market.ErrForbidden, http.StatusForbidden},
	{market.ErrNotApproved, http.StatusForbidden},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrInvalidToken, http.StatusUnauthorized},
	{auth.ErrSessionNotFound, http.StatusUnauthorized},
	{auth.ErrWeakPassword, http.StatusBadRequest},
	{auth.ErrPasswordTooLong, http.StatusBadRequest},
	{market.ErrAdminSelfRegistration, http.StatusBadRequest},
	{market.ErrInvalidRole, http.StatusBadRequest},
	{market.ErrInvalidQuantity, http.StatusBadRequest},
	{market.ErrInvalidPrice, http.StatusBadRequest},
	{market.ErrListingUnavailable, http.StatusBadRequest},
	{market.ErrOwnListing, http.StatusBadRequest},
	{market.ErrInvalidPaymentType, http.StatusBadRequest},
	{market.ErrInvalidPaymentMethod, http.StatusBadRequest},
	{market.ErrInvalidPhoneNumber, http.StatusBadRequest},
	{market.ErrAmountMismatch, http.StatusBadRequest},
	{market.ErrEmptyCart, http.StatusBadRequest},
}

// statusFor maps a domain error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	var bad badRequest
	if errors.As(err, &bad) {
		return http.StatusBadRequest
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	if database.IsRetryable(err) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Internal failures are logged and reported as "failed to <op>".
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		s.log.WithFields(logrus.Fields{
			"op":     op,
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		s.respondError(w, status, "failed to "+op)
	case http.StatusConflict:
		if database.IsRetryable(err) {
			s.respondError(w, status, "concurrent update, please retry")
			return
		}
		s.respondError(w, status, err.Error())
	default:
		s.respondError(w, status, err.Error())
	}
}
