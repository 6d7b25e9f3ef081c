package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

// authenticated resolves the bearer token into a session on the request context.
func (s *Server) authenticated(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		session, err := s.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.fail(w, r, "authenticate", err)
			return
		}

		next(w, r.WithContext(market.WithSession(r.Context(), session)), ps)
	}
}

func (s *Server) requireRole(roles []models.Role, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		session, _ := market.SessionFrom(r.Context())
		if err := market.RequireRole(session, roles...); err != nil {
			s.fail(w, r, "authorize", err)
			return
		}
		next(w, r, ps)
	}
}

func (s *Server) requireApproved(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		session, _ := market.SessionFrom(r.Context())
		if err := market.RequireApproved(session); err != nil {
			s.fail(w, r, "authorize", err)
			return
		}
		next(w, r, ps)
	}
}

// session is only called behind authenticated, so the session is always present.
func session(r *http.Request) *market.Session {
	s, _ := market.SessionFrom(r.Context())
	return s
}

type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		entry := s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   lw.status,
			"duration": time.Since(start).String(),
			"remote":   r.RemoteAddr,
		})
		if lw.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request handled")
	})
}
