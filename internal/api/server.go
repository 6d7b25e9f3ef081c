package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/safar/agromarket/internal/auth"
	"github.com/safar/agromarket/internal/cart"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/models"
)

// Authenticator is the slice of auth.Provider the handlers depend on.
type Authenticator interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*models.Account, error)
	SignIn(ctx context.Context, email, password string) (string, *market.Session, error)
	Authenticate(ctx context.Context, token string) (*market.Session, error)
	SignOut(ctx context.Context, s *market.Session) error
	ChangePassword(ctx context.Context, s *market.Session, newPassword string) error
}

// Carts is the slice of cart.Store the handlers depend on.
type Carts interface {
	Add(ctx context.Context, buyerID, listingID uuid.UUID, quantity decimal.Decimal) error
	Set(ctx context.Context, buyerID, listingID uuid.UUID, quantity decimal.Decimal) error
	Remove(ctx context.Context, buyerID, listingID uuid.UUID) error
	Clear(ctx context.Context, buyerID uuid.UUID) error
	Items(ctx context.Context, buyerID uuid.UUID) ([]cart.Item, error)
}

type Options struct {
	AllowedOrigins    []string
	AuthRatePerMinute int
	// Location fixes the calendar used for monthly earnings.
	Location *time.Location
}

type Server struct {
	db       *sql.DB
	auth     Authenticator
	carts    Carts
	log      *logrus.Logger
	validate *validator.Validate
	limiter  *rateLimiter
	origins  []string
	loc      *time.Location
	now      func() time.Time
	router   *httprouter.Router
}

func NewServer(db *sql.DB, authn Authenticator, carts Carts, log *logrus.Logger, opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		db:       db,
		auth:     authn,
		carts:    carts,
		log:      log,
		validate: newValidator(),
		limiter:  newRateLimiter(opts.AuthRatePerMinute),
		origins:  opts.AllowedOrigins,
		loc:      loc,
		now:      time.Now,
		router:   httprouter.New(),
	}
	s.routes()
	return s
}

const prefix = "/api/v1"

func (s *Server) routes() {
	s.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	farmer := []models.Role{models.RoleFarmer}
	buyer := []models.Role{models.RoleBuyer}
	admin := []models.Role{models.RoleAdmin}

	s.handle(http.MethodPost, "/auth/signup", s.limiter.Limit(s.signUp))
	s.handle(http.MethodPost, "/auth/signin", s.limiter.Limit(s.signIn))
	s.handle(http.MethodPost, "/auth/signout", s.authenticated(s.signOut))
	s.handle(http.MethodGet, "/auth/me", s.authenticated(s.me))
	s.handle(http.MethodPut, "/auth/password", s.authenticated(s.changePassword))

	s.handle(http.MethodGet, "/dashboard", s.authenticated(s.dashboard))

	s.handle(http.MethodGet, "/commodities", s.authenticated(s.listCommodities))
	s.handle(http.MethodPost, "/commodities", s.authenticated(s.requireRole(admin, s.createCommodity)))
	s.handle(http.MethodPatch, "/commodities/:id/price", s.authenticated(s.requireRole(admin, s.updateCommodityPrice)))

	s.handle(http.MethodGet, "/listings", s.authenticated(s.listAvailable))
	s.handle(http.MethodGet, "/listings/mine", s.authenticated(s.requireRole(farmer, s.listMine)))
	s.handle(http.MethodPost, "/listings", s.authenticated(s.requireRole(farmer, s.requireApproved(s.createListing))))
	s.handle(http.MethodDelete, "/listings/:id", s.authenticated(s.requireRole(farmer, s.deleteListing)))

	s.handle(http.MethodGet, "/orders", s.authenticated(s.listOrders))
	s.handle(http.MethodGet, "/orders/:id", s.authenticated(s.getOrder))
	s.handle(http.MethodPost, "/orders", s.authenticated(s.requireRole(buyer, s.requireApproved(s.createOrder))))
	s.handle(http.MethodPost, "/orders/:id/confirm", s.authenticated(s.transitionOrder(market.ActionConfirm)))
	s.handle(http.MethodPost, "/orders/:id/cancel", s.authenticated(s.transitionOrder(market.ActionCancel)))
	s.handle(http.MethodPost, "/orders/:id/complete", s.authenticated(s.transitionOrder(market.ActionComplete)))
	s.handle(http.MethodPost, "/orders/:id/payments", s.authenticated(s.requireRole(buyer, s.requireApproved(s.payOrder))))

	s.handle(http.MethodGet, "/payments", s.authenticated(s.listPayments))
	s.handle(http.MethodPatch, "/payments/:id/status", s.authenticated(s.requireRole(admin, s.updatePaymentStatus)))

	s.handle(http.MethodGet, "/cart", s.authenticated(s.requireRole(buyer, s.requireApproved(s.getCart))))
	s.handle(http.MethodDelete, "/cart", s.authenticated(s.requireRole(buyer, s.requireApproved(s.clearCart))))
	s.handle(http.MethodPost, "/cart/items", s.authenticated(s.requireRole(buyer, s.requireApproved(s.addCartItem))))
	s.handle(http.MethodPut, "/cart/items/:listing_id", s.authenticated(s.requireRole(buyer, s.requireApproved(s.setCartItem))))
	s.handle(http.MethodDelete, "/cart/items/:listing_id", s.authenticated(s.requireRole(buyer, s.requireApproved(s.removeCartItem))))
	s.handle(http.MethodPost, "/cart/checkout", s.authenticated(s.requireRole(buyer, s.requireApproved(s.checkout))))

	s.handle(http.MethodGet, "/admin/accounts", s.authenticated(s.requireRole(admin, s.listAccounts)))
	s.handle(http.MethodPatch, "/admin/accounts/:id", s.authenticated(s.requireRole(admin, s.updateAccount)))
	s.handle(http.MethodPost, "/admin/accounts/:id/approve", s.authenticated(s.requireRole(admin, s.decideAccount(models.AccountApproved))))
	s.handle(http.MethodPost, "/admin/accounts/:id/reject", s.authenticated(s.requireRole(admin, s.decideAccount(models.AccountRejected))))

	s.router.GET("/healthz", s.health)
	s.router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}

// handle mounts h under the API prefix with per-route metrics.
func (s *Server) handle(method, path string, h httprouter.Handle) {
	route := prefix + path
	s.router.Handle(method, route, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		metrics.InstrumentRoute(route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, ps)
		})).ServeHTTP(w, r)
	})
}

// Handler returns the full middleware chain: logging, CORS, then the router.
func (s *Server) Handler() http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", idempotencyHeader},
	}).Handler(s.router)

	return s.logRequests(corsHandler)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Warn("health check failed")
		s.respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
