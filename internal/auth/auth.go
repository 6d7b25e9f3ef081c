package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/safar/agromarket/internal/config"
	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
	issuer            = "agromarket"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("session not found")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
)

// AccountStore is the slice of the persistent store the provider needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, req store.NewAccount) (*models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetCredentialByEmail(ctx context.Context, email string) (*store.Credential, error)
	UpdatePasswordHash(ctx context.Context, accountID uuid.UUID, hash string) error
}

// SessionStore tracks live sessions so that sign-out revokes a token before
// it expires.
type SessionStore interface {
	Save(ctx context.Context, s *market.Session) error
	Lookup(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// SQLAccounts adapts the store package functions to AccountStore.
type SQLAccounts struct {
	DB *sql.DB
}

func (a SQLAccounts) CreateAccount(ctx context.Context, req store.NewAccount) (*models.Account, error) {
	return store.CreateAccount(ctx, a.DB, req)
}

func (a SQLAccounts) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return store.GetAccount(ctx, a.DB, id)
}

func (a SQLAccounts) GetCredentialByEmail(ctx context.Context, email string) (*store.Credential, error) {
	return store.GetCredentialByEmail(ctx, a.DB, email)
}

func (a SQLAccounts) UpdatePasswordHash(ctx context.Context, accountID uuid.UUID, hash string) error {
	return store.UpdatePasswordHash(ctx, a.DB, accountID, hash)
}

type claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Provider struct {
	accounts AccountStore
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
	log      *logrus.Logger
}

func NewProvider(accounts AccountStore, sessions SessionStore, cfg config.AuthConfig, log *logrus.Logger) *Provider {
	return &Provider{
		accounts: accounts,
		sessions: sessions,
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.TokenTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		log:      log,
	}
}

type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Location string
	Role     models.Role
}

// SignUp registers a farmer or buyer. Farmers wait for approval.
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (*models.Account, error) {
	status, err := market.InitialAccountStatus(in.Role)
	if err != nil {
		return nil, err
	}
	return p.createAccount(ctx, in, status)
}

// CreateAdmin provisions an approved admin outside the self-service flow.
func (p *Provider) CreateAdmin(ctx context.Context, in SignUpInput) (*models.Account, error) {
	in.Role = models.RoleAdmin
	return p.createAccount(ctx, in, models.AccountApproved)
}

func (p *Provider) createAccount(ctx context.Context, in SignUpInput, status models.AccountStatus) (*models.Account, error) {
	hash, err := p.hash(in.Password)
	if err != nil {
		return nil, err
	}

	account, err := p.accounts.CreateAccount(ctx, store.NewAccount{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Location:     in.Location,
		Role:         in.Role,
		Status:       status,
	})
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       account.Role,
		"status":     account.Status,
	}).Info("account registered")

	return account, nil
}

// SignIn checks the credential and opens a session. The returned token
// carries the session id and is only honoured while the session exists.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, *market.Session, error) {
	cred, err := p.accounts.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	account, err := p.accounts.GetAccount(ctx, cred.AccountID)
	if err != nil {
		return "", nil, err
	}

	now := p.now()
	session := &market.Session{
		ID:        uuid.New(),
		Account:   *account,
		IssuedAt:  now,
		ExpiresAt: now.Add(p.ttl),
	}

	if err := p.sessions.Save(ctx, session); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	token, err := p.sign(session)
	if err != nil {
		return "", nil, err
	}

	return token, session, nil
}

func (p *Provider) sign(s *market.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: s.Account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID.String(),
			Subject:   s.Account.ID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate resolves a bearer token to a live session with the account's
// current role and status.
func (p *Provider) Authenticate(ctx context.Context, token string) (*market.Session, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sessionID, err := uuid.Parse(c.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	accountID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	owner, err := p.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if owner != accountID {
		return nil, ErrInvalidToken
	}

	account, err := p.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s := &market.Session{ID: sessionID, Account: *account}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

func (p *Provider) SignOut(ctx context.Context, s *market.Session) error {
	if err := p.sessions.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (p *Provider) ChangePassword(ctx context.Context, s *market.Session, newPassword string) error {
	hash, err := p.hash(newPassword)
	if err != nil {
		return err
	}
	return p.accounts.UpdatePasswordHash(ctx, s.Account.ID, hash)
}

func (p *Provider) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
