package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
	"github.com/safar/agromarket/internal/store"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.Account
	creds    map[string]store.Credential
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		accounts: map[uuid.UUID]models.Account{},
		creds:    map[string]store.Credential{},
	}
}

func (m *memAccounts) CreateAccount(_ context.Context, req store.NewAccount) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, ok := m.creds[email]; ok {
		return nil, database.ErrDuplicateEmail
	}
	a := models.Account{
		ID:       uuid.New(),
		FullName: req.FullName,
		Phone:    req.Phone,
		Location: req.Location,
		Role:     req.Role,
		Status:   req.Status,
	}
	m.accounts[a.ID] = a
	m.creds[email] = store.Credential{AccountID: a.ID, Email: email, PasswordHash: req.PasswordHash}
	return &a, nil
}

func (m *memAccounts) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, database.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memAccounts) GetCredentialByEmail(_ context.Context, email string) (*store.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, database.ErrAccountNotFound
	}
	return &c, nil
}

func (m *memAccounts) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, c := range m.creds {
		if c.AccountID == id {
			c.PasswordHash = hash
			m.creds[email] = c
			return nil
		}
	}
	return database.ErrAccountNotFound
}

func (m *memAccounts) setStatus(id uuid.UUID, status models.AccountStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[id]
	a.Status = status
	m.accounts[id] = a
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]uuid.UUID
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uuid.UUID]uuid.UUID{}}
}

func (m *memSessions) Save(_ context.Context, s *market.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Account.ID
	return nil
}

func (m *memSessions) Lookup(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.sessions[id]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}
	return owner, nil
}

func (m *memSessions) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
