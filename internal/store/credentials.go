package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/database"
)

// Credential is private to the auth provider and never serialized.
type Credential struct {
	AccountID    uuid.UUID
	Email        string
	PasswordHash string
}

func GetCredentialByEmail(ctx context.Context, db *sql.DB, email string) (*Credential, error) {
	cred := &Credential{}
	err := db.QueryRowContext(ctx,
		`SELECT account_id, email, password_hash FROM credentials WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).Scan(&cred.AccountID, &cred.Email, &cred.PasswordHash)
	if err != nil {
		return nil, database.NotFound(err, database.ErrAccountNotFound, "get credential")
	}
	return cred, nil
}

func UpdatePasswordHash(ctx context.Context, db *sql.DB, accountID uuid.UUID, hash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE credentials SET password_hash = $2, updated_at = NOW() WHERE account_id = $1`,
		accountID, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrAccountNotFound
	}
	return nil
}
