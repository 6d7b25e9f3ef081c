package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/models"
)

const accountColumns = `id, full_name, phone, location, role, account_status, created_at, updated_at`

const emailConstraint = "credentials_email_key"

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.FullName,
		&account.Phone,
		&account.Location,
		&account.Role,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

type NewAccount struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Location     string
	Role         models.Role
	Status       models.AccountStatus
}

// CreateAccount writes the profile and its credential together.
func CreateAccount(ctx context.Context, db *sql.DB, req NewAccount) (*models.Account, error) {
	var account *models.Account

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var err error
		account, err = scanAccount(tx.QueryRowContext(ctx,
			`INSERT INTO accounts (full_name, phone, location, role, account_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 RETURNING `+accountColumns,
			req.FullName, req.Phone, req.Location, req.Role, req.Status))
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO credentials (account_id, email, password_hash, updated_at)
			 VALUES ($1, $2, $3, NOW())`,
			account.ID, strings.ToLower(strings.TrimSpace(req.Email)), req.PasswordHash)
		if err != nil {
			if database.IsUniqueViolation(err, emailConstraint) {
				return database.ErrDuplicateEmail
			}
			return fmt.Errorf("create credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func GetAccount(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Account, error) {
	account, err := scanAccount(db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, database.NotFound(err, database.ErrAccountNotFound, "get account")
	}
	return account, nil
}

// AccountFilter narrows account listings. Empty fields match everything.
type AccountFilter struct {
	Status models.AccountStatus
	Role   models.Role
}

func ListAccounts(ctx context.Context, db *sql.DB, filter AccountFilter) ([]models.Account, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE ($1 = '' OR account_status = $1)
		   AND ($2 = '' OR role = $2)
		 ORDER BY created_at DESC`,
		string(filter.Status), string(filter.Role))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func ListAccountsPage(ctx context.Context, db *sql.DB, filter AccountFilter, page, pageSize int) (*OffsetPage[models.Account], error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM accounts
		 WHERE ($1 = '' OR account_status = $1)
		   AND ($2 = '' OR role = $2)`,
		string(filter.Status), string(filter.Role)).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE ($1 = '' OR account_status = $1)
		   AND ($2 = '' OR role = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		string(filter.Status), string(filter.Role), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}

	return newOffsetPage(accounts, total, page, pageSize), nil
}

func collectAccounts(rows *sql.Rows) ([]models.Account, error) {
	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return accounts, nil
}

// AccountProfile holds the admin-editable fields. Status is not among them.
type AccountProfile struct {
	FullName string
	Phone    string
	Location string
	Role     models.Role
}

func UpdateAccountProfile(ctx context.Context, db *sql.DB, id uuid.UUID, p AccountProfile) (*models.Account, error) {
	account, err := scanAccount(db.QueryRowContext(ctx,
		`UPDATE accounts
		 SET full_name = $2, phone = $3, location = $4, role = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, p.FullName, p.Phone, p.Location, p.Role))
	if err != nil {
		return nil, database.NotFound(err, database.ErrAccountNotFound, "update account")
	}
	return account, nil
}

// TransitionAccount moves an account through the approval workflow under a
// row lock, so concurrent admin decisions are validated one after another.
func TransitionAccount(ctx context.Context, db *sql.DB, id uuid.UUID, target models.AccountStatus) (*models.Account, error) {
	var account *models.Account

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := scanAccount(tx.QueryRowContext(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return database.NotFound(err, database.ErrAccountNotFound, "lock account")
		}

		next, err := market.NextAccountStatus(current.Status, target)
		if err != nil {
			return err
		}

		account, err = scanAccount(tx.QueryRowContext(ctx,
			`UPDATE accounts
			 SET account_status = $2, updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+accountColumns,
			id, next))
		if err != nil {
			return fmt.Errorf("update account status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}
