package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portsrepo "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/repositories"
)

// PgxAccountRepository persists the chart of accounts in PostgreSQL.
type PgxAccountRepository struct {
	BaseRepository
}

// NewAccountRepository creates the pgsql account adapter.
func NewAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// LoadAccounts returns every persisted account.
func (r *PgxAccountRepository) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `
		SELECT account_id, name, account_type, COALESCE(parent_account_id, ''), currency_code,
		       is_active, ordinal, created_at, last_updated_at
		FROM accounts
		ORDER BY ordinal;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var acc domain.Account
		if err := rows.Scan(
			&acc.AccountID,
			&acc.Name,
			&acc.AccountType,
			&acc.ParentAccountID,
			&acc.CurrencyCode,
			&acc.IsActive,
			&acc.Ordinal,
			&acc.CreatedAt,
			&acc.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return accounts, nil
}

// SaveAccount inserts or replaces an account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, name, account_type, parent_account_id, currency_code, is_active, ordinal, created_at, last_updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		ON CONFLICT (account_id) DO UPDATE SET
			name = EXCLUDED.name,
			parent_account_id = EXCLUDED.parent_account_id,
			is_active = EXCLUDED.is_active,
			last_updated_at = EXCLUDED.last_updated_at;
	`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.AccountType,
		account.ParentAccountID,
		account.CurrencyCode,
		account.IsActive,
		account.Ordinal,
		account.CreatedAt,
		account.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// DeleteAccount physically removes an account row.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1;`, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return nil
}
