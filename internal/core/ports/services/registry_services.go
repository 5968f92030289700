package services

import (
	"context"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
)

// AccountReader is the read-only view of the account registry consumed by
// the journal store and the read-side services.
type AccountReader interface {
	// GetAccountByID returns the account or apperrors.ErrNotFound.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountsByIDs returns the accounts found, keyed by id; missing ids
	// are simply absent from the map.
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts returns accounts grouped by type in the fixed enumeration
	// order, then by creation order within type.
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error)
}

// RegistrySvcFacade is the full command/query surface of the account
// registry. The registry is the sole mutator of account state.
type RegistrySvcFacade interface {
	AccountReader

	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	RenameAccount(ctx context.Context, accountID string, newName string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string) error

	// DeleteAccount physically removes an unreferenced account, re-parenting
	// its children to the deleted account's parent. Referenced accounts fail
	// with apperrors.ErrConflict.
	DeleteAccount(ctx context.Context, accountID string) error
}
