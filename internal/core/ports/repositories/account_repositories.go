package repositories

import (
	"context"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// AccountRepository is the durable store collaborator for the chart of
// accounts. The core loads full state at startup and writes through on every
// mutation; the store only has to be a crash-consistent replace log.
type AccountRepository interface {
	// LoadAccounts returns every persisted account, active or not.
	LoadAccounts(ctx context.Context) ([]domain.Account, error)

	// SaveAccount inserts the account or replaces the stored version.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeleteAccount physically removes an account. The registry only calls
	// this after verifying no journal line references the account.
	DeleteAccount(ctx context.Context, accountID string) error
}
