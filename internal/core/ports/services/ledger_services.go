package services

import (
	"context"
	"time"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// LedgerSvcFacade is the ledger projector: it folds committed journal
// entries into signed per-account balances. Balances follow the normal
// balance convention, so Asset/Expense balances are debits minus credits and
// Liability/Equity/Revenue balances are credits minus debits.
type LedgerSvcFacade interface {
	// AccountBalance returns the signed balance of one account, folding
	// entries dated up to and including asOf. A nil asOf means the current
	// balance, served from the incremental cache.
	AccountBalance(ctx context.Context, accountID string, asOf *time.Time) (domain.Money, error)

	// TrialBalance returns a signed balance row per account with activity or
	// active status. It runs the debit-normal == credit-normal self-check
	// and returns apperrors.ErrInvariantViolation if it fails.
	TrialBalance(ctx context.Context, asOf *time.Time) ([]domain.TrialBalanceRow, error)
}
