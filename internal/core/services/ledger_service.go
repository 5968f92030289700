package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/middleware"
	"github.com/kakeibo-dev/kakeibo_app/internal/utils/accounting"
)

// ledgerService is the read-side projector: it folds committed journal
// entries into signed per-account balances. Current balances come from the
// journal store's incremental cache; as-of-date balances are refolded from
// the entry snapshot, which is cheap at personal-ledger scale.
type ledgerService struct {
	entries  portssvc.EntrySource
	accounts portssvc.AccountReader
}

// NewLedgerService creates the projector over a journal store and registry.
func NewLedgerService(entries portssvc.EntrySource, accounts portssvc.AccountReader) portssvc.LedgerSvcFacade {
	return &ledgerService{entries: entries, accounts: accounts}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// AccountBalance returns the signed normal-balance of one account: debits
// minus credits for Asset/Expense, credits minus debits for the rest.
func (s *ledgerService) AccountBalance(ctx context.Context, accountID string, asOf *time.Time) (domain.Money, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}

	if asOf == nil {
		cached, err := s.entries.CachedBalances(ctx)
		if err != nil {
			return domain.Money{}, err
		}
		if balance, ok := cached[accountID]; ok {
			return balance, nil
		}
		return domain.ZeroMoney(account.CurrencyCode), nil
	}

	balances, err := s.foldBalances(ctx, asOf)
	if err != nil {
		return domain.Money{}, err
	}
	if balance, ok := balances[accountID]; ok {
		return balance, nil
	}
	return domain.ZeroMoney(account.CurrencyCode), nil
}

// TrialBalance lists the signed balance of every account that is active or
// has activity, in registry order, and proves the ledger's self-consistency:
// the per-entry debit==credit invariant must compose into equal debit-normal
// and credit-normal totals across the whole ledger. A mismatch is a bug in
// the acceptance logic, reported as an invariant violation, never as user
// error.
func (s *ledgerService) TrialBalance(ctx context.Context, asOf *time.Time) ([]domain.TrialBalanceRow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accounts, err := s.accounts.ListAccounts(ctx, dto.ListAccountsParams{IncludeInactive: true})
	if err != nil {
		return nil, err
	}

	var balances map[string]domain.Money
	if asOf == nil {
		balances, err = s.entries.CachedBalances(ctx)
	} else {
		balances, err = s.foldBalances(ctx, asOf)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]domain.TrialBalanceRow, 0, len(accounts))
	var debitNormal, creditNormal int64
	for _, account := range accounts {
		balance, ok := balances[account.AccountID]
		if !ok {
			balance = domain.ZeroMoney(account.CurrencyCode)
		}
		if !account.IsActive && balance.IsZero() {
			continue
		}
		rows = append(rows, domain.TrialBalanceRow{
			AccountID:   account.AccountID,
			AccountName: account.Name,
			AccountType: account.AccountType,
			Balance:     balance,
		})
		if account.AccountType.IsDebitNormal() {
			debitNormal += balance.Amount
		} else {
			creditNormal += balance.Amount
		}
	}

	if debitNormal != creditNormal {
		err := apperrors.NewInvariantViolation(
			"trial balance does not balance: debit-normal total %d != credit-normal total %d",
			debitNormal, creditNormal)
		logger.Error("Trial balance self-check failed", "error", err)
		return nil, err
	}
	return rows, nil
}

// foldBalances refolds the full entry snapshot up to and including asOf.
// Voided entries never contribute.
func (s *ledgerService) foldBalances(ctx context.Context, asOf *time.Time) (map[string]domain.Money, error) {
	params := dto.QueryEntriesParams{}
	if asOf != nil {
		cut := asOf.Format(dto.DateLayout)
		params.DateTo = &cut
	}
	entries, err := s.entries.QueryEntries(ctx, params)
	if err != nil {
		return nil, err
	}

	typeByID, err := s.accountTypes(ctx)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]domain.Money)
	for i := range entries {
		entry := &entries[i]
		if entry.IsVoided() {
			continue
		}
		for _, line := range entry.Lines {
			accountType, ok := typeByID[line.AccountID]
			if !ok {
				return nil, fmt.Errorf("line %s references unknown account %s: %w", line.LineID, line.AccountID, apperrors.ErrInternal)
			}
			signed, err := accounting.SignedAmount(line, accountType)
			if err != nil {
				return nil, err
			}
			balances[line.AccountID] = balances[line.AccountID].Add(signed)
		}
	}
	return balances, nil
}

func (s *ledgerService) accountTypes(ctx context.Context) (map[string]domain.AccountType, error) {
	accounts, err := s.accounts.ListAccounts(ctx, dto.ListAccountsParams{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	types := make(map[string]domain.AccountType, len(accounts))
	for _, account := range accounts {
		types[account.AccountID] = account.AccountType
	}
	return types, nil
}
