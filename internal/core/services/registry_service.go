package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portsrepo "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/repositories"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/middleware"
)

// RegistryService owns the chart of accounts. Accounts are mutable reference
// data held in memory and written through to the AccountRepository on every
// change; the registry is the only component that mutates them.
type RegistryService struct {
	repo     portsrepo.AccountRepository
	currency string      // the ledger's single currency
	writeMu  *sync.Mutex // shared single write path, see NewServiceContainer

	// refChecker is bound after the journal store exists; it guards physical
	// deletion of accounts that historical lines still reference.
	refChecker portssvc.EntryReferenceChecker

	mu          sync.RWMutex
	accounts    map[string]*domain.Account
	nextOrdinal int64
}

// NewRegistryService creates an empty registry holding accounts in the given
// currency. Call Load before serving.
func NewRegistryService(repo portsrepo.AccountRepository, currency string, writeMu *sync.Mutex) *RegistryService {
	return &RegistryService{
		repo:        repo,
		currency:    currency,
		writeMu:     writeMu,
		accounts:    make(map[string]*domain.Account),
		nextOrdinal: 1,
	}
}

var _ portssvc.RegistrySvcFacade = (*RegistryService)(nil)

// BindReferenceChecker wires the journal store's reference check in after
// both services exist; the two depend on each other.
func (s *RegistryService) BindReferenceChecker(rc portssvc.EntryReferenceChecker) {
	s.refChecker = rc
}

// Load replays the persisted chart of accounts into memory.
func (s *RegistryService) Load(ctx context.Context) error {
	accounts, err := s.repo.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[string]*domain.Account, len(accounts))
	s.nextOrdinal = 1
	for i := range accounts {
		acc := accounts[i]
		if acc.CurrencyCode != s.currency {
			return fmt.Errorf("%w: persisted account %s has currency %s, ledger currency is %s",
				apperrors.ErrInternal, acc.AccountID, acc.CurrencyCode, s.currency)
		}
		s.accounts[acc.AccountID] = &acc
		if acc.Ordinal >= s.nextOrdinal {
			s.nextOrdinal = acc.Ordinal + 1
		}
	}
	return nil
}

// CreateAccount validates and registers a new account.
func (s *RegistryService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.ReasonEmptyName, "account name must not be empty")
	}
	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}
	currency := req.CurrencyCode
	if currency == "" {
		currency = s.currency
	}
	if currency != s.currency {
		return nil, apperrors.NewValidationError(apperrors.ReasonUnsupportedCurrency,
			"currency %s is not supported, this ledger uses %s", currency, s.currency)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTakenLocked(name, req.AccountType, "") {
		return nil, apperrors.NewValidationError(apperrors.ReasonDuplicateName,
			"account name %q already exists for type %s", name, req.AccountType)
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, ok := s.accounts[*req.ParentAccountID]
		if !ok {
			return nil, apperrors.NewValidationError(apperrors.ReasonInvalidAccount,
				"parent account %s does not exist", *req.ParentAccountID)
		}
		if parent.AccountType != req.AccountType {
			return nil, apperrors.NewValidationError(apperrors.ReasonInvalidAccount,
				"parent account %s has type %s, child must match", parent.AccountID, parent.AccountType)
		}
		parentID = parent.AccountID
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		Name:            name,
		AccountType:     req.AccountType,
		ParentAccountID: parentID,
		CurrencyCode:    currency,
		IsActive:        true,
		Ordinal:         s.nextOrdinal,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.repo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account in repository", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.accounts[account.AccountID] = &account
	s.nextOrdinal++

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("account_type", string(account.AccountType)))
	result := account
	return &result, nil
}

// RenameAccount changes an account's display name.
func (s *RegistryService) RenameAccount(ctx context.Context, accountID string, newName string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	name := strings.TrimSpace(newName)
	if name == "" {
		return nil, apperrors.NewValidationError(apperrors.ReasonEmptyName, "account name must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	if s.nameTakenLocked(name, account.AccountType, accountID) {
		return nil, apperrors.NewValidationError(apperrors.ReasonDuplicateName,
			"account name %q already exists for type %s", name, account.AccountType)
	}

	updated := *account
	updated.Name = name
	updated.LastUpdatedAt = time.Now().UTC()
	if err := s.repo.SaveAccount(ctx, updated); err != nil {
		logger.Error("Failed to save renamed account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	*account = updated
	logger.Info("Account renamed", slog.String("account_id", accountID))
	result := updated
	return &result, nil
}

// DeactivateAccount soft-deletes an account: it disappears from new-entry
// selection but stays available for historical reporting.
func (s *RegistryService) DeactivateAccount(ctx context.Context, accountID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	if !account.IsActive {
		return nil // already inactive, nothing to do
	}

	updated := *account
	updated.IsActive = false
	updated.LastUpdatedAt = time.Now().UTC()
	if err := s.repo.SaveAccount(ctx, updated); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to save account: %w", err)
	}

	*account = updated
	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}

// DeleteAccount physically removes an account that no journal line has ever
// referenced. Children are re-parented to the deleted account's parent, or
// promoted to root; descendants are never silently deleted.
func (s *RegistryService) DeleteAccount(ctx context.Context, accountID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.refChecker != nil {
		referenced, err := s.refChecker.HasEntriesReferencing(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to check journal references: %w", err)
		}
		if referenced {
			return fmt.Errorf("%w: account %s is referenced by journal entries, deactivate it instead", apperrors.ErrConflict, accountID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}

	now := time.Now().UTC()
	for _, child := range s.accounts {
		if child.ParentAccountID != accountID {
			continue
		}
		updated := *child
		updated.ParentAccountID = account.ParentAccountID
		updated.LastUpdatedAt = now
		if err := s.repo.SaveAccount(ctx, updated); err != nil {
			logger.Error("Failed to re-parent child account", slog.String("error", err.Error()), slog.String("child_id", child.AccountID))
			return fmt.Errorf("failed to re-parent account %s: %w", child.AccountID, err)
		}
		*child = updated
	}

	if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
		logger.Error("Failed to delete account in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to delete account: %w", err)
	}
	delete(s.accounts, accountID)

	logger.Info("Account deleted", slog.String("account_id", accountID))
	return nil
}

// GetAccountByID returns a copy of the account or ErrNotFound.
func (s *RegistryService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	result := *account
	return &result, nil
}

// GetAccountsByIDs returns the accounts found, keyed by id.
func (s *RegistryService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			result[id] = *account
		}
	}
	return result, nil
}

// ListAccounts returns accounts grouped by type in the fixed enumeration
// order {Asset, Liability, Equity, Revenue, Expense}, then by creation order
// within each type. The ordering is stable across calls.
func (s *RegistryService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		if params.AccountType != nil && account.AccountType != *params.AccountType {
			continue
		}
		if !params.IncludeInactive && !account.IsActive {
			continue
		}
		result = append(result, *account)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AccountType != result[j].AccountType {
			return result[i].AccountType.Order() < result[j].AccountType.Order()
		}
		return result[i].Ordinal < result[j].Ordinal
	})
	return result, nil
}

// nameTakenLocked reports whether another account of the same type already
// uses the name. Caller holds s.mu.
func (s *RegistryService) nameTakenLocked(name string, accountType domain.AccountType, excludeID string) bool {
	for _, account := range s.accounts {
		if account.AccountID == excludeID {
			continue
		}
		if account.AccountType == accountType && account.Name == name {
			return true
		}
	}
	return false
}
