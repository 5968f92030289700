package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portsrepo "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/repositories"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/middleware"
	"github.com/kakeibo-dev/kakeibo_app/internal/utils/accounting"
)

// journalService owns the append-oriented collection of journal entries.
// Committed entries are immutable; the only state transitions are void and
// reversal linkage. The service keeps entries in memory ordered by
// (date, sequence), writes through to the JournalRepository before
// committing, and maintains the signed balance cache that mutating
// operations update atomically with the entry itself.
type journalService struct {
	repo     portsrepo.JournalRepository
	accounts portssvc.AccountReader
	currency string      // the ledger's single currency
	writeMu  *sync.Mutex // shared single write path

	mu       sync.RWMutex
	entries  []*domain.JournalEntry // sorted by (EntryDate, Sequence)
	byID     map[string]*domain.JournalEntry
	balances map[string]domain.Money // signed, non-voided entries only
	nextSeq  int64
}

// NewJournalService creates an empty journal store accepting entries in the
// given currency. Call Load before serving.
func NewJournalService(repo portsrepo.JournalRepository, accounts portssvc.AccountReader, currency string, writeMu *sync.Mutex) *journalService {
	return &journalService{
		repo:     repo,
		accounts: accounts,
		currency: currency,
		writeMu:  writeMu,
		byID:     make(map[string]*domain.JournalEntry),
		balances: make(map[string]domain.Money),
		nextSeq:  1,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// Load replays persisted entries and rebuilds the balance cache.
func (s *journalService) Load(ctx context.Context) error {
	entries, err := s.repo.LoadEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load journal entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].Sequence < entries[j].Sequence
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*domain.JournalEntry, 0, len(entries))
	s.byID = make(map[string]*domain.JournalEntry, len(entries))
	s.balances = make(map[string]domain.Money)
	s.nextSeq = 1
	for i := range entries {
		entry := entries[i]
		s.entries = append(s.entries, &entry)
		s.byID[entry.EntryID] = &entry
		if entry.Sequence >= s.nextSeq {
			s.nextSeq = entry.Sequence + 1
		}
		if entry.IsVoided() {
			continue
		}
		changes, err := s.balanceChanges(ctx, entry.Lines)
		if err != nil {
			return fmt.Errorf("failed to rebuild balances for entry %s: %w", entry.EntryID, err)
		}
		s.applyDeltaLocked(changes, 1)
	}
	return nil
}

// SubmitEntry validates a submission and appends it as one atomic unit. On
// any validation failure the store is left exactly as it was.
func (s *journalService) SubmitEntry(ctx context.Context, req dto.SubmitEntryRequest) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entryDate, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", apperrors.ErrValidation, req.Date)
	}
	currency := req.CurrencyCode
	if currency == "" {
		currency = s.currency
	}
	if currency != s.currency {
		return nil, apperrors.NewValidationError(apperrors.ReasonUnsupportedCurrency,
			"currency %s is not supported, this ledger uses %s", currency, s.currency)
	}

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		amount, err := domain.ParseAmount(lineReq.Amount, currency)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", apperrors.ErrValidation, i+1, err)
		}
		subAccountID := ""
		if lineReq.SubAccountID != nil {
			subAccountID = *lineReq.SubAccountID
		}
		lines[i] = domain.JournalLine{
			LineID:          uuid.NewString(),
			EntryID:         entryID,
			AccountID:       lineReq.AccountID,
			SubAccountID:    subAccountID,
			TransactionType: lineReq.TransactionType,
			Amount:          amount,
			Notes:           lineReq.Notes,
		}
	}

	// Structural checks first: line count, positivity, exact debit/credit
	// equality. These need no account lookups.
	if err := accounting.ValidateEntryBalance(lines, currency); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.validateAccounts(ctx, lines, currency); err != nil {
		return nil, err
	}

	changes, err := s.balanceChanges(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes: %w", err)
	}

	now := time.Now().UTC()
	entry := domain.JournalEntry{
		EntryID:      entryID,
		Sequence:     s.peekSequence(),
		EntryDate:    entryDate,
		Description:  req.Description,
		Memo:         req.Memo,
		CurrencyCode: currency,
		Status:       domain.Posted,
		Lines:        lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	// Durable append before the in-memory commit; a repository failure
	// leaves no trace in the store.
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		logger.Error("Failed to append journal entry", slog.String("error", err.Error()), slog.String("entry_id", entry.EntryID))
		return nil, fmt.Errorf("failed to append entry: %w", err)
	}

	s.commit(&entry, changes)

	logger.Info("Journal entry accepted",
		slog.String("entry_id", entry.EntryID),
		slog.Int64("sequence", entry.Sequence),
		slog.String("date", req.Date))
	return copyEntry(&entry), nil
}

// VoidEntry marks an entry void: it stays in the audit trail and in query
// results but stops contributing to any aggregation. Voiding an entry that
// is not in the plain posted state fails with ErrConflict; the strictness is
// deliberate so a double void is always surfaced to the caller.
func (s *journalService) VoidEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	entry, ok := s.byID[entryID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	if entry.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s has status %s, only POSTED entries can be voided", apperrors.ErrConflict, entryID, entry.Status)
	}

	changes, err := s.balanceChanges(ctx, entry.Lines)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes: %w", err)
	}

	now := time.Now().UTC()
	if err := s.repo.MarkVoided(ctx, entryID, now); err != nil {
		logger.Error("Failed to mark entry voided", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to void entry: %w", err)
	}

	s.mu.Lock()
	entry.Status = domain.Voided
	entry.LastUpdatedAt = now
	s.applyDeltaLocked(changes, -1)
	s.mu.Unlock()

	logger.Info("Journal entry voided", slog.String("entry_id", entryID))
	return copyEntry(entry), nil
}

// ReverseEntry appends the mirror image of a posted entry and links the
// pair. The original keeps aggregating; the reversal cancels it, which is
// how an amendment preserves the audit trail.
func (s *journalService) ReverseEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	original, ok := s.byID[entryID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s has status %s, only POSTED entries can be reversed", apperrors.ErrConflict, entryID, original.Status)
	}
	if original.OriginalEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrConflict, entryID)
	}

	now := time.Now().UTC()
	reversalID := uuid.NewString()
	lines := make([]domain.JournalLine, len(original.Lines))
	for i, origLine := range original.Lines {
		flipped := domain.Credit
		if origLine.TransactionType == domain.Credit {
			flipped = domain.Debit
		}
		lines[i] = domain.JournalLine{
			LineID:          uuid.NewString(),
			EntryID:         reversalID,
			AccountID:       origLine.AccountID,
			SubAccountID:    origLine.SubAccountID,
			TransactionType: flipped,
			Amount:          origLine.Amount,
			Notes:           origLine.Notes,
		}
	}

	originalID := original.EntryID
	reversal := domain.JournalEntry{
		EntryID:         reversalID,
		Sequence:        s.peekSequence(),
		EntryDate:       original.EntryDate,
		Description:     fmt.Sprintf("Reversal of: %s", original.Description),
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Posted,
		Lines:           lines,
		OriginalEntryID: &originalID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	changes, err := s.balanceChanges(ctx, reversal.Lines)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance changes: %w", err)
	}

	// One durable write: the reversal and the linkage on the original land
	// together or not at all.
	if err := s.repo.AppendReversal(ctx, reversal, originalID, now); err != nil {
		logger.Error("Failed to append reversing entry", slog.String("error", err.Error()), slog.String("entry_id", reversalID))
		return nil, fmt.Errorf("failed to append reversing entry: %w", err)
	}

	s.commit(&reversal, changes)
	s.mu.Lock()
	original.Status = domain.Reversed
	original.ReversingEntryID = &reversalID
	original.LastUpdatedAt = now
	s.mu.Unlock()

	logger.Info("Journal entry reversed",
		slog.String("entry_id", originalID),
		slog.String("reversing_entry_id", reversalID))
	return copyEntry(&reversal), nil
}

// GetEntryByID returns a copy of one entry.
func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	return copyEntry(entry), nil
}

// QueryEntries returns an independent snapshot of entries intersecting the
// filters, ordered by (date, sequence) ascending. Voided entries are
// included; they are history, and excluding them is the aggregation layer's
// job, not the query's.
func (s *journalService) QueryEntries(ctx context.Context, params dto.QueryEntriesParams) ([]domain.JournalEntry, error) {
	var from, to *time.Time
	if params.DateFrom != nil {
		t, err := time.Parse(dto.DateLayout, *params.DateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid dateFrom %q", apperrors.ErrValidation, *params.DateFrom)
		}
		from = &t
	}
	if params.DateTo != nil {
		t, err := time.Parse(dto.DateLayout, *params.DateTo)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid dateTo %q", apperrors.ErrValidation, *params.DateTo)
		}
		to = &t
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.JournalEntry, 0)
	for _, entry := range s.entries {
		if from != nil && entry.EntryDate.Before(*from) {
			continue
		}
		if to != nil && entry.EntryDate.After(*to) {
			continue
		}
		if params.AccountID != nil && !entry.References(*params.AccountID) {
			continue
		}
		result = append(result, *copyEntry(entry))
	}
	return result, nil
}

// CachedBalances returns a copy of the incrementally maintained balances.
func (s *journalService) CachedBalances(ctx context.Context) (map[string]domain.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Money, len(s.balances))
	for id, balance := range s.balances {
		result[id] = balance
	}
	return result, nil
}

// HasEntriesReferencing reports whether any stored line, voided or not,
// references the account as main or sub-account.
func (s *journalService) HasEntriesReferencing(ctx context.Context, accountID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.References(accountID) {
			return true, nil
		}
	}
	return false, nil
}

// validateAccounts checks that every referenced account and sub-account
// exists and is active, and that main accounts match the entry currency.
func (s *journalService) validateAccounts(ctx context.Context, lines []domain.JournalLine, currency string) error {
	ids := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		ids = append(ids, line.AccountID)
		if line.SubAccountID != "" {
			ids = append(ids, line.SubAccountID)
		}
	}
	accountsMap, err := s.accounts.GetAccountsByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}

	for _, line := range lines {
		account, ok := accountsMap[line.AccountID]
		if !ok {
			return apperrors.NewValidationError(apperrors.ReasonInvalidAccount,
				"account %s does not exist", line.AccountID)
		}
		if !account.IsActive {
			return apperrors.NewValidationError(apperrors.ReasonInvalidAccount,
				"account %s (%s) is inactive", account.AccountID, account.Name)
		}
		if account.CurrencyCode != currency {
			return fmt.Errorf("%w: account %s currency %s does not match entry currency %s",
				apperrors.ErrValidation, account.AccountID, account.CurrencyCode, currency)
		}
		if line.SubAccountID == "" {
			continue
		}
		sub, ok := accountsMap[line.SubAccountID]
		if !ok {
			return apperrors.NewValidationError(apperrors.ReasonInvalidAccount,
				"sub-account %s does not exist", line.SubAccountID)
		}
		if !sub.IsActive {
			return apperrors.NewValidationError(apperrors.ReasonInvalidAccount,
				"sub-account %s (%s) is inactive", sub.AccountID, sub.Name)
		}
	}
	return nil
}

// balanceChanges folds an entry's lines into net signed deltas per main
// account. Sub-accounts never contribute to balances.
func (s *journalService) balanceChanges(ctx context.Context, lines []domain.JournalLine) (map[string]domain.Money, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	accountsMap, err := s.accounts.GetAccountsByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	changes := make(map[string]domain.Money, len(accountsMap))
	for _, line := range lines {
		account, ok := accountsMap[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account %s vanished during balance calculation: %w", line.AccountID, apperrors.ErrInternal)
		}
		signed, err := accounting.SignedAmount(line, account.AccountType)
		if err != nil {
			return nil, err
		}
		changes[line.AccountID] = changes[line.AccountID].Add(signed)
	}
	return changes, nil
}

// peekSequence returns the sequence number the next committed entry will
// get. Caller holds writeMu, so the value cannot be claimed by anyone else.
func (s *journalService) peekSequence() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSeq
}

// commit publishes an accepted entry: inserts it in (date, sequence) order,
// indexes it, and applies its balance deltas, all under one lock so no
// reader observes a half-applied entry.
func (s *journalService) commit(entry *domain.JournalEntry, changes map[string]domain.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.entries), func(i int) bool {
		e := s.entries[i]
		if !e.EntryDate.Equal(entry.EntryDate) {
			return e.EntryDate.After(entry.EntryDate)
		}
		return e.Sequence > entry.Sequence
	})
	s.entries = append(s.entries, nil)
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = entry

	s.byID[entry.EntryID] = entry
	s.nextSeq = entry.Sequence + 1
	s.applyDeltaLocked(changes, 1)
}

// applyDeltaLocked adds (sign=1) or removes (sign=-1) balance changes.
// Caller holds s.mu.
func (s *journalService) applyDeltaLocked(changes map[string]domain.Money, sign int64) {
	for accountID, delta := range changes {
		if sign < 0 {
			delta = delta.Neg()
		}
		s.balances[accountID] = s.balances[accountID].Add(delta)
	}
}

// copyEntry returns a deep copy safe to hand outside the lock.
func copyEntry(entry *domain.JournalEntry) *domain.JournalEntry {
	c := *entry
	c.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	if entry.OriginalEntryID != nil {
		v := *entry.OriginalEntryID
		c.OriginalEntryID = &v
	}
	if entry.ReversingEntryID != nil {
		v := *entry.ReversingEntryID
		c.ReversingEntryID = &v
	}
	return &c
}

// uniqueStrings returns the unique strings from the input, order preserved.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
