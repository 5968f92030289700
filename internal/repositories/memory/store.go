// Package memory provides an in-process implementation of the persistence
// collaborator ports. It is the default store for single-machine use and the
// backing store for tests; the ledger core never knows the difference.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portsrepo "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/repositories"
)

// Store holds accounts and journal entries in memory. Entries are kept in
// append order; the core re-sorts on load.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	entries  []domain.JournalEntry
	entryIdx map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		entryIdx: make(map[string]int),
	}
}

var (
	_ portsrepo.AccountRepository = (*Store)(nil)
	_ portsrepo.JournalRepository = (*Store)(nil)
)

// LoadAccounts implements portsrepo.AccountRepository.
func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		result = append(result, account)
	}
	return result, nil
}

// SaveAccount implements portsrepo.AccountRepository.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account.AccountID] = account
	return nil
}

// DeleteAccount implements portsrepo.AccountRepository.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	delete(s.accounts, accountID)
	return nil
}

// LoadEntries implements portsrepo.JournalRepository.
func (s *Store) LoadEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.JournalEntry, len(s.entries))
	for i, entry := range s.entries {
		copied := entry
		copied.Lines = append([]domain.JournalLine(nil), entry.Lines...)
		result[i] = copied
	}
	return result, nil
}

// AppendEntry implements portsrepo.JournalRepository.
func (s *Store) AppendEntry(ctx context.Context, entry domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entryIdx[entry.EntryID]; ok {
		return fmt.Errorf("entry %s already stored: %w", entry.EntryID, apperrors.ErrConflict)
	}
	entry.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	s.entries = append(s.entries, entry)
	s.entryIdx[entry.EntryID] = len(s.entries) - 1
	return nil
}

// MarkVoided implements portsrepo.JournalRepository.
func (s *Store) MarkVoided(ctx context.Context, entryID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.entryIdx[entryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	s.entries[idx].Status = domain.Voided
	s.entries[idx].LastUpdatedAt = at
	return nil
}

// AppendReversal implements portsrepo.JournalRepository. The append and the
// linkage update happen under one lock hold; a failed precondition leaves
// the store untouched.
func (s *Store) AppendReversal(ctx context.Context, reversal domain.JournalEntry, originalEntryID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entryIdx[reversal.EntryID]; ok {
		return fmt.Errorf("entry %s already stored: %w", reversal.EntryID, apperrors.ErrConflict)
	}
	idx, ok := s.entryIdx[originalEntryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", originalEntryID, apperrors.ErrNotFound)
	}

	reversal.Lines = append([]domain.JournalLine(nil), reversal.Lines...)
	s.entries = append(s.entries, reversal)
	s.entryIdx[reversal.EntryID] = len(s.entries) - 1

	reversalID := reversal.EntryID
	s.entries[idx].Status = domain.Reversed
	s.entries[idx].ReversingEntryID = &reversalID
	s.entries[idx].LastUpdatedAt = at
	return nil
}
