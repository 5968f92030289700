package services

import (
	"context"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
)

// EntryReferenceChecker lets the registry ask the journal store whether an
// account is still referenced by any stored line before physical deletion.
type EntryReferenceChecker interface {
	HasEntriesReferencing(ctx context.Context, accountID string) (bool, error)
}

// EntrySource is the read-side feed the ledger projector folds over.
type EntrySource interface {
	// QueryEntries returns an independent snapshot of entries intersecting
	// the filters, ordered by (date, sequence) ascending. The returned slice
	// is safe to iterate any number of times.
	QueryEntries(ctx context.Context, params dto.QueryEntriesParams) ([]domain.JournalEntry, error)

	// CachedBalances returns the incrementally maintained signed balances of
	// all non-voided committed entries, keyed by account id.
	CachedBalances(ctx context.Context) (map[string]domain.Money, error)
}

// JournalSvcFacade is the full command/query surface of the journal store.
type JournalSvcFacade interface {
	EntrySource
	EntryReferenceChecker

	// SubmitEntry validates and atomically appends a balanced entry.
	// Rejections leave the store untouched.
	SubmitEntry(ctx context.Context, req dto.SubmitEntryRequest) (*domain.JournalEntry, error)

	// VoidEntry excludes an entry from aggregation without deleting it.
	// Voiding an already-void entry fails with apperrors.ErrConflict.
	VoidEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ReverseEntry appends a mirror-image entry and links the pair; the
	// original keeps aggregating, the reversal cancels it.
	ReverseEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// GetEntryByID returns a copy of one entry or apperrors.ErrNotFound.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
}
