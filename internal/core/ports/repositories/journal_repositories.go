package repositories

import (
	"context"
	"time"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// JournalRepository is the durable store collaborator for journal entries.
// Entries are append-only: besides the initial append the store only ever
// records status transitions (void, reversal linkage), never line edits.
type JournalRepository interface {
	// LoadEntries returns every persisted entry with its lines, in any
	// order; the core re-sorts and rebuilds caches on replay.
	LoadEntries(ctx context.Context) ([]domain.JournalEntry, error)

	// AppendEntry durably appends a fully validated entry and all its lines
	// as one atomic unit.
	AppendEntry(ctx context.Context, entry domain.JournalEntry) error

	// MarkVoided records the void status transition for an entry.
	MarkVoided(ctx context.Context, entryID string, at time.Time) error

	// AppendReversal durably appends the reversing entry and records the
	// reversal linkage on the original in one atomic unit: both writes
	// succeed or neither is persisted.
	AppendReversal(ctx context.Context, reversal domain.JournalEntry, originalEntryID string, at time.Time) error
}
