package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portsrepo "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/repositories"
)

// PgxJournalRepository persists journal entries and their lines in
// PostgreSQL. Appends are transactional: an entry and all its lines land
// together or not at all.
type PgxJournalRepository struct {
	BaseRepository
}

// NewJournalRepository creates the pgsql journal adapter.
func NewJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepository = (*PgxJournalRepository)(nil)

// LoadEntries returns every persisted entry with its lines.
func (r *PgxJournalRepository) LoadEntries(ctx context.Context) ([]domain.JournalEntry, error) {
	entryQuery := `
		SELECT entry_id, sequence, entry_date, description, memo, currency_code, status,
		       original_entry_id, reversing_entry_id, created_at, last_updated_at
		FROM journal_entries
		ORDER BY sequence;
	`
	rows, err := r.Pool.Query(ctx, entryQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	index := make(map[string]int)
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(
			&e.EntryID,
			&e.Sequence,
			&e.EntryDate,
			&e.Description,
			&e.Memo,
			&e.CurrencyCode,
			&e.Status,
			&e.OriginalEntryID,
			&e.ReversingEntryID,
			&e.CreatedAt,
			&e.LastUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		index[e.EntryID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entry rows: %w", err)
	}
	rows.Close()

	lineQuery := `
		SELECT line_id, entry_id, account_id, COALESCE(sub_account_id, ''), transaction_type,
		       amount, currency_code, notes
		FROM journal_lines
		ORDER BY entry_id, line_id;
	`
	lineRows, err := r.Pool.Query(ctx, lineQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l domain.JournalLine
		var amount int64
		var currency string
		if err := lineRows.Scan(
			&l.LineID,
			&l.EntryID,
			&l.AccountID,
			&l.SubAccountID,
			&l.TransactionType,
			&amount,
			&currency,
			&l.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		l.Amount = domain.NewMoney(amount, currency)
		idx, ok := index[l.EntryID]
		if !ok {
			return nil, fmt.Errorf("line %s references unknown entry %s: %w", l.LineID, l.EntryID, apperrors.ErrInternal)
		}
		entries[idx].Lines = append(entries[idx].Lines, l)
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal line rows: %w", err)
	}
	return entries, nil
}

// AppendEntry durably appends an entry and all its lines in one DB
// transaction.
func (r *PgxJournalRepository) AppendEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// AppendReversal appends the reversing entry and links it to the original in
// a single DB transaction.
func (r *PgxJournalRepository) AppendReversal(ctx context.Context, reversal domain.JournalEntry, originalEntryID string, at time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.insertEntry(ctx, tx, reversal); err != nil {
		return err
	}

	linkQuery := `UPDATE journal_entries SET status = $1, reversing_entry_id = $2, last_updated_at = $3 WHERE entry_id = $4;`
	tag, err := tx.Exec(ctx, linkQuery, domain.Reversed, reversal.EntryID, at, originalEntryID)
	if err != nil {
		return fmt.Errorf("failed to mark entry %s reversed: %w", originalEntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", originalEntryID, apperrors.ErrNotFound)
	}

	return r.Commit(ctx, tx)
}

// insertEntry writes one entry and all its lines inside the given
// transaction.
func (r *PgxJournalRepository) insertEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	entryQuery := `
		INSERT INTO journal_entries (entry_id, sequence, entry_date, description, memo, currency_code, status,
		                             original_entry_id, reversing_entry_id, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, entryQuery,
		entry.EntryID,
		entry.Sequence,
		entry.EntryDate,
		entry.Description,
		entry.Memo,
		entry.CurrencyCode,
		entry.Status,
		entry.OriginalEntryID,
		entry.ReversingEntryID,
		entry.CreatedAt,
		entry.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry %s: %w", entry.EntryID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, sub_account_id, transaction_type, amount, currency_code, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8);
	`
	for _, line := range entry.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.EntryID,
			line.AccountID,
			line.SubAccountID,
			line.TransactionType,
			line.Amount.Amount,
			line.Amount.Currency,
			line.Notes,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range entry.Lines {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert journal line for entry %s: %w", entry.EntryID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close line batch for entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// MarkVoided records the void transition.
func (r *PgxJournalRepository) MarkVoided(ctx context.Context, entryID string, at time.Time) error {
	query := `UPDATE journal_entries SET status = $1, last_updated_at = $2 WHERE entry_id = $3;`
	tag, err := r.Pool.Exec(ctx, query, domain.Voided, at, entryID)
	if err != nil {
		return fmt.Errorf("failed to void entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	return nil
}
