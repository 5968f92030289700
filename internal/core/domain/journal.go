package domain

import "time"

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	// Posted entries participate in aggregation.
	Posted EntryStatus = "POSTED"
	// Voided entries are retained for the audit trail but excluded from all
	// statement aggregation.
	Voided EntryStatus = "VOIDED"
	// Reversed entries stay in aggregation; the linked reversing entry
	// cancels their effect. The status records the linkage.
	Reversed EntryStatus = "REVERSED"
)

// TransactionType indicates whether a journal line is a Debit or a Credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// JournalEntry is a single balanced financial event. Entries are append-only
// event data: once stored they are never edited in place. An amendment is a
// reversing entry plus a fresh entry, a removal is a void.
type JournalEntry struct {
	EntryID string `json:"entryID"`
	// Sequence is assigned monotonically at acceptance and breaks ties
	// between entries sharing a business date.
	Sequence int64 `json:"sequence"`
	// EntryDate is the business date of the transaction, not the wall-clock
	// time it was recorded.
	EntryDate    time.Time     `json:"entryDate"`
	Description  string        `json:"description"`
	Memo         string        `json:"memo"`
	CurrencyCode string        `json:"currencyCode"`
	Status       EntryStatus   `json:"status"`
	Lines        []JournalLine `json:"lines"`
	// Reversal linkage, both nil for ordinary entries.
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`
	AuditFields
}

// IsVoided reports whether the entry is excluded from aggregation.
func (e *JournalEntry) IsVoided() bool { return e.Status == Voided }

// References reports whether any line of the entry touches the given account,
// either as the main account or as the auxiliary sub-account.
func (e *JournalEntry) References(accountID string) bool {
	for _, line := range e.Lines {
		if line.AccountID == accountID || line.SubAccountID == accountID {
			return true
		}
	}
	return false
}

// JournalLine is one debit or credit leg of an entry. Lines are owned by
// their entry and have no independent lifecycle.
type JournalLine struct {
	LineID    string `json:"lineID"`
	EntryID   string `json:"entryID"`
	AccountID string `json:"accountID"`
	// SubAccountID is the optional auxiliary account (補助科目): a secondary
	// classification used for finer reporting only, never for balance
	// computation.
	SubAccountID    string          `json:"subAccountID,omitempty"`
	TransactionType TransactionType `json:"transactionType"`
	// Amount is strictly positive; the transaction type carries the sign.
	Amount Money  `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}
