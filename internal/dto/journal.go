package dto

import (
	"time"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// DateLayout is the wire format for business dates.
const DateLayout = "2006-01-02"

// SubmitLineRequest is one debit or credit leg of a submitted entry. Amount
// is a major-unit decimal string ("10000", "99.50"); it is parsed into exact
// minor units before any arithmetic.
type SubmitLineRequest struct {
	AccountID       string                 `json:"accountID" binding:"required"`
	SubAccountID    *string                `json:"subAccountID"`
	TransactionType domain.TransactionType `json:"transactionType" binding:"required,oneof=DEBIT CREDIT"`
	Amount          string                 `json:"amount" binding:"required"`
	Notes           string                 `json:"notes"`
}

// SubmitEntryRequest defines a journal entry submission.
type SubmitEntryRequest struct {
	Date         string              `json:"date" binding:"required"` // YYYY-MM-DD business date
	Description  string              `json:"description"`
	Memo         string              `json:"memo"`
	CurrencyCode string              `json:"currencyCode"` // defaults to JPY
	Lines        []SubmitLineRequest `json:"lines" binding:"required"`
}

// QueryEntriesParams are the query filters for listing journal entries.
type QueryEntriesParams struct {
	DateFrom  *string `form:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo    *string `form:"dateTo" binding:"omitempty,datetime=2006-01-02"`
	AccountID *string `form:"accountID"`
}

// LineResponse is the response shape of a journal line.
type LineResponse struct {
	LineID          string                 `json:"lineID"`
	AccountID       string                 `json:"accountID"`
	SubAccountID    string                 `json:"subAccountID,omitempty"`
	TransactionType domain.TransactionType `json:"transactionType"`
	Amount          MoneyResponse          `json:"amount"`
	Notes           string                 `json:"notes,omitempty"`
}

// EntryResponse is the response shape of a journal entry.
type EntryResponse struct {
	EntryID          string             `json:"entryID"`
	Sequence         int64              `json:"sequence"`
	Date             string             `json:"date"`
	Description      string             `json:"description,omitempty"`
	Memo             string             `json:"memo,omitempty"`
	CurrencyCode     string             `json:"currencyCode"`
	Status           domain.EntryStatus `json:"status"`
	Lines            []LineResponse     `json:"lines"`
	OriginalEntryID  *string            `json:"originalEntryID,omitempty"`
	ReversingEntryID *string            `json:"reversingEntryID,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// MoneyResponse carries both the exact minor-unit amount and a formatted
// display string so the presentation layer never does money math.
type MoneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

// ToMoneyResponse converts a domain.Money to its response DTO.
func ToMoneyResponse(m domain.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount, Currency: m.Currency, Display: m.Display()}
}

// ToEntryResponse converts a domain.JournalEntry to its response DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	lines := make([]LineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = LineResponse{
			LineID:          l.LineID,
			AccountID:       l.AccountID,
			SubAccountID:    l.SubAccountID,
			TransactionType: l.TransactionType,
			Amount:          ToMoneyResponse(l.Amount),
			Notes:           l.Notes,
		}
	}
	return EntryResponse{
		EntryID:          e.EntryID,
		Sequence:         e.Sequence,
		Date:             e.EntryDate.Format(DateLayout),
		Description:      e.Description,
		Memo:             e.Memo,
		CurrencyCode:     e.CurrencyCode,
		Status:           e.Status,
		Lines:            lines,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		CreatedAt:        e.CreatedAt,
	}
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.JournalEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out
}
