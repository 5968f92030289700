package domain

// AccountType defines the fundamental accounting type of an account. It is
// fixed at creation: changing it would reclassify historical statements.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// AccountTypes lists all types in the fixed presentation order used for
// grouping (balance sheet first, then income statement).
var AccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the type's normal balance is on the debit
// side. Asset and Expense balances grow with debits; Liability, Equity and
// Revenue balances grow with credits.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Order returns the type's position in the fixed enumeration order, used as
// the primary sort key when listing accounts.
func (t AccountType) Order() int {
	for i, at := range AccountTypes {
		if at == t {
			return i
		}
	}
	return len(AccountTypes)
}

// Account represents one entry in the chart of accounts. Accounts are
// mutable reference data: the name may change at any time, the type never
// does. parent references form a forest, never a cycle, and parent and child
// always share the same top-level type.
type Account struct {
	AccountID       string      `json:"accountID"`
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	ParentAccountID string      `json:"parentAccountID"` // empty for root accounts
	CurrencyCode    string      `json:"currencyCode"`
	IsActive        bool        `json:"isActive"`
	// Ordinal is the creation sequence within the whole chart, used as the
	// secondary sort key when listing accounts grouped by type.
	Ordinal int64 `json:"ordinal"`
	AuditFields
}
