package domain

import "github.com/shopspring/decimal"

// TrialBalanceRow is one account's signed balance in a trial balance. The
// convention places debit-normal balances in the Debit column and
// credit-normal balances in the Credit column when both are positive.
type TrialBalanceRow struct {
	AccountID   string      `json:"accountID"`
	AccountName string      `json:"accountName"`
	AccountType AccountType `json:"accountType"`
	Balance     Money       `json:"balance"`
}

// AccountAmount pairs an account with a signed net amount for statements.
type AccountAmount struct {
	AccountID string `json:"accountID"`
	Name      string `json:"name"`
	Amount    Money  `json:"amount"`
}

// BalanceSheetReport is a point-in-time statement of financial position.
// TotalAssets and TotalLiabilitiesAndEquity are exact trial-balance
// subtotals for their groupings.
type BalanceSheetReport struct {
	Assets                    []AccountAmount `json:"assets"`
	LiabilitiesAndEquity      []AccountAmount `json:"liabilitiesAndEquity"`
	TotalAssets               Money           `json:"totalAssets"`
	TotalLiabilitiesAndEquity Money           `json:"totalLiabilitiesAndEquity"`
}

// IncomeStatementReport covers an inclusive date period.
// NetIncome = total revenue - total expenses.
type IncomeStatementReport struct {
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  Money           `json:"totalRevenue"`
	TotalExpenses Money           `json:"totalExpenses"`
	NetIncome     Money           `json:"netIncome"`
}

// CategoryBreakdownRow is one slice of a dashboard pie chart: an account (or
// sub-account when lines carry one) with its period amount and share of the
// category total. Percent is computed from exact totals and only rounded by
// the presentation layer.
type CategoryBreakdownRow struct {
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"`
	Amount    Money           `json:"amount"`
	Percent   decimal.Decimal `json:"percent"`
}

// MonthlySummary is the dashboard's income/expense/net line for one month.
type MonthlySummary struct {
	Year    int   `json:"year"`
	Month   int   `json:"month"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"net"`
}
