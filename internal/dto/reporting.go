package dto

import (
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// TrialBalanceRowResponse is one row of the trial balance report.
type TrialBalanceRowResponse struct {
	AccountID   string             `json:"accountID"`
	AccountName string             `json:"accountName"`
	AccountType domain.AccountType `json:"accountType"`
	Balance     MoneyResponse      `json:"balance"`
}

// TrialBalanceResponse is the full trial balance report.
type TrialBalanceResponse struct {
	AsOf string                    `json:"asOf,omitempty"`
	Rows []TrialBalanceRowResponse `json:"rows"`
}

// AccountAmountResponse pairs an account with a net amount.
type AccountAmountResponse struct {
	AccountID string        `json:"accountID"`
	Name      string        `json:"name"`
	Amount    MoneyResponse `json:"amount"`
}

// BalanceSheetResponse is the balance sheet report payload.
type BalanceSheetResponse struct {
	AsOf                      string                  `json:"asOf"`
	Assets                    []AccountAmountResponse `json:"assets"`
	LiabilitiesAndEquity      []AccountAmountResponse `json:"liabilitiesAndEquity"`
	TotalAssets               MoneyResponse           `json:"totalAssets"`
	TotalLiabilitiesAndEquity MoneyResponse           `json:"totalLiabilitiesAndEquity"`
}

// IncomeStatementResponse is the income statement report payload.
type IncomeStatementResponse struct {
	PeriodFrom    string                  `json:"periodFrom"`
	PeriodTo      string                  `json:"periodTo"`
	Revenue       []AccountAmountResponse `json:"revenue"`
	Expenses      []AccountAmountResponse `json:"expenses"`
	TotalRevenue  MoneyResponse           `json:"totalRevenue"`
	TotalExpenses MoneyResponse           `json:"totalExpenses"`
	NetIncome     MoneyResponse           `json:"netIncome"`
}

// CategoryBreakdownRowResponse is one slice of a category breakdown.
// Percent is rounded to one decimal place here, at the presentation edge.
type CategoryBreakdownRowResponse struct {
	AccountID string        `json:"accountID"`
	Name      string        `json:"name"`
	Amount    MoneyResponse `json:"amount"`
	Percent   string        `json:"percent"`
}

// MonthlySummaryResponse is the dashboard income/expense/net payload.
type MonthlySummaryResponse struct {
	Year    int           `json:"year"`
	Month   int           `json:"month"`
	Income  MoneyResponse `json:"income"`
	Expense MoneyResponse `json:"expense"`
	Net     MoneyResponse `json:"net"`
}

// ToAccountAmountResponses converts statement rows.
func ToAccountAmountResponses(rows []domain.AccountAmount) []AccountAmountResponse {
	out := make([]AccountAmountResponse, len(rows))
	for i, r := range rows {
		out[i] = AccountAmountResponse{
			AccountID: r.AccountID,
			Name:      r.Name,
			Amount:    ToMoneyResponse(r.Amount),
		}
	}
	return out
}

// ToTrialBalanceRowResponses converts trial balance rows.
func ToTrialBalanceRowResponses(rows []domain.TrialBalanceRow) []TrialBalanceRowResponse {
	out := make([]TrialBalanceRowResponse, len(rows))
	for i, r := range rows {
		out[i] = TrialBalanceRowResponse{
			AccountID:   r.AccountID,
			AccountName: r.AccountName,
			AccountType: r.AccountType,
			Balance:     ToMoneyResponse(r.Balance),
		}
	}
	return out
}

// ToCategoryBreakdownResponses converts breakdown rows, rounding percentages
// for display only.
func ToCategoryBreakdownResponses(rows []domain.CategoryBreakdownRow) []CategoryBreakdownRowResponse {
	out := make([]CategoryBreakdownRowResponse, len(rows))
	for i, r := range rows {
		out[i] = CategoryBreakdownRowResponse{
			AccountID: r.AccountID,
			Name:      r.Name,
			Amount:    ToMoneyResponse(r.Amount),
			Percent:   r.Percent.Round(1).String(),
		}
	}
	return out
}
