package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/utils/accounting"
)

// reportingService assembles projector output into the statement shapes the
// presentation layer renders. It performs no mutation; every result is a
// deterministic function of the ledger at the requested instant.
type reportingService struct {
	ledger   portssvc.LedgerSvcFacade
	entries  portssvc.EntrySource
	accounts portssvc.AccountReader
}

// NewReportingService creates the statement composer.
func NewReportingService(ledger portssvc.LedgerSvcFacade, entries portssvc.EntrySource, accounts portssvc.AccountReader) portssvc.ReportingSvcFacade {
	return &reportingService{ledger: ledger, entries: entries, accounts: accounts}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// BalanceSheet splits the trial balance into the asset side and the
// liabilities-and-equity side. Totals are the exact trial-balance subtotals
// for those groupings.
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error) {
	rows, err := s.ledger.TrialBalance(ctx, &asOf)
	if err != nil {
		return nil, err
	}

	report := &domain.BalanceSheetReport{
		Assets:               make([]domain.AccountAmount, 0),
		LiabilitiesAndEquity: make([]domain.AccountAmount, 0),
	}
	for _, row := range rows {
		amount := domain.AccountAmount{
			AccountID: row.AccountID,
			Name:      row.AccountName,
			Amount:    row.Balance,
		}
		switch row.AccountType {
		case domain.Asset:
			report.Assets = append(report.Assets, amount)
			report.TotalAssets = report.TotalAssets.Add(row.Balance)
		case domain.Liability, domain.Equity:
			report.LiabilitiesAndEquity = append(report.LiabilitiesAndEquity, amount)
			report.TotalLiabilitiesAndEquity = report.TotalLiabilitiesAndEquity.Add(row.Balance)
		}
	}
	return report, nil
}

// IncomeStatement folds entries dated within [from, to] inclusive over the
// revenue and expense accounts. NetIncome = total revenue - total expenses.
func (s *reportingService) IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatementReport, error) {
	activity, order, err := s.periodActivity(ctx, from, to, nil)
	if err != nil {
		return nil, err
	}

	report := &domain.IncomeStatementReport{
		Revenue:  make([]domain.AccountAmount, 0),
		Expenses: make([]domain.AccountAmount, 0),
	}
	for _, account := range order {
		net, touched := activity[account.AccountID]
		if !touched {
			continue
		}
		amount := domain.AccountAmount{AccountID: account.AccountID, Name: account.Name, Amount: net}
		switch account.AccountType {
		case domain.Revenue:
			report.Revenue = append(report.Revenue, amount)
			report.TotalRevenue = report.TotalRevenue.Add(net)
		case domain.Expense:
			report.Expenses = append(report.Expenses, amount)
			report.TotalExpenses = report.TotalExpenses.Add(net)
		}
	}
	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpenses)
	return report, nil
}

// CategoryBreakdown splits one account type's period activity per account,
// or per sub-account where lines carry the auxiliary classification.
// Percentages are exact ratios of the category total; rounding happens only
// at the presentation edge.
func (s *reportingService) CategoryBreakdown(ctx context.Context, accountType domain.AccountType, from, to time.Time) ([]domain.CategoryBreakdownRow, error) {
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, accountType)
	}

	activity, _, err := s.periodActivity(ctx, from, to, &accountType)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListAccounts(ctx, dto.ListAccountsParams{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.AccountID] = account
	}

	rows := make([]domain.CategoryBreakdownRow, 0, len(activity))
	total := int64(0)
	for id, amount := range activity {
		account, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("breakdown references unknown account %s: %w", id, apperrors.ErrInternal)
		}
		rows = append(rows, domain.CategoryBreakdownRow{
			AccountID: id,
			Name:      account.Name,
			Amount:    amount,
		})
		total += amount.Amount
	}
	sort.Slice(rows, func(i, j int) bool {
		return byID[rows[i].AccountID].Ordinal < byID[rows[j].AccountID].Ordinal
	})

	hundred := decimal.NewFromInt(100)
	for i := range rows {
		if total == 0 {
			rows[i].Percent = decimal.Zero
			continue
		}
		rows[i].Percent = decimal.NewFromInt(rows[i].Amount.Amount).
			Mul(hundred).
			Div(decimal.NewFromInt(total))
	}
	return rows, nil
}

// MonthlySummary is the dashboard income/expense/net line for one calendar
// month, derived from the income statement for that month.
func (s *reportingService) MonthlySummary(ctx context.Context, year int, month time.Month) (*domain.MonthlySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	statement, err := s.IncomeStatement(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &domain.MonthlySummary{
		Year:    year,
		Month:   int(month),
		Income:  statement.TotalRevenue,
		Expense: statement.TotalExpenses,
		Net:     statement.NetIncome,
	}, nil
}

// periodActivity folds non-voided entries within [from, to] into net signed
// amounts. With typeFilter nil it aggregates per main account across revenue
// and expense types; with a filter it aggregates that type only, keyed by
// sub-account where a line carries one. The returned order slice lists the
// accounts in registry order for deterministic statement rows.
func (s *reportingService) periodActivity(ctx context.Context, from, to time.Time, typeFilter *domain.AccountType) (map[string]domain.Money, []domain.Account, error) {
	fromStr := from.Format(dto.DateLayout)
	toStr := to.Format(dto.DateLayout)
	entries, err := s.entries.QueryEntries(ctx, dto.QueryEntriesParams{DateFrom: &fromStr, DateTo: &toStr})
	if err != nil {
		return nil, nil, err
	}

	accounts, err := s.accounts.ListAccounts(ctx, dto.ListAccountsParams{IncludeInactive: true})
	if err != nil {
		return nil, nil, err
	}
	typeByID := make(map[string]domain.AccountType, len(accounts))
	for _, account := range accounts {
		typeByID[account.AccountID] = account.AccountType
	}

	activity := make(map[string]domain.Money)
	for i := range entries {
		entry := &entries[i]
		if entry.IsVoided() {
			continue
		}
		for _, line := range entry.Lines {
			accountType, ok := typeByID[line.AccountID]
			if !ok {
				return nil, nil, fmt.Errorf("line %s references unknown account %s: %w", line.LineID, line.AccountID, apperrors.ErrInternal)
			}
			if typeFilter == nil {
				if accountType != domain.Revenue && accountType != domain.Expense {
					continue
				}
			} else if accountType != *typeFilter {
				continue
			}
			signed, err := accounting.SignedAmount(line, accountType)
			if err != nil {
				return nil, nil, err
			}
			key := line.AccountID
			if typeFilter != nil && line.SubAccountID != "" {
				key = line.SubAccountID
			}
			activity[key] = activity[key].Add(signed)
		}
	}
	return activity, accounts, nil
}
