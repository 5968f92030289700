package services

import (
	"context"
	"time"

	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// ReportingSvcFacade shapes ledger projector output into the aggregate views
// the presentation layer renders. Pure read side: every result is a
// deterministic function of the ledger state at the requested instant.
type ReportingSvcFacade interface {
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error)

	// IncomeStatement covers the inclusive period [from, to].
	IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatementReport, error)

	// CategoryBreakdown splits one account type's period activity per
	// account (or sub-account when lines carry one), with exact percentages
	// of the category total.
	CategoryBreakdown(ctx context.Context, accountType domain.AccountType, from, to time.Time) ([]domain.CategoryBreakdownRow, error)

	// MonthlySummary is the dashboard income/expense/net line for a month.
	MonthlySummary(ctx context.Context, year int, month time.Month) (*domain.MonthlySummary, error)
}
