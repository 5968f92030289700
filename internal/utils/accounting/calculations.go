package accounting

import (
	"fmt"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
)

// SignedAmount applies the normal-balance sign convention to a journal line:
// DEBIT to ASSET/EXPENSE and CREDIT to LIABILITY/EQUITY/REVENUE are positive,
// the opposite pairings negative. The same function is used for cache updates
// and full refolds so the two can never disagree.
func SignedAmount(line domain.JournalLine, accountType domain.AccountType) (domain.Money, error) {
	isDebit := line.TransactionType == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if isDebit {
			return line.Amount, nil
		}
		return line.Amount.Neg(), nil
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			return line.Amount.Neg(), nil
		}
		return line.Amount, nil
	default:
		return domain.Money{}, fmt.Errorf("unknown account type %q for account %s", accountType, line.AccountID)
	}
}

// ValidateEntryBalance runs the structural checks on a candidate entry's
// lines: at least two lines, strictly positive amounts, and exact integer
// equality of the independently summed debit and credit sides. No epsilon
// anywhere; amounts are integers.
func ValidateEntryBalance(lines []domain.JournalLine, currency string) error {
	if len(lines) < 2 {
		return apperrors.NewValidationError(apperrors.ReasonTooFewLines,
			"entry has %d line(s), need at least 2", len(lines))
	}

	debits := domain.ZeroMoney(currency)
	credits := domain.ZeroMoney(currency)
	for _, line := range lines {
		if !line.Amount.IsPositive() {
			return apperrors.NewValidationError(apperrors.ReasonNonPositiveAmount,
				"line amount must be strictly positive, got %s for account %s",
				line.Amount.String(), line.AccountID)
		}
		switch line.TransactionType {
		case domain.Debit:
			debits = debits.Add(line.Amount)
		case domain.Credit:
			credits = credits.Add(line.Amount)
		default:
			return fmt.Errorf("%w: unknown transaction type %q on line for account %s",
				apperrors.ErrValidation, line.TransactionType, line.AccountID)
		}
	}

	if !debits.Equal(credits) {
		return apperrors.NewValidationError(apperrors.ReasonUnbalancedEntry,
			"debit total %s != credit total %s", debits.String(), credits.String())
	}
	return nil
}
