package domain

import (
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ledger's default currency. The household bookkeeping
// use case is yen-denominated; JPY has no minor-unit subdivision so one minor
// unit is one yen.
const DefaultCurrency = "JPY"

// Money is an exact monetary value: an integer amount in the currency's
// minor unit plus the ISO 4217 currency code. All arithmetic is integer
// arithmetic; floats never appear. Journal lines carry strictly positive
// amounts and the debit/credit role carries the sign, so negative Money only
// shows up in signed balances.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney builds a Money from a minor-unit amount and currency code.
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// ZeroMoney returns the zero value in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Currency: currency}
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether two values have the same amount and currency.
func (m Money) Equal(n Money) bool {
	return m.Amount == n.Amount && sameCurrency(m, n)
}

// Add returns m+n. Mixing currencies is a programming error: every journal
// entry is validated to a single currency before arithmetic happens.
func (m Money) Add(n Money) Money {
	return Money{Amount: m.Amount + n.Amount, Currency: mergeCurrency(m, n)}
}

// Sub returns m-n.
func (m Money) Sub(n Money) Money {
	return Money{Amount: m.Amount - n.Amount, Currency: mergeCurrency(m, n)}
}

// Neg returns the negated value.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Decimal returns the value in major units as an exact decimal, shifted by
// the currency's registered fraction.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, 0).Shift(-int32(currencyOf(m.Currency).Fraction))
}

// Display renders the value with currency symbol and grouping, e.g. "¥10,000".
func (m Money) Display() string {
	return gomoney.New(m.Amount, m.currencyCode()).Display()
}

// String renders the plain major-unit value, e.g. "10000" for ¥10,000.
func (m Money) String() string {
	return m.Decimal().String()
}

func (m Money) currencyCode() string {
	if m.Currency == "" {
		return DefaultCurrency
	}
	return m.Currency
}

// ParseAmount converts a major-unit decimal string ("10000", "99.50") into a
// minor-unit amount for the given currency. It rejects values with more
// fractional digits than the currency carries.
func ParseAmount(value string, currency string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	fraction := int32(currencyOf(currency).Fraction)
	shifted := d.Shift(fraction)
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("amount %q has more than %d decimal places", value, fraction)
	}
	return Money{Amount: shifted.IntPart(), Currency: currency}, nil
}

// currencyOf resolves currency metadata, falling back to the default
// currency for unknown or empty codes.
func currencyOf(code string) *gomoney.Currency {
	if code == "" {
		code = DefaultCurrency
	}
	if cur := gomoney.GetCurrency(code); cur != nil {
		return cur
	}
	return gomoney.GetCurrency(DefaultCurrency)
}

// sameCurrency treats the empty code as a wildcard zero value.
func sameCurrency(a, b Money) bool {
	return a.Currency == b.Currency || a.Currency == "" || b.Currency == ""
}

func mergeCurrency(a, b Money) string {
	if a.Currency == "" {
		return b.Currency
	}
	if b.Currency != "" && a.Currency != b.Currency {
		panic("money: currency mismatch " + a.Currency + " != " + b.Currency)
	}
	return a.Currency
}
