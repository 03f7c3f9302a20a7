// Package money holds the amount parsing and formatting helpers shared by the
// ledger, reporting and export code. Arithmetic happens on decimal.Decimal;
// go-money is only used for currency metadata and display.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultFraction is used for currencies unknown to the currency registry.
const DefaultFraction = 2

// ParseAmount converts a human-readable amount string to a decimal.
// Thousands separators and surrounding spaces are ignored: "1,234.50" → 1234.5
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(amountStr), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %q", amountStr)
	}
	return amount, nil
}

// Fraction returns the number of minor-unit digits of a currency.
func Fraction(code string) int {
	if cur := gomoney.GetCurrency(strings.ToUpper(code)); cur != nil {
		return cur.Fraction
	}
	return DefaultFraction
}

// Round rounds an amount to the minor unit of its currency.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(int32(Fraction(code)))
}

// Format renders an amount in its currency, e.g. "$1,234.50".
// Unknown codes fall back to "1234.50 XYZ".
func Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	cur := gomoney.GetCurrency(code)
	if cur == nil {
		if code == "" {
			return amount.StringFixed(DefaultFraction)
		}
		return amount.StringFixed(DefaultFraction) + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return gomoney.New(minor, code).Display()
}

// Label returns a short human label for a currency code, e.g. "USD ($)".
func Label(code string) string {
	code = strings.ToUpper(code)
	cur := gomoney.GetCurrency(code)
	if cur == nil || cur.Grapheme == "" {
		return code
	}
	return fmt.Sprintf("%s (%s)", code, cur.Grapheme)
}
