package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settings is the currency configuration owned by a book: which currency
// reports are expressed in and the rate table used to get there.
type Settings struct {
	DisplayCurrency string `json:"displayCurrency"`
	Rates           Rates  `json:"rates"`
}

// DefaultSettings displays in the base currency of DefaultRates.
func DefaultSettings() Settings {
	rates := DefaultRates()
	return Settings{DisplayCurrency: rates.Base(), Rates: rates}
}

// NewSettings validates display against rates.
func NewSettings(display string, rates Rates) (Settings, error) {
	display = NormalizeCode(display)
	if display == "" {
		display = rates.Base()
	}
	if !ValidCode(display) {
		return Settings{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, display)
	}
	return Settings{DisplayCurrency: display, Rates: rates.Clone()}, nil
}

// IsZero reports whether the settings were never initialized.
func (s Settings) IsZero() bool {
	return s.DisplayCurrency == "" && s.Rates.IsZero()
}

// Display returns the display currency, falling back to the base.
func (s Settings) Display() string {
	if s.DisplayCurrency == "" {
		return s.Rates.Base()
	}
	return s.DisplayCurrency
}

// ToDisplay converts amount held in code into the display currency.
func (s Settings) ToDisplay(amount decimal.Decimal, code string) decimal.Decimal {
	return Convert(amount, code, s.Display(), s.Rates)
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	return Settings{DisplayCurrency: s.DisplayCurrency, Rates: s.Rates.Clone()}
}
