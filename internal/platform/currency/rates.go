package currency

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBase is the currency every rate is expressed in when nothing else is
// configured.
const DefaultBase = "TWD"

var (
	// ErrInvalidRate is returned when a rate is zero or negative.
	ErrInvalidRate = errors.New("exchange rate must be positive")
	// ErrInvalidCurrency is returned for malformed currency codes.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrBaseRate is returned when trying to override the base rate.
	ErrBaseRate = errors.New("base currency rate is fixed at 1")
)

// Rates is an exchange rate table. Each value is the worth of one unit of the
// currency expressed in base units; the base itself is implicitly 1.
// Rates values are immutable: mutating methods return a copy.
type Rates struct {
	base   string
	values map[string]decimal.Decimal
}

// NewRates builds a table over base. Entries for the base code are ignored.
func NewRates(base string, values map[string]decimal.Decimal) (Rates, error) {
	base = NormalizeCode(base)
	if !ValidCode(base) {
		return Rates{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, base)
	}

	r := Rates{base: base, values: make(map[string]decimal.Decimal, len(values))}
	for code, value := range values {
		code = NormalizeCode(code)
		if !ValidCode(code) {
			return Rates{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
		if !value.IsPositive() {
			return Rates{}, fmt.Errorf("%s: %w", code, ErrInvalidRate)
		}
		if code == base {
			continue
		}
		r.values[code] = value
	}
	return r, nil
}

// DefaultRates returns the built-in table: TWD base with USD at 32.5.
func DefaultRates() Rates {
	return Rates{
		base:   DefaultBase,
		values: map[string]decimal.Decimal{"USD": decimal.RequireFromString("32.5")},
	}
}

// Base returns the base currency code.
func (r Rates) Base() string {
	if r.base == "" {
		return DefaultBase
	}
	return r.base
}

// IsZero reports whether the table was never initialized.
func (r Rates) IsZero() bool {
	return r.base == "" && len(r.values) == 0
}

// Rate returns the rate for code. The base and unknown codes yield 1.
func (r Rates) Rate(code string) decimal.Decimal {
	v, ok := r.lookup(code)
	if !ok {
		return decimal.NewFromInt(1)
	}
	return v
}

// Has reports whether code has an explicit rate or is the base.
func (r Rates) Has(code string) bool {
	_, ok := r.lookup(code)
	return ok
}

func (r Rates) lookup(code string) (decimal.Decimal, bool) {
	code = NormalizeCode(code)
	if code == r.Base() {
		return decimal.NewFromInt(1), true
	}
	v, ok := r.values[code]
	return v, ok
}

// With returns a copy of the table with code set to value.
func (r Rates) With(code string, value decimal.Decimal) (Rates, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return r, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	if code == r.Base() {
		return r, ErrBaseRate
	}
	if !value.IsPositive() {
		return r, fmt.Errorf("%s: %w", code, ErrInvalidRate)
	}

	out := r.Clone()
	out.values[code] = value
	return out, nil
}

// Without returns a copy of the table with code removed.
func (r Rates) Without(code string) Rates {
	out := r.Clone()
	delete(out.values, NormalizeCode(code))
	return out
}

// Clone returns a deep copy.
func (r Rates) Clone() Rates {
	out := Rates{base: r.Base(), values: make(map[string]decimal.Decimal, len(r.values))}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Codes returns every code in the table, base first, the rest sorted.
func (r Rates) Codes() []string {
	codes := make([]string, 0, len(r.values))
	for k := range r.values {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return append([]string{r.Base()}, codes...)
}

// Values returns a copy of the explicit rates, base included.
func (r Rates) Values() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(r.values)+1)
	for k, v := range r.values {
		out[k] = v
	}
	out[r.Base()] = decimal.NewFromInt(1)
	return out
}

type ratesJSON struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// MarshalJSON encodes the table as {"base": ..., "rates": {...}}.
func (r Rates) MarshalJSON() ([]byte, error) {
	return json.Marshal(ratesJSON{Base: r.Base(), Rates: r.Values()})
}

// UnmarshalJSON decodes and validates a table.
func (r *Rates) UnmarshalJSON(data []byte) error {
	var raw ratesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Base == "" {
		raw.Base = DefaultBase
	}
	parsed, err := NewRates(raw.Base, raw.Rates)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// NormalizeCode trims and upper-cases a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code looks like a three letter currency code.
func ValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
