package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/platform/currency"
	"github.com/kislikjeka/wizmoney/pkg/money"
)

// Totals are the income and expense sums of a period in the display currency
type Totals struct {
	Currency string          `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}

// CategorySlice is one row of the expense breakdown
type CategorySlice struct {
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
	Share    decimal.Decimal `json:"share"`
	Color    string          `json:"color"`
}

// AccountValue is one account's balance expressed in the display currency
type AccountValue struct {
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Value     decimal.Decimal `json:"value"`
}

// NetWorth is the sum of every account balance in the display currency.
// Display is the total formatted for people, e.g. "$131.25".
type NetWorth struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Display  string          `json:"display"`
	Accounts []AccountValue  `json:"accounts"`
}

// Dashboard bundles every report for one period
type Dashboard struct {
	Range      Range           `json:"range"`
	Bounds     Bounds          `json:"bounds"`
	Totals     Totals          `json:"totals"`
	Categories []CategorySlice `json:"categories"`
	NetWorth   NetWorth        `json:"netWorth"`
}

// Service computes reports from book snapshots. It never mutates its input
// and keeps no state between calls.
type Service struct {
	now        func() time.Time
	categories *CategoryRegistry
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCategories overrides the category registry
func WithCategories(r *CategoryRegistry) Option {
	return func(s *Service) { s.categories = r }
}

// NewService creates a new report service
func NewService(opts ...Option) *Service {
	s := &Service{now: time.Now, categories: DefaultCategories()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categories returns the category registry in use
func (s *Service) Categories() *CategoryRegistry {
	return s.categories
}

// Totals sums income and expense transactions inside the range. Transfers
// are counted but contribute to neither side.
func (s *Service) Totals(snap ledger.Snapshot, r Range) (Totals, error) {
	bounds, err := r.Resolve(s.now())
	if err != nil {
		return Totals{}, err
	}
	return s.totals(snap, bounds), nil
}

// CategoryBreakdown groups expenses inside the range by category, largest
// first. Expenses without a category are reported as "other".
func (s *Service) CategoryBreakdown(snap ledger.Snapshot, r Range) ([]CategorySlice, error) {
	bounds, err := r.Resolve(s.now())
	if err != nil {
		return nil, err
	}
	return s.breakdown(snap, bounds), nil
}

// NetWorth converts every account balance to the display currency. It
// ignores dates.
func (s *Service) NetWorth(snap ledger.Snapshot) NetWorth {
	settings := snap.Settings
	display := settings.Display()

	out := NetWorth{Currency: display, Total: decimal.Zero, Accounts: make([]AccountValue, 0, len(snap.Accounts))}
	for _, acc := range snap.Accounts {
		value := settings.ToDisplay(acc.Balance, acc.Currency)
		out.Total = out.Total.Add(value)
		out.Accounts = append(out.Accounts, AccountValue{
			AccountID: acc.ID,
			Name:      acc.Name,
			Currency:  acc.Currency,
			Balance:   acc.Balance,
			Value:     money.Round(value, display),
		})
	}
	out.Total = money.Round(out.Total, display)
	out.Display = money.Format(out.Total, display)
	return out
}

// Dashboard computes totals, breakdown and net worth in one pass over the
// same resolved range
func (s *Service) Dashboard(snap ledger.Snapshot, r Range) (Dashboard, error) {
	bounds, err := r.Resolve(s.now())
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Range:      r,
		Bounds:     bounds,
		Totals:     s.totals(snap, bounds),
		Categories: s.breakdown(snap, bounds),
		NetWorth:   s.NetWorth(snap),
	}, nil
}

func (s *Service) totals(snap ledger.Snapshot, bounds Bounds) Totals {
	display := snap.Settings.Display()
	out := Totals{Currency: display, Income: decimal.Zero, Expense: decimal.Zero}

	for _, tx := range snap.Transactions {
		if !bounds.Contains(tx.Date) {
			continue
		}
		out.Count++
		switch tx.Type() {
		case ledger.TxTypeIncome:
			out.Income = out.Income.Add(displayValue(snap, tx))
		case ledger.TxTypeExpense:
			out.Expense = out.Expense.Add(displayValue(snap, tx))
		}
	}

	out.Income = money.Round(out.Income, display)
	out.Expense = money.Round(out.Expense, display)
	out.Net = out.Income.Sub(out.Expense)
	return out
}

func (s *Service) breakdown(snap ledger.Snapshot, bounds Bounds) []CategorySlice {
	display := snap.Settings.Display()
	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, tx := range snap.Transactions {
		if tx.Type() != ledger.TxTypeExpense || !bounds.Contains(tx.Date) {
			continue
		}
		category := tx.Category
		if category == "" {
			category = OtherCategory
		}
		value := displayValue(snap, tx)
		sums[category] = sums[category].Add(value)
		total = total.Add(value)
	}

	out := make([]CategorySlice, 0, len(sums))
	for category, value := range sums {
		share := decimal.Zero
		if total.IsPositive() {
			share = value.Div(total).Mul(decimal.NewFromInt(100)).Round(1)
		}
		out = append(out, CategorySlice{
			Category: category,
			Value:    money.Round(value, display),
			Share:    share,
			Color:    s.categories.Color(category),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// displayValue converts a single-account transaction from its account's
// currency. Orphans have no currency and are taken at rate 1.
func displayValue(snap ledger.Snapshot, tx ledger.Transaction) decimal.Decimal {
	code := ""
	switch p := tx.Posting.(type) {
	case ledger.Expense:
		code = accountCurrency(snap, p.AccountID)
	case ledger.Income:
		code = accountCurrency(snap, p.AccountID)
	case ledger.Transfer:
		code = accountCurrency(snap, p.FromAccountID)
	}
	return currency.Convert(tx.Amount, code, snap.Settings.Display(), snap.Settings.Rates)
}

func accountCurrency(snap ledger.Snapshot, id string) string {
	if acc, ok := snap.Account(id); ok {
		return acc.Currency
	}
	return ""
}
