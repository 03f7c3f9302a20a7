package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/module/report"
	"github.com/kislikjeka/wizmoney/internal/platform/currency"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC)

func newService() *report.Service {
	return report.NewService(report.WithClock(func() time.Time { return now }))
}

func settings(t *testing.T, display string, rates map[string]decimal.Decimal) currency.Settings {
	t.Helper()
	r, err := currency.NewRates("TWD", rates)
	require.NoError(t, err)
	s, err := currency.NewSettings(display, r)
	require.NoError(t, err)
	return s
}

func tx(date, amount, category string, p ledger.Posting) ledger.Transaction {
	return ledger.Transaction{Date: date, Amount: d(amount), Category: category, Posting: p}
}

func sampleSnapshot(t *testing.T) ledger.Snapshot {
	return ledger.Snapshot{
		Accounts: []ledger.Account{
			{ID: "cash", Name: "Cash", Currency: "TWD", Balance: d("1000")},
			{ID: "usd", Name: "USD", Currency: "USD", Balance: d("100")},
		},
		Transactions: []ledger.Transaction{
			tx("2024-05-18", "10", "food", ledger.Expense{AccountID: "usd"}),
			tx("2024-05-10", "200", "food", ledger.Expense{AccountID: "cash"}),
			tx("2024-05-09", "300", "", ledger.Expense{AccountID: "cash"}),
			tx("2024-05-05", "500", ledger.TransferCategory, ledger.Transfer{FromAccountID: "cash", ToAccountID: "usd"}),
			tx("2024-05-01", "30000", "salary", ledger.Income{AccountID: "cash"}),
			tx("2024-04-30", "80", "transport", ledger.Expense{AccountID: "cash"}),
			tx("2023-12-31", "1", "salary", ledger.Income{AccountID: "usd"}),
		},
		Settings: settings(t, "TWD", map[string]decimal.Decimal{"USD": d("32")}),
	}
}

func TestService_Totals(t *testing.T) {
	svc := newService()
	snap := sampleSnapshot(t)

	month, err := svc.Totals(snap, report.Range{Kind: report.RangeMonth})
	require.NoError(t, err)
	assert.Equal(t, "TWD", month.Currency)
	assert.Equal(t, "30000", month.Income.String())
	assert.Equal(t, "820", month.Expense.String(), "10 USD at 32 plus 200 and 300 TWD")
	assert.Equal(t, "29180", month.Net.String())
	assert.Equal(t, 5, month.Count)

	all, err := svc.Totals(snap, report.Range{Kind: report.RangeAll})
	require.NoError(t, err)
	assert.Equal(t, "30032", all.Income.String())
	assert.Equal(t, "900", all.Expense.String())
}

func TestService_RangeNeverExceedsAll(t *testing.T) {
	svc := newService()
	snap := sampleSnapshot(t)

	all, err := svc.Totals(snap, report.Range{Kind: report.RangeAll})
	require.NoError(t, err)

	for _, kind := range []report.RangeKind{report.RangeMonth, report.RangeQuarter, report.RangeYear, report.RangeCustom} {
		t.Run(string(kind), func(t *testing.T) {
			got, err := svc.Totals(snap, report.Range{Kind: kind})
			require.NoError(t, err)
			assert.True(t, got.Income.LessThanOrEqual(all.Income))
			assert.True(t, got.Expense.LessThanOrEqual(all.Expense))
			assert.LessOrEqual(t, got.Count, all.Count)
		})
	}
}

func TestService_CategoryBreakdown(t *testing.T) {
	svc := newService()

	slices, err := svc.CategoryBreakdown(sampleSnapshot(t), report.Range{Kind: report.RangeMonth})
	require.NoError(t, err)

	require.Len(t, slices, 2)
	assert.Equal(t, "food", slices[0].Category)
	assert.Equal(t, "520", slices[0].Value.String())
	assert.Equal(t, "63.4", slices[0].Share.String())
	assert.Equal(t, "#F87171", slices[0].Color)

	assert.Equal(t, report.OtherCategory, slices[1].Category, "missing category falls into other")
	assert.Equal(t, "300", slices[1].Value.String())
	assert.Equal(t, "#9CA3AF", slices[1].Color)
}

func TestService_CategoryBreakdown_TiesByName(t *testing.T) {
	snap := ledger.Snapshot{
		Accounts: []ledger.Account{{ID: "cash", Currency: "TWD"}},
		Transactions: []ledger.Transaction{
			tx("2024-05-02", "5", "zoo", ledger.Expense{AccountID: "cash"}),
			tx("2024-05-02", "5", "art", ledger.Expense{AccountID: "cash"}),
		},
		Settings: currency.DefaultSettings(),
	}

	slices, err := newService().CategoryBreakdown(snap, report.Range{Kind: report.RangeAll})
	require.NoError(t, err)
	require.Len(t, slices, 2)
	assert.Equal(t, "art", slices[0].Category)
	assert.Equal(t, report.DefaultColor, slices[0].Color)
	assert.Equal(t, "50", slices[0].Share.String())
}

func TestService_NetWorthConvertsBalances(t *testing.T) {
	snap := ledger.Snapshot{
		Accounts: []ledger.Account{{ID: "usd", Name: "USD", Currency: "USD", Balance: d("100")}},
		Settings: settings(t, "TWD", map[string]decimal.Decimal{"USD": d("32")}),
	}

	nw := newService().NetWorth(snap)

	assert.Equal(t, "TWD", nw.Currency)
	assert.Equal(t, "3200", nw.Total.String())
	require.Len(t, nw.Accounts, 1)
	assert.Equal(t, "3200", nw.Accounts[0].Value.String())
	assert.Equal(t, "100", nw.Accounts[0].Balance.String())
}

func TestService_NetWorthInDisplayCurrency(t *testing.T) {
	snap := sampleSnapshot(t)
	snap.Settings = settings(t, "USD", map[string]decimal.Decimal{"USD": d("32")})

	nw := newService().NetWorth(snap)

	assert.Equal(t, "USD", nw.Currency)
	assert.Equal(t, "131.25", nw.Total.String(), "1000 TWD is 31.25 USD")
	assert.Equal(t, "$131.25", nw.Display)
}

func TestService_OrphanValuedAtRateOne(t *testing.T) {
	snap := ledger.Snapshot{
		Transactions: []ledger.Transaction{
			tx("2024-05-02", "50", "food", ledger.Expense{AccountID: "deleted"}),
		},
		Settings: settings(t, "TWD", map[string]decimal.Decimal{"USD": d("32")}),
	}

	totals, err := newService().Totals(snap, report.Range{Kind: report.RangeAll})
	require.NoError(t, err)
	assert.Equal(t, "50", totals.Expense.String())
}

func TestService_Dashboard(t *testing.T) {
	ctx := t.Context()
	b := ledger.NewBook("user-1", ledger.Snapshot{})
	res, err := b.AddAccount(ctx, ledger.Account{Name: "Cash", Currency: "TWD", Balance: d("1000")})
	require.NoError(t, err)
	_, err = b.AddTransaction(ctx, tx("2024-05-03", "200", "food", ledger.Expense{AccountID: res.Account.ID}), ledger.AddOptions{})
	require.NoError(t, err)

	dash, err := newService().Dashboard(b.Snapshot(), report.Range{Kind: report.RangeAll})
	require.NoError(t, err)

	assert.Equal(t, "200", dash.Totals.Expense.String())
	assert.Equal(t, "800", dash.NetWorth.Total.String())
	require.Len(t, dash.Categories, 1)
	assert.Equal(t, "100", dash.Categories[0].Share.String())
	assert.True(t, dash.Bounds.All)
}

func TestCategoryRegistry(t *testing.T) {
	reg := report.DefaultCategories()

	expense := reg.ForType(ledger.TxTypeExpense)
	assert.Len(t, expense, 8)
	assert.Equal(t, "food", expense[0].Name)

	income := reg.ForType(ledger.TxTypeIncome)
	assert.Len(t, income, 5)
	assert.Equal(t, report.DefaultColor, income[3].Color, "part-time has no color")

	assert.Equal(t, "#64748B", reg.Color("Transfer"))
	assert.Equal(t, report.DefaultColor, reg.Color("pets"))
}
