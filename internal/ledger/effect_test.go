package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func accounts() []ledger.Account {
	return []ledger.Account{
		{ID: "cash", Name: "Cash", Currency: "TWD", Balance: d("500")},
		{ID: "bank", Name: "Bank", Currency: "TWD", Balance: d("0")},
		{ID: "card", Name: "Card", Currency: "TWD", Balance: d("-20")},
	}
}

func balances(accs []ledger.Account) map[string]string {
	out := make(map[string]string, len(accs))
	for _, a := range accs {
		out[a.ID] = a.Balance.String()
	}
	return out
}

func TestApplyEffect(t *testing.T) {
	tests := []struct {
		name string
		tx   ledger.Transaction
		m    ledger.Multiplier
		want map[string]string
	}{
		{
			name: "expense debits",
			tx:   ledger.Transaction{Amount: d("200"), Posting: ledger.Expense{AccountID: "cash"}},
			m:    ledger.Apply,
			want: map[string]string{"cash": "300", "bank": "0", "card": "-20"},
		},
		{
			name: "income credits",
			tx:   ledger.Transaction{Amount: d("12.5"), Posting: ledger.Income{AccountID: "bank"}},
			m:    ledger.Apply,
			want: map[string]string{"cash": "500", "bank": "12.5", "card": "-20"},
		},
		{
			name: "transfer moves both sides",
			tx:   ledger.Transaction{Amount: d("300"), Posting: ledger.Transfer{FromAccountID: "cash", ToAccountID: "bank"}},
			m:    ledger.Apply,
			want: map[string]string{"cash": "200", "bank": "300", "card": "-20"},
		},
		{
			name: "reversed expense credits",
			tx:   ledger.Transaction{Amount: d("20"), Posting: ledger.Expense{AccountID: "card"}},
			m:    ledger.Reverse,
			want: map[string]string{"cash": "500", "bank": "0", "card": "0"},
		},
		{
			name: "unknown account is skipped",
			tx:   ledger.Transaction{Amount: d("5"), Posting: ledger.Transfer{FromAccountID: "gone", ToAccountID: "bank"}},
			m:    ledger.Apply,
			want: map[string]string{"cash": "500", "bank": "5", "card": "-20"},
		},
		{
			name: "no posting changes nothing",
			tx:   ledger.Transaction{Amount: d("5")},
			m:    ledger.Apply,
			want: map[string]string{"cash": "500", "bank": "0", "card": "-20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := accounts()
			got := ledger.ApplyEffect(before, tt.tx, tt.m)
			assert.Equal(t, tt.want, balances(got))
			assert.Equal(t, balances(accounts()), balances(before), "input must not change")
		})
	}
}

func TestApplyEffect_ReverseIsInverse(t *testing.T) {
	txs := []ledger.Transaction{
		{Amount: d("200"), Posting: ledger.Expense{AccountID: "cash"}},
		{Amount: d("0.01"), Posting: ledger.Income{AccountID: "card"}},
		{Amount: d("999.99"), Posting: ledger.Transfer{FromAccountID: "bank", ToAccountID: "card"}},
		{Amount: d("7"), Posting: ledger.Expense{AccountID: "missing"}},
	}

	for _, tx := range txs {
		start := accounts()
		round := ledger.ApplyEffect(ledger.ApplyEffect(start, tx, ledger.Apply), tx, ledger.Reverse)
		assert.Equal(t, balances(start), balances(round))
	}
}

func TestApplyEffect_TransferConservesTotal(t *testing.T) {
	total := func(accs []ledger.Account) decimal.Decimal {
		sum := decimal.Zero
		for _, a := range accs {
			sum = sum.Add(a.Balance)
		}
		return sum
	}

	start := accounts()
	tx := ledger.Transaction{Amount: d("123.45"), Posting: ledger.Transfer{FromAccountID: "cash", ToAccountID: "card"}}
	after := ledger.ApplyEffect(start, tx, ledger.Apply)

	assert.True(t, total(start).Equal(total(after)))
	assert.Equal(t, "376.55", balances(after)["cash"])
	assert.Equal(t, "103.45", balances(after)["card"])
}

func TestApplyEffect_SameAccountTransferNetsZero(t *testing.T) {
	tx := ledger.Transaction{Amount: d("50"), Posting: ledger.Transfer{FromAccountID: "cash", ToAccountID: "cash"}}
	got := ledger.ApplyEffect(accounts(), tx, ledger.Apply)
	assert.Equal(t, "500", balances(got)["cash"])
}
