package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

func seededStore() *ledger.TransactionStore {
	store := ledger.NewTransactionStore(nil, &ledger.SequenceGenerator{Prefix: "tx-"})
	store.Add(ledger.Transaction{Date: "2024-01-05", Amount: d("1000"), Category: "salary", Note: "January pay", Tags: []string{"work"}, Posting: ledger.Income{AccountID: "bank"}})
	store.Add(ledger.Transaction{Date: "2024-01-06", Amount: d("85.5"), Category: "food", Note: "Dinner", Tags: []string{"trip", "food"}, Posting: ledger.Expense{AccountID: "cash"}})
	store.Add(ledger.Transaction{Date: "2024-01-07", Amount: d("300"), Category: ledger.TransferCategory, Posting: ledger.Transfer{FromAccountID: "bank", ToAccountID: "cash"}})
	return store
}

func ids(txs []ledger.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestTransactionStore_AddPrependsAndAssignsIDs(t *testing.T) {
	store := seededStore()

	assert.Equal(t, []string{"tx-3", "tx-2", "tx-1"}, ids(store.All()))
	assert.Equal(t, 3, store.Len())

	kept := store.Add(ledger.Transaction{ID: "given", Amount: d("1"), Posting: ledger.Income{AccountID: "bank"}})
	assert.Equal(t, "given", kept.ID)
	assert.Equal(t, "given", store.All()[0].ID)
}

func TestTransactionStore_UpdateAndRemove(t *testing.T) {
	store := seededStore()

	ok := store.Update("tx-2", ledger.Transaction{Amount: d("90"), Category: "food", Posting: ledger.Expense{AccountID: "cash"}})
	require.True(t, ok)
	got, found := store.Get("tx-2")
	require.True(t, found)
	assert.Equal(t, "90", got.Amount.String())
	assert.Equal(t, []string{"tx-3", "tx-2", "tx-1"}, ids(store.All()), "update keeps position")

	assert.False(t, store.Update("nope", ledger.Transaction{}))

	removed, ok := store.Remove("tx-3")
	require.True(t, ok)
	assert.Equal(t, "tx-3", removed.ID)
	assert.Equal(t, []string{"tx-2", "tx-1"}, ids(store.All()))

	_, ok = store.Remove("tx-3")
	assert.False(t, ok)
}

func TestTransactionStore_Filter(t *testing.T) {
	store := seededStore()

	tests := []struct {
		name   string
		filter ledger.Filter
		want   []string
	}{
		{name: "everything", filter: ledger.Filter{}, want: []string{"tx-3", "tx-2", "tx-1"}},
		{name: "all type", filter: ledger.Filter{Type: "all"}, want: []string{"tx-3", "tx-2", "tx-1"}},
		{name: "exact type", filter: ledger.Filter{Type: ledger.TxTypeExpense}, want: []string{"tx-2"}},
		{name: "tag", filter: ledger.Filter{Tag: "trip"}, want: []string{"tx-2"}},
		{name: "account on either side", filter: ledger.Filter{AccountID: "cash"}, want: []string{"tx-3", "tx-2"}},
		{name: "query note case-insensitive", filter: ledger.Filter{Query: "DINNER"}, want: []string{"tx-2"}},
		{name: "query category", filter: ledger.Filter{Query: "sal"}, want: []string{"tx-1"}},
		{name: "query amount substring", filter: ledger.Filter{Query: "85.5"}, want: []string{"tx-2"}},
		{name: "predicates are ANDed", filter: ledger.Filter{AccountID: "bank", Type: ledger.TxTypeIncome, Tag: "work"}, want: []string{"tx-1"}},
		{name: "no match", filter: ledger.Filter{Tag: "work", Query: "dinner"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(store.Filter(tt.filter)))
		})
	}
}

func TestTransactionStore_Tags(t *testing.T) {
	assert.Equal(t, []string{"food", "trip", "work"}, seededStore().Tags())
}

func TestTransactionStore_ReturnsCopies(t *testing.T) {
	store := seededStore()
	all := store.All()
	all[1].Tags[0] = "mutated"

	got, _ := store.Get("tx-2")
	assert.Equal(t, []string{"trip", "food"}, got.Tags)
}
