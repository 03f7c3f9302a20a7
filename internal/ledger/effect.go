package ledger

import "github.com/shopspring/decimal"

// Multiplier selects whether ApplyEffect applies or reverses a transaction
type Multiplier int

const (
	Apply   Multiplier = 1
	Reverse Multiplier = -1
)

func (m Multiplier) decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// ApplyEffect returns a copy of accounts with tx's balance effect applied
// m times. An expense debits its account, an income credits it and a
// transfer moves the amount from one account to the other in one pass.
// Accounts the transaction does not reference keep their balance; unknown
// account ids are skipped.
//
// Edits reverse the original record and apply the new one; deletes reverse.
func ApplyEffect(accounts []Account, tx Transaction, m Multiplier) []Account {
	out := make([]Account, len(accounts))
	copy(out, accounts)

	deltas := effectDeltas(tx, m)
	if len(deltas) == 0 {
		return out
	}
	for i := range out {
		if delta, ok := deltas[out[i].ID]; ok {
			out[i].Balance = out[i].Balance.Add(delta)
		}
	}
	return out
}

// effectDeltas maps account id to the signed balance change of tx.
func effectDeltas(tx Transaction, m Multiplier) map[string]decimal.Decimal {
	amount := tx.Amount.Mul(m.decimal())

	switch p := tx.Posting.(type) {
	case Expense:
		return map[string]decimal.Decimal{p.AccountID: amount.Neg()}
	case Income:
		return map[string]decimal.Decimal{p.AccountID: amount}
	case Transfer:
		deltas := map[string]decimal.Decimal{p.FromAccountID: amount.Neg()}
		deltas[p.ToAccountID] = deltas[p.ToAccountID].Add(amount)
		return deltas
	}
	return nil
}
