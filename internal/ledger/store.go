package ledger

import (
	"strings"
)

// Filter selects transactions. Zero-valued fields match everything; set
// fields are ANDed together.
type Filter struct {
	// Type is an exact transaction type; "" or "all" matches every type.
	Type TransactionType
	// Tag must be one of the transaction's tags.
	Tag string
	// AccountID must be referenced by the posting on either side.
	AccountID string
	// Query is matched case-insensitively as a substring of the note, the
	// category or the amount's decimal string.
	Query string
}

// Match reports whether tx satisfies every set field of f
func (f Filter) Match(tx Transaction) bool {
	if f.Type != "" && f.Type != "all" && tx.Type() != f.Type {
		return false
	}
	if f.Tag != "" && !tx.HasTag(f.Tag) {
		return false
	}
	if f.AccountID != "" && !tx.References(f.AccountID) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(tx.Note), q) &&
			!strings.Contains(strings.ToLower(tx.Category), q) &&
			!strings.Contains(tx.Amount.String(), q) {
			return false
		}
	}
	return true
}

// TransactionStore keeps transactions newest first. It is not safe for
// concurrent use; Book serializes access to it.
type TransactionStore struct {
	txs []Transaction
	ids IDGenerator
}

// NewTransactionStore wraps txs, which must already be newest first
func NewTransactionStore(txs []Transaction, ids IDGenerator) *TransactionStore {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	s := &TransactionStore{ids: ids, txs: make([]Transaction, len(txs))}
	for i, tx := range txs {
		s.txs[i] = tx.Clone()
	}
	return s
}

// Add assigns an id when tx has none and prepends it
func (s *TransactionStore) Add(tx Transaction) Transaction {
	tx = tx.Clone()
	if tx.ID == "" {
		tx.ID = s.ids.NewID()
	}
	s.txs = append([]Transaction{tx}, s.txs...)
	return tx
}

// Update replaces the transaction with the given id in place
func (s *TransactionStore) Update(id string, tx Transaction) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	tx = tx.Clone()
	tx.ID = id
	s.txs[i] = tx
	return true
}

// Remove deletes the transaction with the given id
func (s *TransactionStore) Remove(id string) (Transaction, bool) {
	i := s.index(id)
	if i < 0 {
		return Transaction{}, false
	}
	removed := s.txs[i]
	s.txs = append(s.txs[:i:i], s.txs[i+1:]...)
	return removed, true
}

// Get returns a copy of the transaction with the given id
func (s *TransactionStore) Get(id string) (Transaction, bool) {
	i := s.index(id)
	if i < 0 {
		return Transaction{}, false
	}
	return s.txs[i].Clone(), true
}

// All returns a copy of every transaction, newest first
func (s *TransactionStore) All() []Transaction {
	return s.Filter(Filter{})
}

// Filter returns copies of the matching transactions, newest first
func (s *TransactionStore) Filter(f Filter) []Transaction {
	out := make([]Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if f.Match(tx) {
			out = append(out, tx.Clone())
		}
	}
	return out
}

// Tags returns the sorted set of tags used by any transaction
func (s *TransactionStore) Tags() []string {
	return sortedTags(s.txs)
}

// Len returns the number of stored transactions
func (s *TransactionStore) Len() int {
	return len(s.txs)
}

func (s *TransactionStore) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}
