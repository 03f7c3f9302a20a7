package ledger

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/kislikjeka/wizmoney/internal/platform/currency"
)

// Snapshot is the complete persisted state of one book. Version grows by one
// with every committed change; Origin names the instance that produced it.
type Snapshot struct {
	Owner        string            `json:"owner"`
	Transactions []Transaction     `json:"transactions"`
	Accounts     []Account         `json:"accounts"`
	Templates    []Template        `json:"templates"`
	Settings     currency.Settings `json:"settings"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Version      uint64            `json:"version,omitempty"`
	Origin       string            `json:"origin,omitempty"`
}

// EmptySnapshot returns a snapshot with no records and the given settings
func EmptySnapshot(owner string, settings currency.Settings) Snapshot {
	return Snapshot{
		Owner:        owner,
		Transactions: []Transaction{},
		Accounts:     []Account{},
		Templates:    []Template{},
		Settings:     settings.Clone(),
	}
}

// Clone returns a deep copy
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Owner:        s.Owner,
		Transactions: make([]Transaction, len(s.Transactions)),
		Accounts:     make([]Account, len(s.Accounts)),
		Templates:    make([]Template, len(s.Templates)),
		Settings:     s.Settings.Clone(),
		UpdatedAt:    s.UpdatedAt,
		Version:      s.Version,
		Origin:       s.Origin,
	}
	for i, tx := range s.Transactions {
		out.Transactions[i] = tx.Clone()
	}
	copy(out.Accounts, s.Accounts)
	for i, tpl := range s.Templates {
		tpl.Transaction = tpl.Transaction.Clone()
		out.Templates[i] = tpl
	}
	return out
}

// Account looks up an account by id
func (s Snapshot) Account(id string) (Account, bool) {
	for _, acc := range s.Accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return Account{}, false
}

// Digest returns a hex sha3-256 of the snapshot content. UpdatedAt, Version
// and Origin are excluded so equal content always yields the same digest.
func (s Snapshot) Digest() string {
	s.UpdatedAt = time.Time{}
	s.Version = 0
	s.Origin = ""
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StatePatch replaces parts of a book wholesale. Nil fields are left unchanged.
type StatePatch struct {
	Transactions    *[]Transaction  `json:"transactions,omitempty"`
	Accounts        *[]Account      `json:"accounts,omitempty"`
	Templates       *[]Template     `json:"templates,omitempty"`
	Rates           *currency.Rates `json:"rates,omitempty"`
	DisplayCurrency *string         `json:"displayCurrency,omitempty"`
}

// NewerThan reports whether s supersedes a snapshot at version with origin.
// Equal versions from different instances are ordered by origin so every
// instance settles on the same state.
func (s Snapshot) NewerThan(version uint64, origin string) bool {
	if s.Version != version {
		return s.Version > version
	}
	return s.Origin > origin
}
