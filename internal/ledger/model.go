package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/wizmoney/pkg/money"
)

const (
	// DateLayout is the calendar date format of Transaction.Date.
	DateLayout = "2006-01-02"
	// TimeLayout is the clock format of Transaction.Time.
	TimeLayout = "15:04"

	// TransferCategory is forced on every transfer.
	TransferCategory = "transfer"
)

// TransactionType represents the kind of money movement
type TransactionType string

const (
	TxTypeExpense  TransactionType = "expense"
	TxTypeIncome   TransactionType = "income"
	TxTypeTransfer TransactionType = "transfer"
)

// IsValid checks if the transaction type is one of the known kinds
func (t TransactionType) IsValid() bool {
	switch t {
	case TxTypeExpense, TxTypeIncome, TxTypeTransfer:
		return true
	}
	return false
}

// Label returns the display label of the type
func (t TransactionType) Label() string {
	switch t {
	case TxTypeExpense:
		return "Expense"
	case TxTypeIncome:
		return "Income"
	case TxTypeTransfer:
		return "Transfer"
	}
	return string(t)
}

// Posting describes which accounts a transaction moves money through.
// Exactly three implementations exist: Expense, Income and Transfer.
type Posting interface {
	Type() TransactionType
	// AccountIDs returns every account the posting references.
	AccountIDs() []string
	posting()
}

// Expense takes money out of one account.
type Expense struct {
	AccountID string
}

// Income puts money into one account.
type Income struct {
	AccountID string
}

// Transfer moves money between two accounts.
type Transfer struct {
	FromAccountID string
	ToAccountID   string
}

func (Expense) Type() TransactionType  { return TxTypeExpense }
func (Income) Type() TransactionType   { return TxTypeIncome }
func (Transfer) Type() TransactionType { return TxTypeTransfer }

func (p Expense) AccountIDs() []string  { return []string{p.AccountID} }
func (p Income) AccountIDs() []string   { return []string{p.AccountID} }
func (p Transfer) AccountIDs() []string { return []string{p.FromAccountID, p.ToAccountID} }

func (Expense) posting()  {}
func (Income) posting()   {}
func (Transfer) posting() {}

// NewPosting builds the posting for a type from the flat account fields.
func NewPosting(t TransactionType, accountID, fromAccountID, toAccountID string) (Posting, error) {
	switch t {
	case TxTypeExpense:
		return Expense{AccountID: accountID}, nil
	case TxTypeIncome:
		return Income{AccountID: accountID}, nil
	case TxTypeTransfer:
		return Transfer{FromAccountID: fromAccountID, ToAccountID: toAccountID}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTransactionType, t)
}

// Transaction is a single recorded money movement
type Transaction struct {
	ID       string
	Date     string
	Time     string
	Amount   decimal.Decimal
	Category string
	Note     string
	Tags     []string
	Posting  Posting
}

// Type returns the transaction type derived from its posting
func (t Transaction) Type() TransactionType {
	if t.Posting == nil {
		return ""
	}
	return t.Posting.Type()
}

// References reports whether the transaction touches accountID
func (t Transaction) References(accountID string) bool {
	if t.Posting == nil || accountID == "" {
		return false
	}
	for _, id := range t.Posting.AccountIDs() {
		if id == accountID {
			return true
		}
	}
	return false
}

// HasTag reports whether tag is in the transaction's tag set
func (t Transaction) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with t
func (t Transaction) Clone() Transaction {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}

// Normalize trims text fields, deduplicates tags and forces the transfer
// category. It never fails; Validate reports what is still wrong.
func (t Transaction) Normalize() Transaction {
	t.ID = strings.TrimSpace(t.ID)
	t.Date = strings.TrimSpace(t.Date)
	t.Time = strings.TrimSpace(t.Time)
	t.Category = strings.TrimSpace(t.Category)
	t.Note = strings.TrimSpace(t.Note)
	t.Tags = normalizeTags(t.Tags)

	switch p := t.Posting.(type) {
	case Expense:
		p.AccountID = strings.TrimSpace(p.AccountID)
		t.Posting = p
	case Income:
		p.AccountID = strings.TrimSpace(p.AccountID)
		t.Posting = p
	case Transfer:
		p.FromAccountID = strings.TrimSpace(p.FromAccountID)
		p.ToAccountID = strings.TrimSpace(p.ToAccountID)
		t.Posting = p
		t.Category = TransferCategory
	}
	return t
}

// Validate checks the structural invariants of a transaction
func (t Transaction) Validate() error {
	if t.Posting == nil {
		return ErrInvalidTransactionType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	switch p := t.Posting.(type) {
	case Expense:
		if p.AccountID == "" {
			return ErrMissingAccount
		}
	case Income:
		if p.AccountID == "" {
			return ErrMissingAccount
		}
	case Transfer:
		if p.FromAccountID == "" || p.ToAccountID == "" {
			return ErrMissingAccount
		}
		if p.FromAccountID == p.ToAccountID {
			return ErrSameAccountTransfer
		}
	}

	if t.Type() != TxTypeTransfer && t.Category == "" {
		return ErrMissingCategory
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	if t.Time != "" {
		if _, err := time.Parse(TimeLayout, t.Time); err != nil {
			return ErrInvalidTime
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// looseID decodes an id stored either as a JSON string or as a JSON number.
// Older data uses millisecond timestamps as numeric ids.
type looseID string

// UnmarshalJSON implements json.Unmarshaler
func (id *looseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = looseID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid id %s", data)
		}
		*id = looseID(n.String())
	}
	return nil
}

// transactionJSON is the flat wire form shared with previously stored data.
type transactionJSON struct {
	ID            looseID         `json:"id,omitempty"`
	Type          TransactionType `json:"type"`
	Date          string          `json:"date"`
	Time          string          `json:"time,omitempty"`
	Amount        json.RawMessage `json:"amount"`
	Category      string          `json:"category,omitempty"`
	Note          string          `json:"note,omitempty"`
	Tags          []string        `json:"tags"`
	AccountID     looseID         `json:"accountId,omitempty"`
	FromAccountID looseID         `json:"fromAccountId,omitempty"`
	ToAccountID   looseID         `json:"toAccountId,omitempty"`
}

// MarshalJSON encodes the transaction in its flat wire form
func (t Transaction) MarshalJSON() ([]byte, error) {
	amount, err := json.Marshal(t.Amount)
	if err != nil {
		return nil, err
	}
	wire := transactionJSON{
		ID:       looseID(t.ID),
		Type:     t.Type(),
		Date:     t.Date,
		Time:     t.Time,
		Amount:   amount,
		Category: t.Category,
		Note:     t.Note,
		Tags:     t.Tags,
	}
	if wire.Tags == nil {
		wire.Tags = []string{}
	}
	switch p := t.Posting.(type) {
	case Expense:
		wire.AccountID = looseID(p.AccountID)
	case Income:
		wire.AccountID = looseID(p.AccountID)
	case Transfer:
		wire.FromAccountID = looseID(p.FromAccountID)
		wire.ToAccountID = looseID(p.ToAccountID)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the flat wire form. Unknown types and unparseable
// amounts decode to a nil posting and a zero amount so Validate can reject
// the record instead of failing a whole batch.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var wire transactionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	posting, err := NewPosting(wire.Type, string(wire.AccountID), string(wire.FromAccountID), string(wire.ToAccountID))
	if err != nil {
		posting = nil
	}

	*t = Transaction{
		ID:       string(wire.ID),
		Date:     wire.Date,
		Time:     wire.Time,
		Amount:   decodeAmount(wire.Amount),
		Category: wire.Category,
		Note:     wire.Note,
		Tags:     wire.Tags,
		Posting:  posting,
	}
	return nil
}

func decodeAmount(raw json.RawMessage) decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero
		}
	} else {
		text = string(raw)
	}
	amount, err := money.ParseAmount(text)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// AccountType represents the kind of account
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
)

// IsKnown reports whether the type is one of the built-in kinds. Other
// values are stored as given.
func (t AccountType) IsKnown() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCredit, AccountTypeInvestment:
		return true
	}
	return false
}

// Account holds money in a single currency
type Account struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     AccountType     `json:"type"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Color    string          `json:"color,omitempty"`
}

// UnmarshalJSON accepts numeric account ids from older data
func (a *Account) UnmarshalJSON(data []byte) error {
	type plain Account
	var wire struct {
		plain
		ID looseID `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = Account(wire.plain)
	a.ID = string(wire.ID)
	return nil
}

// AccountPatch carries the editable account fields. Nil fields are left
// unchanged; the balance is not editable.
type AccountPatch struct {
	Name     *string      `json:"name,omitempty"`
	Type     *AccountType `json:"type,omitempty"`
	Currency *string      `json:"currency,omitempty"`
	Color    *string      `json:"color,omitempty"`
}

// Template is a named set of draft fields used to prefill new transactions
type Template struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Transaction Transaction `json:"transaction"`
}

// UnmarshalJSON decodes a template. Older data stores the draft fields flat
// next to id and name instead of under "transaction".
func (t *Template) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          looseID         `json:"id"`
		Name        string          `json:"name"`
		Transaction json.RawMessage `json:"transaction"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	draft := wire.Transaction
	if len(bytes.TrimSpace(draft)) == 0 || bytes.Equal(bytes.TrimSpace(draft), []byte("null")) {
		draft = data
	}
	var tx Transaction
	if err := json.Unmarshal(draft, &tx); err != nil {
		return err
	}
	tx.ID = ""

	*t = Template{ID: string(wire.ID), Name: wire.Name, Transaction: tx}
	return nil
}

// DefaultTemplateName is used when neither a name nor a note is given
const DefaultTemplateName = "Untitled template"

// sortedTags returns the distinct tags of txs in lexical order
func sortedTags(txs []Transaction) []string {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		for _, tag := range tx.Tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
