package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/wizmoney/internal/platform/currency"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// Book is the in-memory ledger of one owner: accounts, the transaction log,
// templates and currency settings. Every public method runs under the book's
// mutex, so operations never interleave.
//
// Mutations follow the same steps:
// 1. Normalize and validate the input
// 2. Compute the new balances with ApplyEffect
// 3. Record the change in the transaction store
// 4. Hand the full snapshot to the Persister
//
// Validation errors are returned before anything changes. Persistence
// errors are logged and never returned; in-memory state stays authoritative.
type Book struct {
	mu sync.Mutex

	owner     string
	accounts  []Account
	store     *TransactionStore
	templates []Template
	settings  currency.Settings
	updatedAt time.Time
	version   uint64

	defaults  currency.Settings
	ids       IDGenerator
	persister Persister
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Book
type Option func(*Book)

// WithIDGenerator sets the id source for new records
func WithIDGenerator(ids IDGenerator) Option {
	return func(b *Book) { b.ids = ids }
}

// WithPersister sets the write-through target
func WithPersister(p Persister) Option {
	return func(b *Book) { b.persister = p }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(b *Book) { b.log = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// WithDefaultSettings sets the settings used for empty books, Reset and
// ResetRates
func WithDefaultSettings(s currency.Settings) Option {
	return func(b *Book) { b.defaults = s.Clone() }
}

// AddOptions controls template creation when adding a transaction
type AddOptions struct {
	SaveAsTemplate bool
	TemplateName   string
}

// Result carries the record a mutation touched and the slices it changed.
// Slices a mutation does not touch are nil.
type Result struct {
	Transaction  *Transaction
	Account      *Account
	Template     *Template
	Transactions []Transaction
	Accounts     []Account
	Templates    []Template
}

// ImportError describes a skipped import row
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport summarizes a bulk import
type ImportReport struct {
	Applied int           `json:"applied"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

// SettingsPatch changes the display currency and merges rates. Nil or empty
// fields are left unchanged.
type SettingsPatch struct {
	DisplayCurrency *string                    `json:"displayCurrency,omitempty"`
	Rates           map[string]decimal.Decimal `json:"rates,omitempty"`
}

// NewBook restores a book from snap. A snapshot without settings gets the
// default settings.
func NewBook(owner string, snap Snapshot, opts ...Option) *Book {
	b := &Book{
		owner:    owner,
		defaults: currency.DefaultSettings(),
		ids:      UUIDGenerator{},
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithComponent("ledger").WithField("owner", owner)

	snap = snap.Clone()
	b.accounts = snap.Accounts
	b.store = NewTransactionStore(snap.Transactions, b.ids)
	b.templates = snap.Templates
	b.settings = snap.Settings
	if b.settings.IsZero() {
		b.settings = b.defaults.Clone()
	}
	b.updatedAt = snap.UpdatedAt
	b.version = snap.Version
	return b
}

// Owner returns the identity the book belongs to
func (b *Book) Owner() string {
	return b.owner
}

// AddTransaction validates draft, applies its effect and records it newest
// first. Optionally a template is saved from the same fields.
func (b *Book) AddTransaction(ctx context.Context, draft Transaction, opts AddOptions) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.prepareNew(draft)
	if err != nil {
		return Result{}, fmt.Errorf("failed to add transaction: %w", err)
	}

	b.accounts = ApplyEffect(b.accounts, tx, Apply)
	tx = b.store.Add(tx)

	res := Result{Transaction: &tx}
	if opts.SaveAsTemplate {
		tpl := b.newTemplate(tx, opts.TemplateName)
		b.templates = append(b.templates, tpl)
		res.Template = &tpl
	}

	b.commit(ctx, "transaction added", "transaction_id", tx.ID)

	res.Transactions = b.store.All()
	res.Accounts = b.accountsCopy()
	res.Templates = b.templatesCopy()
	return res, nil
}

// UpdateTransaction replaces the stored transaction with the same id. The
// original record's effect is reversed before the new one is applied.
func (b *Book) UpdateTransaction(ctx context.Context, tx Transaction) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.store.Get(tx.ID)
	if !ok {
		return Result{}, fmt.Errorf("failed to update transaction %q: %w", tx.ID, ErrTransactionNotFound)
	}

	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return Result{}, fmt.Errorf("failed to update transaction: %w", err)
	}
	// References kept from the original record may point at deleted accounts.
	for _, id := range tx.Posting.AccountIDs() {
		if !old.References(id) && !b.hasAccount(id) {
			return Result{}, fmt.Errorf("failed to update transaction: %w: %q", ErrAccountNotFound, id)
		}
	}

	accounts := ApplyEffect(b.accounts, old, Reverse)
	b.accounts = ApplyEffect(accounts, tx, Apply)
	b.store.Update(old.ID, tx)
	updated, _ := b.store.Get(old.ID)

	b.commit(ctx, "transaction updated", "transaction_id", updated.ID)

	return Result{
		Transaction:  &updated,
		Transactions: b.store.All(),
		Accounts:     b.accountsCopy(),
	}, nil
}

// DeleteTransaction reverses and removes a transaction
func (b *Book) DeleteTransaction(ctx context.Context, id string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed, ok := b.store.Remove(id)
	if !ok {
		return Result{}, fmt.Errorf("failed to delete transaction %q: %w", id, ErrTransactionNotFound)
	}
	b.accounts = ApplyEffect(b.accounts, removed, Reverse)

	b.commit(ctx, "transaction deleted", "transaction_id", id)

	return Result{
		Transaction:  &removed,
		Transactions: b.store.All(),
		Accounts:     b.accountsCopy(),
	}, nil
}

// Import applies drafts in order. Invalid drafts are skipped and reported;
// the book is persisted once at the end when anything was applied.
func (b *Book) Import(ctx context.Context, drafts []Transaction) ImportReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := ImportReport{Errors: []ImportError{}}
	for i, draft := range drafts {
		tx, err := b.prepareNew(draft)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Row: i + 1, Error: err.Error()})
			continue
		}
		b.accounts = ApplyEffect(b.accounts, tx, Apply)
		b.store.Add(tx)
		report.Applied++
	}

	if report.Applied > 0 {
		b.commit(ctx, "transactions imported", "applied", report.Applied, "skipped", report.Skipped)
	}
	return report
}

// AddAccount creates an account with the draft's initial balance
func (b *Book) AddAccount(ctx context.Context, draft Account) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc := Account{
		ID:       b.ids.NewID(),
		Name:     strings.TrimSpace(draft.Name),
		Type:     AccountType(strings.TrimSpace(string(draft.Type))),
		Currency: currency.NormalizeCode(draft.Currency),
		Balance:  draft.Balance,
		Color:    strings.TrimSpace(draft.Color),
	}
	if acc.Name == "" {
		return Result{}, fmt.Errorf("failed to add account: %w", ErrMissingAccountName)
	}
	if acc.Type == "" {
		acc.Type = AccountTypeCash
	}
	if acc.Currency == "" {
		acc.Currency = b.settings.Display()
	}
	if !currency.ValidCode(acc.Currency) {
		return Result{}, fmt.Errorf("failed to add account: %w: %q", ErrInvalidCurrency, acc.Currency)
	}

	b.accounts = append(b.accounts, acc)
	b.commit(ctx, "account added", "account_id", acc.ID)

	return Result{Account: &acc, Accounts: b.accountsCopy()}, nil
}

// UpdateAccount applies patch to an account. The balance is never changed.
func (b *Book) UpdateAccount(ctx context.Context, id string, patch AccountPatch) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.accountIndex(id)
	if i < 0 {
		return Result{}, fmt.Errorf("failed to update account %q: %w", id, ErrAccountNotFound)
	}

	acc := b.accounts[i]
	if patch.Name != nil {
		acc.Name = strings.TrimSpace(*patch.Name)
		if acc.Name == "" {
			return Result{}, fmt.Errorf("failed to update account: %w", ErrMissingAccountName)
		}
	}
	if patch.Type != nil && *patch.Type != "" {
		acc.Type = *patch.Type
	}
	if patch.Currency != nil {
		code := currency.NormalizeCode(*patch.Currency)
		if !currency.ValidCode(code) {
			return Result{}, fmt.Errorf("failed to update account: %w: %q", ErrInvalidCurrency, code)
		}
		acc.Currency = code
	}
	if patch.Color != nil {
		acc.Color = strings.TrimSpace(*patch.Color)
	}

	b.accounts = b.accountsCopy()
	b.accounts[i] = acc
	b.commit(ctx, "account updated", "account_id", id)

	return Result{Account: &acc, Accounts: b.accountsCopy()}, nil
}

// DeleteAccount removes an account. Transactions referencing it are kept
// and become orphans.
func (b *Book) DeleteAccount(ctx context.Context, id string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.accountIndex(id)
	if i < 0 {
		return Result{}, fmt.Errorf("failed to delete account %q: %w", id, ErrAccountNotFound)
	}

	removed := b.accounts[i]
	accounts := make([]Account, 0, len(b.accounts)-1)
	accounts = append(accounts, b.accounts[:i]...)
	b.accounts = append(accounts, b.accounts[i+1:]...)

	b.commit(ctx, "account deleted", "account_id", id)

	return Result{Account: &removed, Accounts: b.accountsCopy()}, nil
}

// DeleteTemplate removes a template
func (b *Book) DeleteTemplate(ctx context.Context, id string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := -1
	for j := range b.templates {
		if b.templates[j].ID == id {
			i = j
			break
		}
	}
	if i < 0 {
		return Result{}, fmt.Errorf("failed to delete template %q: %w", id, ErrTemplateNotFound)
	}

	removed := b.templates[i]
	templates := make([]Template, 0, len(b.templates)-1)
	templates = append(templates, b.templates[:i]...)
	b.templates = append(templates, b.templates[i+1:]...)

	b.commit(ctx, "template deleted", "template_id", id)

	return Result{Template: &removed, Templates: b.templatesCopy()}, nil
}

// ReplaceState overwrites the parts of the book present in patch. Balances
// are taken as given and nothing is re-applied. The version advances but
// nothing is persisted; callers follow up with Flush.
func (b *Book) ReplaceState(patch StatePatch) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	if patch.Transactions != nil {
		b.store = NewTransactionStore(*patch.Transactions, b.ids)
	}
	if patch.Accounts != nil {
		b.accounts = append([]Account{}, (*patch.Accounts)...)
	}
	if patch.Templates != nil {
		b.templates = append([]Template{}, (*patch.Templates)...)
	}
	if patch.Rates != nil {
		b.settings.Rates = patch.Rates.Clone()
	}
	if patch.DisplayCurrency != nil {
		if code := currency.NormalizeCode(*patch.DisplayCurrency); code != "" {
			b.settings.DisplayCurrency = code
		}
	}
	b.updatedAt = b.now().UTC()
	b.version++

	b.log.Debug("state replaced", "version", b.version)
	return b.snapshotLocked()
}

// Restore adopts a snapshot produced by another instance. It refuses
// snapshots older than the book's current version and persists nothing.
func (b *Book) Restore(snap Snapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if snap.Version < b.version {
		b.log.Debug("stale snapshot refused", "version", snap.Version, "current", b.version)
		return false
	}

	snap = snap.Clone()
	b.accounts = snap.Accounts
	b.store = NewTransactionStore(snap.Transactions, b.ids)
	b.templates = snap.Templates
	if !snap.Settings.IsZero() {
		b.settings = snap.Settings
	}
	b.updatedAt = snap.UpdatedAt
	b.version = snap.Version

	b.log.Debug("state restored", "version", b.version, "origin", snap.Origin)
	return true
}

// Version returns the number of the last committed change
func (b *Book) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Flush persists the current snapshot and returns the persister's error
func (b *Book) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.persister == nil {
		return nil
	}
	return b.persister.Persist(ctx, b.snapshotLocked())
}

// Reset clears every transaction, account and template and restores the
// default settings
func (b *Book) Reset(ctx context.Context) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.accounts = []Account{}
	b.store = NewTransactionStore(nil, b.ids)
	b.templates = []Template{}
	b.settings = b.defaults.Clone()

	b.commit(ctx, "book reset")
	return b.snapshotLocked()
}

// SetDisplayCurrency changes the currency reports are expressed in
func (b *Book) SetDisplayCurrency(ctx context.Context, code string) (currency.Settings, error) {
	return b.UpdateSettings(ctx, SettingsPatch{DisplayCurrency: &code})
}

// SetRate sets the rate of one currency against the base
func (b *Book) SetRate(ctx context.Context, code string, rate decimal.Decimal) (currency.Settings, error) {
	return b.UpdateSettings(ctx, SettingsPatch{Rates: map[string]decimal.Decimal{code: rate}})
}

// UpdateSettings applies patch atomically: either every change is valid
// and applied, or nothing changes
func (b *Book) UpdateSettings(ctx context.Context, patch SettingsPatch) (currency.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.settings.Clone()
	if patch.DisplayCurrency != nil {
		code := currency.NormalizeCode(*patch.DisplayCurrency)
		if !currency.ValidCode(code) {
			return currency.Settings{}, fmt.Errorf("failed to update settings: %w: %q", ErrInvalidCurrency, code)
		}
		next.DisplayCurrency = code
	}
	for code, rate := range patch.Rates {
		rates, err := next.Rates.With(code, rate)
		if err != nil {
			return currency.Settings{}, fmt.Errorf("failed to update settings: %w", err)
		}
		next.Rates = rates
	}

	b.settings = next
	b.commit(ctx, "settings updated", "display_currency", next.Display())
	return b.settings.Clone(), nil
}

// ResetRates restores the default rate table, keeping the display currency
func (b *Book) ResetRates(ctx context.Context) currency.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.settings.Rates = b.defaults.Rates.Clone()
	b.commit(ctx, "rates reset")
	return b.settings.Clone()
}

// Snapshot returns a deep copy of the book
func (b *Book) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Settings returns a copy of the currency settings
func (b *Book) Settings() currency.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings.Clone()
}

// Accounts returns a copy of every account
func (b *Book) Accounts() []Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accountsCopy()
}

// Account returns one account
func (b *Book) Account(id string) (Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.accountIndex(id)
	if i < 0 {
		return Account{}, fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
	}
	return b.accounts[i], nil
}

// Transaction returns one transaction
func (b *Book) Transaction(id string) (Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, ok := b.store.Get(id)
	if !ok {
		return Transaction{}, fmt.Errorf("transaction %q: %w", id, ErrTransactionNotFound)
	}
	return tx, nil
}

// Transactions returns the matching transactions, newest first. An
// account-scoped filter on an account that no longer exists matches
// nothing, so orphans never show up in per-account views.
func (b *Book) Transactions(f Filter) []Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f.AccountID != "" && !b.hasAccount(f.AccountID) {
		return []Transaction{}
	}
	return b.store.Filter(f)
}

// Templates returns a copy of every template
func (b *Book) Templates() []Template {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.templatesCopy()
}

// Tags returns the sorted tag universe
func (b *Book) Tags() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Tags()
}

// prepareNew normalizes and validates a new transaction. Ids are always
// assigned by the store.
func (b *Book) prepareNew(draft Transaction) (Transaction, error) {
	tx := draft.Normalize()
	tx.ID = ""
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	for _, id := range tx.Posting.AccountIDs() {
		if !b.hasAccount(id) {
			return Transaction{}, fmt.Errorf("%w: %q", ErrAccountNotFound, id)
		}
	}
	return tx, nil
}

func (b *Book) newTemplate(tx Transaction, name string) Template {
	name = strings.TrimSpace(name)
	if name == "" {
		name = tx.Note
	}
	if name == "" {
		name = DefaultTemplateName
	}

	draft := tx.Clone()
	draft.ID = ""
	draft.Date = ""
	draft.Time = ""
	return Template{ID: b.ids.NewID(), Name: name, Transaction: draft}
}

// commit stamps the book and hands the snapshot to the persister. Must be
// called with the mutex held.
func (b *Book) commit(ctx context.Context, msg string, args ...any) {
	b.updatedAt = b.now().UTC()
	b.version++
	b.log.Debug(msg, append(args, "version", b.version)...)

	if b.persister == nil {
		return
	}
	if err := b.persister.Persist(ctx, b.snapshotLocked()); err != nil {
		b.log.WithError(err).Warn("failed to persist book", "after", msg)
	}
}

func (b *Book) snapshotLocked() Snapshot {
	return Snapshot{
		Owner:        b.owner,
		Transactions: b.store.All(),
		Accounts:     b.accountsCopy(),
		Templates:    b.templatesCopy(),
		Settings:     b.settings.Clone(),
		UpdatedAt:    b.updatedAt,
		Version:      b.version,
	}
}

func (b *Book) hasAccount(id string) bool {
	return b.accountIndex(id) >= 0
}

func (b *Book) accountIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range b.accounts {
		if b.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) accountsCopy() []Account {
	out := make([]Account, len(b.accounts))
	copy(out, b.accounts)
	return out
}

func (b *Book) templatesCopy() []Template {
	out := make([]Template, len(b.templates))
	for i, tpl := range b.templates {
		tpl.Transaction = tpl.Transaction.Clone()
		out[i] = tpl
	}
	return out
}
