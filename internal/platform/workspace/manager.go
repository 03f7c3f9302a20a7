// Package workspace owns the open books of the process, one per user.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/platform/currency"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// ErrMissingOwner is returned when a book is requested without a user id
var ErrMissingOwner = errors.New("owner is required")

// Loader restores the last known snapshot of a user
type Loader interface {
	Load(ctx context.Context, owner string) (ledger.Snapshot, error)
}

// Manager lazily opens books and keeps them in memory
type Manager struct {
	mu    sync.Mutex
	books map[string]*ledger.Book

	loader    Loader
	persister ledger.Persister
	defaults  currency.Settings
	ids       ledger.IDGenerator
	logger    *logger.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithLoader sets where books are restored from
func WithLoader(l Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithPersister sets the write-through target handed to every book
func WithPersister(p ledger.Persister) Option {
	return func(m *Manager) { m.persister = p }
}

// WithDefaultSettings sets the settings of new and reset books
func WithDefaultSettings(s currency.Settings) Option {
	return func(m *Manager) { m.defaults = s.Clone() }
}

// WithIDGenerator sets the id source of every book
func WithIDGenerator(ids ledger.IDGenerator) Option {
	return func(m *Manager) { m.ids = ids }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates an empty workspace
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		books:    make(map[string]*ledger.Book),
		defaults: currency.DefaultSettings(),
		ids:      ledger.UUIDGenerator{},
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithComponent("workspace")
	return m
}

// Open returns the book of owner, restoring it on first use. A user with
// no stored snapshot gets an empty book with the default settings.
func (m *Manager) Open(ctx context.Context, owner string) (*ledger.Book, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if book, ok := m.books[owner]; ok {
		return book, nil
	}

	snap, err := m.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	opts := []ledger.Option{
		ledger.WithIDGenerator(m.ids),
		ledger.WithLogger(m.logger),
		ledger.WithDefaultSettings(m.defaults),
	}
	if m.persister != nil {
		opts = append(opts, ledger.WithPersister(m.persister))
	}

	book := ledger.NewBook(owner, snap, opts...)
	m.books[owner] = book

	m.logger.Info("book opened", "owner", owner,
		"version", snap.Version,
		"transactions", len(snap.Transactions),
		"accounts", len(snap.Accounts))
	return book, nil
}

func (m *Manager) load(ctx context.Context, owner string) (ledger.Snapshot, error) {
	if m.loader == nil {
		return ledger.EmptySnapshot(owner, m.defaults), nil
	}

	snap, err := m.loader.Load(ctx, owner)
	switch {
	case err == nil:
		return snap, nil
	case errors.Is(err, ledger.ErrSnapshotNotFound):
		return ledger.EmptySnapshot(owner, m.defaults), nil
	default:
		return ledger.Snapshot{}, fmt.Errorf("failed to load book: %w", err)
	}
}

// Replace overwrites the open book of snap.Owner with snap. It reports false
// when that book is not open, in which case it is restored from storage on
// next use, or when the book already moved past snap.
func (m *Manager) Replace(snap ledger.Snapshot) bool {
	m.mu.Lock()
	book, ok := m.books[snap.Owner]
	m.mu.Unlock()
	if !ok {
		return false
	}
	if !book.Restore(snap) {
		m.logger.Debug("pushed snapshot is older than open book",
			"owner", snap.Owner, "version", snap.Version, "current", book.Version())
		return false
	}
	return true
}

// Owners lists the users with an open book
func (m *Manager) Owners() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	owners := make([]string, 0, len(m.books))
	for owner := range m.books {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

// Close flushes every open book. Failures are joined.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	books := make([]*ledger.Book, 0, len(m.books))
	for _, book := range m.books {
		books = append(books, book)
	}
	m.mu.Unlock()

	var errs []error
	for _, book := range books {
		if err := book.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", book.Owner(), err))
		}
	}
	return errors.Join(errs...)
}
