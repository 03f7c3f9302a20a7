package sync_test

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/platform/currency"
	pkgsync "github.com/kislikjeka/wizmoney/internal/platform/sync"
)

// =============================================================================
// Mock Snapshot Store
// =============================================================================

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context, owner string) (ledger.Snapshot, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(ledger.Snapshot), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

var _ ledger.SnapshotStore = (*MockSnapshotStore)(nil)

// =============================================================================
// Mock Publisher
// =============================================================================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, snap ledger.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

var _ pkgsync.Publisher = (*MockPublisher)(nil)

// =============================================================================
// Fakes
// =============================================================================

// memStore is an in-memory snapshot store
type memStore struct {
	mu    sync.Mutex
	snaps map[string]ledger.Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]ledger.Snapshot)}
}

func (s *memStore) Load(_ context.Context, owner string) (ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[owner]
	if !ok {
		return ledger.Snapshot{}, ledger.ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

func (s *memStore) Save(_ context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Owner] = snap.Clone()
	return nil
}

func (s *memStore) Owners() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make([]string, 0, len(s.snaps))
	for owner := range s.snaps {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

var _ pkgsync.OwnerLister = (*memStore)(nil)

// capturePublisher records every published snapshot. When gate is set each
// Publish waits for it to be closed first.
type capturePublisher struct {
	mu   sync.Mutex
	sent []ledger.Snapshot
	gate chan struct{}
}

func (p *capturePublisher) Publish(ctx context.Context, snap ledger.Snapshot) error {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, snap.Clone())
	return nil
}

func (p *capturePublisher) Sent() []ledger.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ledger.Snapshot(nil), p.sent...)
}

// chanSource hands out one channel per Subscribe call
type chanSource struct {
	mu    sync.Mutex
	calls int
	ch    chan ledger.Snapshot
	err   error
}

func (s *chanSource) Subscribe(_ context.Context) (<-chan ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

func (s *chanSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingReplacer remembers every replaced snapshot
type recordingReplacer struct {
	mu       sync.Mutex
	open     map[string]bool
	replaced []ledger.Snapshot
}

func (r *recordingReplacer) Replace(snap ledger.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open[snap.Owner] {
		return false
	}
	r.replaced = append(r.replaced, snap)
	return true
}

func (r *recordingReplacer) Replaced() []ledger.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Snapshot(nil), r.replaced...)
}

func sampleSnapshot(owner, accountName string) ledger.Snapshot {
	snap := ledger.EmptySnapshot(owner, currency.DefaultSettings())
	snap.Accounts = append(snap.Accounts, ledger.Account{ID: "a1", Name: accountName, Type: ledger.AccountTypeCash, Currency: "TWD"})
	return snap
}

// pushedSnapshot is a snapshot as another instance would publish it
func pushedSnapshot(owner, accountName, origin string, version uint64) ledger.Snapshot {
	snap := sampleSnapshot(owner, accountName)
	snap.Origin = origin
	snap.Version = version
	return snap
}
