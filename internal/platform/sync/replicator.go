// Package sync keeps books durable: writes go through to the local store,
// the optional remote store and the push channel, and pushes from other
// instances are folded back into open books.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// mark identifies the newest snapshot this instance knows for an owner
type mark struct {
	version uint64
	origin  string
}

// outbox holds the latest snapshot of an owner waiting to be shipped
type outbox struct {
	ctx     context.Context
	next    *ledger.Snapshot
	running bool
}

// Replicator writes every snapshot to the local store synchronously. The
// remote store and the push channel are fed from a per-owner outbox that
// keeps only the newest pending snapshot, so they never see versions out of
// order. Remote and push are optional.
type Replicator struct {
	config *Config
	local  ledger.SnapshotStore
	remote ledger.SnapshotStore
	push   Publisher
	logger *logger.Logger

	// mu serializes local writes so the local copy never moves backwards
	mu    sync.Mutex
	marks map[string]mark

	qmu    sync.Mutex
	queues map[string]*outbox
	active int
	idle   chan struct{}
}

// NewReplicator creates a replicator. remote and push may be nil.
func NewReplicator(config *Config, local, remote ledger.SnapshotStore, push Publisher, log *logger.Logger) *Replicator {
	if config == nil {
		config = DefaultConfig()
	}
	_ = config.Validate()
	if log == nil {
		log = logger.Discard()
	}

	idle := make(chan struct{})
	close(idle)

	return &Replicator{
		config: config,
		local:  local,
		remote: remote,
		push:   push,
		logger: log.WithField("service", "sync").WithField("instance", config.InstanceID),
		marks:  make(map[string]mark),
		queues: make(map[string]*outbox),
		idle:   idle,
	}
}

// InstanceID returns the origin stamped on every snapshot this replicator
// persists
func (r *Replicator) InstanceID() string {
	return r.config.InstanceID
}

// Persist implements ledger.Persister. The snapshot is stamped with this
// instance as origin and saved locally; only the local error is returned.
// Remote delivery happens in the background, see Drain.
func (r *Replicator) Persist(ctx context.Context, snap ledger.Snapshot) error {
	snap.Origin = r.config.InstanceID

	r.mu.Lock()
	r.marks[snap.Owner] = mark{version: snap.Version, origin: snap.Origin}
	err := r.local.Save(ctx, snap)
	r.mu.Unlock()

	if r.remote != nil || r.push != nil {
		r.enqueue(context.WithoutCancel(ctx), snap)
	}

	if err != nil {
		return fmt.Errorf("local save: %w", err)
	}
	return nil
}

// Load returns the newest known snapshot of owner: remote first, then
// local. A remote hit refreshes the local copy. Returns
// ledger.ErrSnapshotNotFound when neither store has one.
func (r *Replicator) Load(ctx context.Context, owner string) (ledger.Snapshot, error) {
	if r.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		snap, err := r.remote.Load(rctx, owner)
		cancel()

		switch {
		case err == nil:
			r.mu.Lock()
			if err := r.local.Save(ctx, snap); err != nil {
				r.logger.Warn("failed to refresh local snapshot", "owner", owner, "error", err)
			}
			r.marks[owner] = mark{version: snap.Version, origin: snap.Origin}
			r.mu.Unlock()
			return snap, nil
		case errors.Is(err, ledger.ErrSnapshotNotFound):
			r.logger.Debug("no remote snapshot", "owner", owner)
		default:
			r.logger.Warn("remote load failed, using local snapshot", "owner", owner, "error", err)
		}
	}

	snap, err := r.local.Load(ctx, owner)
	if err != nil {
		if errors.Is(err, ledger.ErrSnapshotNotFound) {
			return ledger.Snapshot{}, err
		}
		return ledger.Snapshot{}, fmt.Errorf("failed to load local snapshot: %w", err)
	}

	r.mu.Lock()
	r.marks[owner] = mark{version: snap.Version, origin: snap.Origin}
	r.mu.Unlock()
	return snap, nil
}

// Absorb records a pushed snapshot locally. It reports false for this
// instance's own publishes and for snapshots not newer than the last one
// seen for the owner.
func (r *Replicator) Absorb(ctx context.Context, snap ledger.Snapshot) (bool, error) {
	if snap.Origin == r.config.InstanceID {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.marks[snap.Owner]; ok && !snap.NewerThan(last.version, last.origin) {
		return false, nil
	}
	r.marks[snap.Owner] = mark{version: snap.Version, origin: snap.Origin}

	if err := r.local.Save(ctx, snap); err != nil {
		return true, fmt.Errorf("local save: %w", err)
	}
	return true, nil
}

// Reconcile uploads local snapshots that the remote store is missing or
// holds an older version of. It returns the number uploaded.
func (r *Replicator) Reconcile(ctx context.Context) (int, error) {
	if r.remote == nil {
		return 0, nil
	}
	lister, ok := r.local.(OwnerLister)
	if !ok {
		return 0, nil
	}

	owners, err := lister.Owners()
	if err != nil {
		return 0, fmt.Errorf("failed to list local owners: %w", err)
	}

	uploaded := 0
	var errs []error
	for _, owner := range owners {
		snap, err := r.local.Load(ctx, owner)
		if err != nil {
			errs = append(errs, fmt.Errorf("local load %s: %w", owner, err))
			continue
		}

		rctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		stored, err := r.remote.Load(rctx, owner)
		switch {
		case err == nil && !snap.NewerThan(stored.Version, stored.Origin):
			cancel()
			continue
		case err != nil && !errors.Is(err, ledger.ErrSnapshotNotFound):
			cancel()
			errs = append(errs, fmt.Errorf("remote load %s: %w", owner, err))
			continue
		}

		err = r.remote.Save(rctx, snap)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("remote save %s: %w", owner, err))
			continue
		}
		uploaded++
		r.logger.Info("uploaded local snapshot", "owner", owner, "version", snap.Version)
	}
	return uploaded, errors.Join(errs...)
}

// Drain waits until every queued snapshot has been shipped or ctx is done
func (r *Replicator) Drain(ctx context.Context) error {
	r.qmu.Lock()
	idle := r.idle
	r.qmu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Replicator) enqueue(ctx context.Context, snap ledger.Snapshot) {
	r.qmu.Lock()
	defer r.qmu.Unlock()

	box, ok := r.queues[snap.Owner]
	if !ok {
		box = &outbox{}
		r.queues[snap.Owner] = box
	}
	box.ctx = ctx
	box.next = &snap
	if box.running {
		return
	}

	box.running = true
	if r.active == 0 {
		r.idle = make(chan struct{})
	}
	r.active++
	go r.ship(snap.Owner, box)
}

// ship delivers the owner's pending snapshots one at a time until the
// outbox is empty
func (r *Replicator) ship(owner string, box *outbox) {
	for {
		r.qmu.Lock()
		ctx, next := box.ctx, box.next
		box.next = nil
		if next == nil {
			box.running = false
			delete(r.queues, owner)
			r.active--
			if r.active == 0 {
				close(r.idle)
			}
			r.qmu.Unlock()
			return
		}
		r.qmu.Unlock()

		if err := r.deliver(ctx, *next); err != nil {
			r.logger.Warn("failed to replicate book",
				"owner", owner, "version", next.Version, "error", err)
		}
	}
}

// deliver writes snap to the remote store, then publishes it. Both are
// attempted; the failures are joined.
func (r *Replicator) deliver(ctx context.Context, snap ledger.Snapshot) error {
	var errs []error

	if r.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		if err := r.remote.Save(rctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("remote save: %w", err))
		}
		cancel()
	}

	if r.push != nil {
		pctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		if err := r.push.Publish(pctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
		cancel()
	}

	return errors.Join(errs...)
}

var _ ledger.Persister = (*Replicator)(nil)
