package ledger

import "context"

// Persister receives the full snapshot after every book mutation
type Persister interface {
	Persist(ctx context.Context, snapshot Snapshot) error
}

// SnapshotStore is a durable home for snapshots, one per owner.
// Load returns ErrSnapshotNotFound when nothing was saved for owner.
type SnapshotStore interface {
	Load(ctx context.Context, owner string) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}
