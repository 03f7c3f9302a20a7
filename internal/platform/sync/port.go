package sync

import (
	"context"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// Publisher pushes a snapshot to other instances
type Publisher interface {
	Publish(ctx context.Context, snapshot ledger.Snapshot) error
}

// Source yields snapshots pushed by other instances. The channel closes
// when the subscription ends.
type Source interface {
	Subscribe(ctx context.Context) (<-chan ledger.Snapshot, error)
}

// Replacer swaps the state of an open book for a pushed snapshot.
// It reports false when no book is open for the owner.
type Replacer interface {
	Replace(snapshot ledger.Snapshot) bool
}

// OwnerLister enumerates the owners a store holds a snapshot for
type OwnerLister interface {
	Owners() ([]string, error)
}
