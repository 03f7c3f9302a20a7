package ledger

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator assigns identifiers to new transactions, accounts and templates
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues time-ordered UUIDv7 identifiers, so ids sort by
// creation time.
type UUIDGenerator struct{}

// NewID returns a new UUIDv7, falling back to a random UUID
func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SequenceGenerator issues "<prefix><n>" ids from a counter. Useful in tests.
type SequenceGenerator struct {
	Prefix string
	next   atomic.Int64
}

// NewID returns the next id in the sequence
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s%d", g.Prefix, g.next.Add(1))
}
