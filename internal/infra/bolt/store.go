// Package bolt is the local durable snapshot store, one bbolt file per
// process holding one JSON document per owner.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kislikjeka/wizmoney/internal/ledger"
)

// BucketSnapshots holds owner id → JSON snapshot
const BucketSnapshots = "snapshots"

// FileName is the database file created inside the data directory
const FileName = "wizmoney.db"

// SnapshotStore is a bbolt-backed ledger.SnapshotStore
type SnapshotStore struct {
	db *bolt.DB
}

// Open opens (or creates) the store inside dataDir
func Open(dataDir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return OpenFile(filepath.Join(dataDir, FileName))
}

// OpenFile opens (or creates) the store at path and initializes buckets
func OpenFile(path string) (*SnapshotStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketSnapshots)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketSnapshots, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the database
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Ping checks the database is open and readable
func (s *SnapshotStore) Ping(_ context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(BucketSnapshots)) == nil {
			return fmt.Errorf("bucket %s not found", BucketSnapshots)
		}
		return nil
	})
}

// Save stores the snapshot under its owner
func (s *SnapshotStore) Save(_ context.Context, snap ledger.Snapshot) error {
	if snap.Owner == "" {
		return fmt.Errorf("failed to save snapshot: owner is required")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSnapshots))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketSnapshots)
		}
		return b.Put([]byte(snap.Owner), data)
	})
}

// Load returns the snapshot stored for owner
func (s *SnapshotStore) Load(_ context.Context, owner string) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSnapshots))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketSnapshots)
		}

		data := b.Get([]byte(owner))
		if data == nil {
			return ledger.ErrSnapshotNotFound
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Owner = owner
	return snap, nil
}

// Owners lists every owner with a stored snapshot
func (s *SnapshotStore) Owners() ([]string, error) {
	var owners []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSnapshots))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketSnapshots)
		}
		return b.ForEach(func(k, _ []byte) error {
			owners = append(owners, string(k))
			return nil
		})
	})
	return owners, err
}

var _ ledger.SnapshotStore = (*SnapshotStore)(nil)
