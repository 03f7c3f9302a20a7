package sync

import (
	"context"
	"sync"
	"time"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

// Listener consumes snapshots pushed by other instances and replaces the
// state of the matching open books. Only snapshots newer than the book's
// state are applied; this instance's own publishes are skipped.
type Listener struct {
	config     *Config
	source     Source
	replicator *Replicator
	replacer   Replacer
	logger     *logger.Logger
	wg         sync.WaitGroup
	stopCh     chan struct{}
	mu         sync.RWMutex
	running    bool
}

// NewListener creates a new push listener
func NewListener(config *Config, source Source, replicator *Replicator, replacer Replacer, log *logger.Logger) *Listener {
	if config == nil {
		config = DefaultConfig()
	}
	_ = config.Validate()
	if log == nil {
		log = logger.Discard()
	}

	return &Listener{
		config:     config,
		source:     source,
		replicator: replicator,
		replacer:   replacer,
		logger:     log.WithField("service", "sync-listener"),
		stopCh:     make(chan struct{}),
	}
}

// Run consumes pushes until ctx is done or Stop is called. A dropped
// subscription is re-established after RetryInterval.
func (l *Listener) Run(ctx context.Context) {
	if !l.config.Listen {
		l.logger.Info("push listener is disabled")
		return
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.wg.Add(1)
	l.mu.Unlock()
	defer l.wg.Done()

	l.logger.Info("starting push listener", "retry_interval", l.config.RetryInterval)

	for {
		l.consume(ctx)

		select {
		case <-ctx.Done():
			l.logger.Info("push listener stopping (context done)")
			l.markStopped()
			return
		case <-l.stopCh:
			l.logger.Info("push listener stopping (stop signal)")
			return
		case <-time.After(l.config.RetryInterval):
		}
	}
}

// Stop stops the listener and waits for Run to return
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *Listener) markStopped() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

// consume runs one subscription until it ends
func (l *Listener) consume(ctx context.Context) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots, err := l.source.Subscribe(subCtx)
	if err != nil {
		l.logger.Error("failed to subscribe", "error", err)
		return
	}

	for {
		select {
		case <-subCtx.Done():
			return
		case <-l.stopCh:
			return
		case snap, ok := <-snapshots:
			if !ok {
				l.logger.Warn("subscription closed")
				return
			}
			l.Handle(ctx, snap)
		}
	}
}

// Handle applies a single pushed snapshot
func (l *Listener) Handle(ctx context.Context, snap ledger.Snapshot) {
	if snap.Owner == "" {
		l.logger.Warn("dropping snapshot without owner")
		return
	}

	fresh, err := l.replicator.Absorb(ctx, snap)
	if err != nil {
		l.logger.Warn("failed to store pushed snapshot", "owner", snap.Owner, "error", err)
	}
	if !fresh {
		l.logger.Debug("ignoring stale or own snapshot",
			"owner", snap.Owner, "version", snap.Version, "origin", snap.Origin)
		return
	}

	if l.replacer.Replace(snap) {
		l.logger.Info("book replaced from push",
			"owner", snap.Owner, "version", snap.Version, "origin", snap.Origin)
	}
}
