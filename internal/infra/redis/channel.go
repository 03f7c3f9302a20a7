package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

const (
	// ChannelPrefix is the prefix of every per-owner book channel
	ChannelPrefix = "books:"

	// ChannelPattern matches every book channel
	ChannelPattern = ChannelPrefix + "*"

	// DefaultBufferSize is the capacity of the channel returned by Subscribe
	DefaultBufferSize = 16
)

// Channel is a Redis pub/sub push channel carrying whole-book snapshots
type Channel struct {
	client *redis.Client
	logger *logger.Logger
}

// NewChannel creates a new push channel on top of client
func NewChannel(client *redis.Client, log *logger.Logger) *Channel {
	if log == nil {
		log = logger.Discard()
	}
	return &Channel{
		client: client,
		logger: log.WithField("component", "push"),
	}
}

// ChannelName returns the channel a given owner publishes to
func ChannelName(owner string) string {
	return ChannelPrefix + owner
}

// Publish pushes the snapshot to the owner's channel
func (c *Channel) Publish(ctx context.Context, snap ledger.Snapshot) error {
	if snap.Owner == "" {
		return fmt.Errorf("failed to publish snapshot: owner is required")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	receivers, err := c.client.Publish(ctx, ChannelName(snap.Owner), data).Result()
	if err != nil {
		c.logger.Error("push error", "operation", "publish", "owner", snap.Owner, "error", err)
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	c.logger.Debug("snapshot published", "owner", snap.Owner, "receivers", receivers)
	return nil
}

// Subscribe listens on every book channel until ctx is done. Each received
// snapshot has Owner set from the channel name. The returned channel is
// closed when the subscription ends. Undecodable payloads are logged and
// dropped.
func (c *Channel) Subscribe(ctx context.Context) (<-chan ledger.Snapshot, error) {
	pubsub := c.client.PSubscribe(ctx, ChannelPattern)

	// wait for the subscription confirmation so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ChannelPattern, err)
	}

	out := make(chan ledger.Snapshot, DefaultBufferSize)
	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}

				owner := strings.TrimPrefix(msg.Channel, ChannelPrefix)
				var snap ledger.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					c.logger.Warn("dropping undecodable snapshot", "owner", owner, "error", err)
					continue
				}
				snap.Owner = owner

				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	c.logger.Info("subscribed to book channels", "pattern", ChannelPattern)
	return out, nil
}

// Ping checks the connection
func (c *Channel) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
