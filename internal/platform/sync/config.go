package sync

import (
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for replication and the push listener
type Config struct {
	// Timeout bounds every remote call (remote store, push channel)
	Timeout time.Duration

	// RetryInterval is how long the listener waits before resubscribing
	RetryInterval time.Duration

	// Listen determines if remote pushes are consumed
	Listen bool

	// InstanceID is stamped on every snapshot this process persists; pushes
	// carrying it are this process's own echoes. Generated when empty.
	InstanceID string
}

// DefaultConfig returns the default sync configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		RetryInterval: 5 * time.Second,
		Listen:        true,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 5 * time.Second
	}
	if c.InstanceID == "" {
		c.InstanceID = uuid.NewString()
	}
	return nil
}
