package host

import (
	"time"

	"go.uber.org/zap"
)

// DefaultCallTimeout bounds a single export call.
const DefaultCallTimeout = 30 * time.Second

type executorConfig struct {
	logger           *zap.Logger
	clock            func() time.Time
	random           func() int64
	callTimeout      time.Duration
	memoryLimitPages uint32
	maxResultSize    uint32
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger:      zap.NewNop(),
		callTimeout: DefaultCallTimeout,
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

// WithLogger sets the logger used for host events and plugin log lines.
func WithLogger(logger *zap.Logger) Option {
	return func(c *executorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCallTimeout bounds every export call. Zero disables the timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *executorConfig) {
		c.callTimeout = d
	}
}

// WithMemoryLimitPages caps each plugin's linear memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *executorConfig) {
		c.memoryLimitPages = pages
	}
}

// WithMaxResultSize caps the payload a plugin may return.
func WithMaxResultSize(size uint32) Option {
	return func(c *executorConfig) {
		c.maxResultSize = size
	}
}

// WithClock overrides the clock behind host_get_time.
func WithClock(now func() time.Time) Option {
	return func(c *executorConfig) {
		c.clock = now
	}
}

// WithRandom overrides the source behind host_random.
func WithRandom(random func() int64) Option {
	return func(c *executorConfig) {
		c.random = random
	}
}
