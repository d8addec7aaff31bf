package engine

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default search settings.
const (
	DefaultMoveTime        = 2500 * time.Millisecond
	DefaultMaxDepth        = 20
	DefaultQuiescenceDepth = 8
)

// Config holds the engine settings that stay fixed across searches.
type Config struct {
	Threads         int           // Root workers; 1 searches on the calling goroutine
	MoveTime        time.Duration // Budget when SearchLimits.MoveTime is zero
	MaxDepth        int           // Depth cap when SearchLimits.Depth is zero
	QuiescenceDepth int           // Extra capture plies below the horizon
	Logger          zerolog.Logger
}

// DefaultConfig returns one worker per CPU, a 2.5s budget, depth 20 and the
// global logger.
func DefaultConfig() Config {
	return Config{
		Threads:         runtime.NumCPU(),
		MoveTime:        DefaultMoveTime,
		MaxDepth:        DefaultMaxDepth,
		QuiescenceDepth: DefaultQuiescenceDepth,
		Logger:          log.Logger,
	}
}

func (c Config) withDefaults() Config {
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.MoveTime <= 0 {
		c.MoveTime = DefaultMoveTime
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	c.MaxDepth = min(c.MaxDepth, MaxDepth)
	if c.QuiescenceDepth <= 0 {
		c.QuiescenceDepth = DefaultQuiescenceDepth
	}
	return c
}

// SearchLimits overrides the configured budget and depth for one search.
// Zero fields fall back to the Config.
type SearchLimits struct {
	Depth    int
	MoveTime time.Duration
}
