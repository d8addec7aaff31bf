package engine

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Search constants
const (
	Infinity         = 1_000_000
	MateScore        = 100_000
	KingMissingScore = 500_000
	MaxDepth         = 64

	// Scores at or beyond this magnitude are forced mates.
	mateThreshold = MateScore - 1000

	// The threaded root only pays off with enough moves and depth.
	MinParallelMoves = 4
	MinParallelDepth = 2

	nodeCheckInterval = 1000
)

// searchSession is the state shared by every worker of one search.
type searchSession struct {
	ctx    context.Context
	tm     *TimeManager
	qdepth int
	log    zerolog.Logger

	stop  atomic.Bool // Set on timeout, cancellation, Stop or a found mate
	mate  atomic.Bool
	nodes atomic.Uint64

	order rootOrder
}

func newSearchSession(ctx context.Context, tm *TimeManager, qdepth int, logger zerolog.Logger) *searchSession {
	return &searchSession{ctx: ctx, tm: tm, qdepth: qdepth, log: logger}
}

// expired reports whether the search must unwind, latching the stop flag
// when the clock or the context says so.
func (s *searchSession) expired() bool {
	if s.stop.Load() {
		return true
	}
	if s.ctx.Err() != nil || s.tm.ShouldStop() {
		s.stop.Store(true)
		return true
	}
	return false
}

// foundMate records a forced mate and stops the other workers.
func (s *searchSession) foundMate() {
	s.mate.Store(true)
	s.stop.Store(true)
}

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool {
	return score >= mateThreshold || score <= -mateThreshold
}

// MateIn converts a mate score found by a search of the given depth into
// the number of moves to mate, negative when the side to move is mated.
// It returns 0 for ordinary scores.
func MateIn(score, depth int) int {
	if !IsMateScore(score) || score >= KingMissingScore || score <= -KingMissingScore {
		return 0
	}
	// A mate found with d plies left below the root sits at depth-d plies.
	if score > 0 {
		plies := depth - (score - MateScore)
		return (plies + 1) / 2
	}
	plies := depth - (-score - MateScore)
	return -(plies + 1) / 2
}
