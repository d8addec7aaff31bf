package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hailam/lumin/internal/board"
)

// SearchInfo is reported after every completed depth.
type SearchInfo struct {
	Depth int
	Score int
	Move  board.Move
	Nodes uint64
	Time  time.Duration
}

// Result is the outcome of a search. Move is board.NoMove only when the
// position has no legal move.
type Result struct {
	Move       board.Move
	Score      int
	Depth      int // Deepest completed depth, 0 if none completed
	Nodes      uint64
	Elapsed    time.Duration
	RootScores map[board.Move]int // Per-move scores of the deepest completed depth
}

// Engine is the chess AI engine.
type Engine struct {
	cfg     Config
	current atomic.Pointer[searchSession]

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Search runs iterative deepening on pos until the depth limit, the time
// budget or ctx ends it, and returns the result of the deepest completed
// depth. A depth cut short never replaces the previous one.
func (e *Engine) Search(ctx context.Context, pos board.Position, limits SearchLimits) Result {
	budget := e.cfg.MoveTime
	if limits.MoveTime > 0 {
		budget = limits.MoveTime
	}
	maxDepth := e.cfg.MaxDepth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxDepth)
	}

	tm := NewTimeManager(budget)
	ctx, cancel := context.WithDeadline(ctx, tm.Deadline())
	defer cancel()
	s := newSearchSession(ctx, tm, e.cfg.QuiescenceDepth, e.cfg.Logger)
	e.current.Store(s)
	defer e.current.CompareAndSwap(s, nil)

	res := Result{Move: board.NoMove}
	root := pos.GenerateLegalMoves().Slice()
	if len(root) == 0 {
		s.log.Debug().Str("fen", pos.ToFEN()).Msg("no-legal-moves")
		return res
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && (s.expired() || tm.PastOptimum()) {
			break
		}

		r := s.searchRoot(&pos, s.order.order(root), depth, e.cfg.Threads)
		if !r.complete || r.move == board.NoMove {
			s.log.Info().
				Int("depth", depth).
				Dur("elapsed", tm.Elapsed()).
				Dur("budget", tm.MaximumTime()).
				Msg("search-timeout")
			break
		}

		res.Move, res.Score, res.Depth = r.move, r.score, depth
		s.order.record(r.scores)
		res.RootScores = s.order.snapshot()

		nodes := s.nodes.Load()
		s.log.Debug().
			Int("depth", depth).
			Int("score", r.score).
			Str("move", r.move.String()).
			Uint64("nodes", nodes).
			Dur("elapsed", tm.Elapsed()).
			Msg("depth-complete")
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{Depth: depth, Score: r.score, Move: r.move, Nodes: nodes, Time: tm.Elapsed()})
		}

		if IsMateScore(r.score) {
			s.log.Info().Int("depth", depth).Int("mate_in", MateIn(r.score, depth)).Str("move", r.move.String()).Msg("mate-found")
			break
		}
	}

	if res.Move == board.NoMove {
		res.Move = root[0]
	}
	res.Nodes = s.nodes.Load()
	res.Elapsed = tm.Elapsed()
	return res
}

// Stop ends the running search, if any. The search returns the result of
// its last completed depth.
func (e *Engine) Stop() {
	if s := e.current.Load(); s != nil {
		s.stop.Store(true)
	}
}

// FindBestMove searches pos with the default configuration and returns the
// best move, or board.NoMove when there is no legal move.
func FindBestMove(pos board.Position) board.Move {
	e := NewEngine(DefaultConfig())
	return e.Search(context.Background(), pos, SearchLimits{}).Move
}

// ScoreToString formats a score as pawns, or as a mate distance.
func ScoreToString(score, depth int) string {
	if n := MateIn(score, depth); n > 0 {
		return fmt.Sprintf("mate in %d", n)
	} else if n < 0 {
		return fmt.Sprintf("mated in %d", -n)
	}
	sign := ""
	if score < 0 {
		sign, score = "-", -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
