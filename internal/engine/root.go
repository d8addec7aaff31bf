package engine

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/lumin/internal/board"
)

// rootResult is the outcome of one root pass at a fixed depth.
type rootResult struct {
	move     board.Move
	score    int
	scores   map[board.Move]int
	complete bool
}

// packBest packs a (move, score) pair into one word so both halves are
// read and written together. The score takes the high half.
func packBest(m board.Move, score int) uint64 {
	return uint64(uint32(int32(score)))<<32 | uint64(m)
}

func unpackBest(v uint64) (board.Move, int) {
	return board.Move(uint32(v)), int(int32(uint32(v >> 32)))
}

// raiseBest stores (m, score) if score beats the current best. Concurrent
// callers never lower the stored score.
func raiseBest(best *atomic.Uint64, m board.Move, score int) bool {
	for {
		old := best.Load()
		if _, s := unpackBest(old); score <= s {
			return false
		}
		if best.CompareAndSwap(old, packBest(m, score)) {
			return true
		}
	}
}

// searchRoot searches every root move to depth, on the calling goroutine
// or split across threads workers.
func (s *searchSession) searchRoot(pos *board.Position, moves []board.Move, depth, threads int) rootResult {
	if threads > 1 && len(moves) > MinParallelMoves && depth > MinParallelDepth {
		return s.searchRootParallel(pos, moves, depth, threads)
	}
	return s.searchRootSerial(pos, moves, depth)
}

func (s *searchSession) searchRootSerial(pos *board.Position, moves []board.Move, depth int) rootResult {
	w := newWorker(0, s)
	defer w.flush()

	res := rootResult{move: board.NoMove, score: -Infinity, scores: make(map[board.Move]int, len(moves))}
	alpha := -Infinity
	for _, m := range moves {
		if s.expired() {
			break
		}
		child := pos.MakeMove(m)
		score := -w.negamax(&child, depth-1, -Infinity, -alpha)
		if s.stop.Load() {
			break
		}
		res.scores[m] = score
		if score > res.score {
			res.move, res.score = m, score
		}
		if score > alpha {
			alpha = score
		}
		if score >= mateThreshold {
			s.foundMate()
			break
		}
	}
	res.complete = !s.stop.Load() || s.mate.Load()
	return res
}

// searchRootParallel cuts moves into contiguous batches, one per worker.
// Each worker narrows its own alpha; the shared best pair only rises.
func (s *searchSession) searchRootParallel(pos *board.Position, moves []board.Move, depth, threads int) rootResult {
	var best atomic.Uint64
	best.Store(packBest(board.NoMove, -Infinity))

	scores := make([]int, len(moves))
	done := make([]bool, len(moves))
	batch := (len(moves) + threads - 1) / threads

	var g errgroup.Group
	for id, start := 0, 0; start < len(moves); id, start = id+1, start+batch {
		end := min(start+batch, len(moves))
		start := start
		w := newWorker(id, s)
		g.Go(func() error {
			defer w.flush()
			alpha := -Infinity
			for i := start; i < end; i++ {
				if s.expired() {
					return nil
				}
				child := pos.MakeMove(moves[i])
				score := -w.negamax(&child, depth-1, -Infinity, -alpha)
				if s.stop.Load() {
					return nil
				}
				scores[i], done[i] = score, true
				alpha = max(alpha, score)
				if raiseBest(&best, moves[i], score) {
					w.log.Debug().Int("depth", depth).Str("move", moves[i].String()).Int("score", score).Msg("root-best-raised")
				}
				if score >= mateThreshold {
					s.foundMate()
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	res := rootResult{scores: make(map[board.Move]int, len(moves))}
	res.move, res.score = unpackBest(best.Load())
	for i, m := range moves {
		if done[i] {
			res.scores[m] = scores[i]
		}
	}
	res.complete = !s.stop.Load() || s.mate.Load()
	return res
}
