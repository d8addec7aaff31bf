package engine

import (
	"github.com/rs/zerolog"

	"github.com/hailam/lumin/internal/board"
)

// worker runs alpha-beta searches for one root batch. Each worker owns its
// position copies, so nothing below the root is shared.
type worker struct {
	id    int
	s     *searchSession
	nodes uint64
	log   zerolog.Logger
}

func newWorker(id int, s *searchSession) *worker {
	return &worker{
		id:  id,
		s:   s,
		log: s.log.With().Int("worker_id", id).Logger(),
	}
}

// tick counts a node and reports whether the search should unwind. The
// clock and the context are only consulted every nodeCheckInterval nodes.
func (w *worker) tick() bool {
	w.nodes++
	if w.nodes%nodeCheckInterval == 0 {
		w.s.nodes.Add(nodeCheckInterval)
		return w.s.expired()
	}
	return w.s.stop.Load()
}

// flush adds the nodes not yet published to the session total.
func (w *worker) flush() {
	w.s.nodes.Add(w.nodes % nodeCheckInterval)
	w.nodes -= w.nodes % nodeCheckInterval
}

// negamax returns the fail-hard alpha-beta score of pos searched to depth,
// from the side to move's point of view. Once the search is stopped it
// returns alpha and callers must discard the value.
func (w *worker) negamax(pos *board.Position, depth, alpha, beta int) int {
	if w.tick() {
		return alpha
	}
	if depth == 0 {
		return w.quiescence(pos, alpha, beta, 0)
	}

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if pos.InCheck() {
			return -(MateScore + depth)
		}
		return 0
	}

	var scores [board.MaxMoves]int
	scoreMoves(moves, scores[:])
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores[:], i)
		child := pos.MakeMove(moves.Get(i))
		score := -w.negamax(&child, depth-1, -beta, -alpha)
		if w.s.stop.Load() {
			return alpha
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// quiescence extends the search along captures until the position is quiet
// or ply reaches the session's quiescence depth.
func (w *worker) quiescence(pos *board.Position, alpha, beta, ply int) int {
	if w.tick() {
		return alpha
	}

	captures := pos.GenerateCaptures()
	if captures.Len() == 0 && !pos.HasLegalMoves() {
		if pos.InCheck() {
			// Mates past the horizon sit ply plies deeper.
			return -(MateScore - ply)
		}
		return 0
	}

	standPat := Evaluate(pos)
	if ply >= w.s.qdepth {
		return standPat
	}
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	var scores [board.MaxMoves]int
	scoreMoves(captures, scores[:])
	for i := 0; i < captures.Len(); i++ {
		PickMove(captures, scores[:], i)
		child := pos.MakeMove(captures.Get(i))
		score := -w.quiescence(&child, -beta, -alpha, ply+1)
		if w.s.stop.Load() {
			return alpha
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
