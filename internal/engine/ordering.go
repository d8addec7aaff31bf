package engine

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/hailam/lumin/internal/board"
)

// Move ordering priorities
const (
	captureBase   = 1_000_000 // Every capture sorts above every quiet move
	promotionBase = 500_000
)

// scoreMove returns the ordering score of m. Captures are ranked by
// MVV-LVA: the victim's value counts ten times the attacker's.
func scoreMove(m board.Move) int {
	score := 0
	if m.IsCapture() {
		victim := m.Captured().Type()
		attacker := m.Piece().Type()
		score = captureBase + pieceValues[victim]*10 - pieceValues[attacker]
	}
	if m.IsPromotion() {
		score += promotionBase + pieceValues[m.Result().Type()]
	}
	return score
}

// scoreMoves fills scores with the ordering score of every move.
func scoreMoves(moves *board.MoveList, scores []int) {
	for i := 0; i < moves.Len(); i++ {
		scores[i] = scoreMove(moves.Get(i))
	}
}

// PickMove finds the best remaining move and swaps it to index.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for i := index + 1; i < moves.Len(); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// rootOrder keeps the per-move scores of the last completed iteration.
type rootOrder struct {
	mu     sync.Mutex
	scores map[board.Move]int
}

// record replaces the table with the scores of a completed depth.
func (r *rootOrder) record(scores map[board.Move]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = scores
}

// snapshot returns a copy of the recorded scores.
func (r *rootOrder) snapshot() map[board.Move]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[board.Move]int, len(r.scores))
	for m, s := range r.scores {
		out[m] = s
	}
	return out
}

// order returns moves with previously scored moves first, best first,
// followed by the unscored ones in their original order. Before the first
// completed depth the root falls back to MVV-LVA.
func (r *rootOrder) order(moves []board.Move) []board.Move {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Clone(moves)
	if len(r.scores) == 0 {
		slices.SortStableFunc(out, func(a, b board.Move) bool {
			return scoreMove(a) > scoreMove(b)
		})
		return out
	}

	scored := make([]board.Move, 0, len(moves))
	var rest []board.Move
	for _, m := range moves {
		if _, ok := r.scores[m]; ok {
			scored = append(scored, m)
		} else {
			rest = append(rest, m)
		}
	}
	slices.SortStableFunc(scored, func(a, b board.Move) bool {
		return r.scores[a] > r.scores[b]
	})
	return append(scored, rest...)
}
