// Package engine implements the evaluation and search on top of the board
// package: material and piece-square scoring, alpha-beta with quiescence,
// iterative deepening under a time budget and a threaded root search.
package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/hailam/lumin/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [6]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue}

// Endgame phase weights. The king tables blend from start to end as the
// weighted count of non-pawn material drops below endgameStartWeight.
const (
	queenEndgameWeight  = 45
	rookEndgameWeight   = 20
	bishopEndgameWeight = 10
	knightEndgameWeight = 10
	endgameStartWeight  = 125
)

// Piece-square tables, white's view, index 0 = a8. Black reads sq^56.
var (
	pawnTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	knightTable = [64]int{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}
	bishopTable = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}
	rookTable = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}
	queenTable = [64]int{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}
	kingStartTable = [64]int{
		-80, -70, -70, -70, -70, -70, -70, -80,
		-60, -60, -60, -60, -60, -60, -60, -60,
		-40, -50, -50, -60, -60, -50, -50, -40,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, -5, -5, -5, -5, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
	kingEndTable = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-5, 0, 5, 5, 5, 5, 0, -5,
		-10, -5, 20, 30, 30, 20, -5, -10,
		-15, -10, 35, 45, 45, 35, -10, -15,
		-20, -15, 30, 40, 40, 30, -15, -20,
		-25, -20, 20, 25, 25, 20, -20, -25,
		-30, -25, 0, 0, 0, 0, -25, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}

	pieceTables = [5]*[64]int{&pawnTable, &knightTable, &bishopTable, &rookTable, &queenTable}

	distanceToCorner = [64]int{
		0, 1, 2, 3, 3, 2, 1, 0,
		1, 2, 3, 4, 4, 3, 2, 1,
		2, 3, 4, 5, 5, 4, 3, 2,
		3, 4, 5, 6, 6, 5, 4, 3,
		3, 4, 5, 6, 6, 5, 4, 3,
		2, 3, 4, 5, 5, 4, 3, 2,
		1, 2, 3, 4, 4, 3, 2, 1,
		0, 1, 2, 3, 3, 2, 1, 0,
	}
)

// Evaluate returns the static score of pos in centipawns from the side to
// move's point of view. A side without a king scores as lost.
func Evaluate(pos *board.Position) int {
	us := pos.SideToMove
	switch {
	case pos.Pieces[us][board.King] == 0:
		return -KingMissingScore
	case pos.Pieces[us.Other()][board.King] == 0:
		return KingMissingScore
	}

	count := func(pt board.PieceType) int {
		return pos.Pieces[board.White][pt].PopCount() + pos.Pieces[board.Black][pt].PopCount()
	}
	queens, rooks := count(board.Queen), count(board.Rook)
	bishops, knights := count(board.Bishop), count(board.Knight)

	t := endgamePhase(queens*queenEndgameWeight + rooks*rookEndgameWeight +
		bishops*bishopEndgameWeight + knights*knightEndgameWeight)

	score := 0
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		mirror := board.Square(0)
		if c == board.Black {
			sign, mirror = -1, 56
		}
		side := 0
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB() ^ mirror
				side += pieceValues[pt]
				if pt == board.King {
					side += kingSquareValue(sq, t)
				} else {
					side += pieceTables[pt][sq]
				}
			}
		}
		score += sign * side
	}

	if 9*queens+5*rooks+3*bishops+2*knights <= 15 && queens+rooks+bishops+knights <= 4 {
		score += mopUp(pos)
	}

	if us == board.Black {
		return -score
	}
	return score
}

// endgamePhase maps the weighted piece sum to t in [0,1]; 0 is the opening.
func endgamePhase(weight int) float64 {
	return 1 - min(1, float64(weight)/endgameStartWeight)
}

func kingSquareValue(sq board.Square, t float64) int {
	return int(float64(kingStartTable[sq])*(1-t) + float64(kingEndTable[sq])*t)
}

// mopUp rewards the side ahead in material for driving the other king
// away from the centre and toward a rim or corner, and for bringing its own
// king closer. The result is from white's point of view.
func mopUp(pos *board.Position) int {
	white := pos.Material(board.White)
	black := pos.Material(board.Black)
	if white == black {
		return 0
	}

	wk := pos.KingSquare(board.White)
	bk := pos.KingSquare(board.Black)
	loser, sign := bk, 1
	if black > white {
		loser, sign = wk, -1
	}

	dist := abs(int(wk)>>3-int(bk)>>3) + abs(int(wk)&7-int(bk)&7)

	// distanceToCorner is 6 in the centre, so 6 minus it is the distance
	// from the centre.
	score := (6-distanceToCorner[loser])*10 + (14-dist)*5
	row, col := int(loser)>>3, int(loser)&7
	rimRow, rimCol := row == 0 || row == 7, col == 0 || col == 7
	if rimRow || rimCol {
		score += 20
	}
	if rimRow && rimCol {
		score += 50
	}
	return sign * score
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
