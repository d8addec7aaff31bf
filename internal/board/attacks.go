package board

// Pre-computed attack tables for non-sliding pieces
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

func init() {
	initKnightAttacks()
	initKingAttacks()
	initPawnAttacks()
	initMagics()
}

func initKnightAttacks() {
	for sq := A8; sq <= H1; sq++ {
		bb := SquareBB(sq)

		attacks := (bb >> 17) & NotFileH // up 2, left 1
		attacks |= (bb >> 15) & NotFileA
		attacks |= (bb << 15) & NotFileH
		attacks |= (bb << 17) & NotFileA
		attacks |= (bb >> 10) & NotFileGH // up 1, left 2
		attacks |= (bb >> 6) & NotFileAB
		attacks |= (bb << 6) & NotFileGH
		attacks |= (bb << 10) & NotFileAB

		knightAttacks[sq] = attacks
	}
}

func initKingAttacks() {
	for sq := A8; sq <= H1; sq++ {
		bb := SquareBB(sq)
		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()
	}
}

func initPawnAttacks() {
	for sq := A8; sq <= H1; sq++ {
		bb := SquareBB(sq)
		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// AttackersByColor returns the pieces of color c attacking sq under the
// given occupancy. Pawns are found through the reverse table: a pawn of c
// attacks sq exactly when a pawn of the other color on sq would attack it.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	enemy := c.Other()
	return (pawnAttacks[enemy][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked returns true if the square is attacked by the given color.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// InCheck reports whether the side to move's king is attacked. A side
// without a king is never in check.
func (p *Position) InCheck() bool {
	ksq := p.KingSquare(p.SideToMove)
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, p.SideToMove.Other())
}
