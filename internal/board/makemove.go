package board

// castlingKeep[sq] holds the rights that survive a move from or to sq.
var castlingKeep [64]CastlingRights

func init() {
	for sq := range castlingKeep {
		castlingKeep[sq] = AllCastling
	}
	castlingKeep[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	castlingKeep[H1] &^= WhiteKingSideCastle
	castlingKeep[A1] &^= WhiteQueenSideCastle
	castlingKeep[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	castlingKeep[H8] &^= BlackKingSideCastle
	castlingKeep[A8] &^= BlackQueenSideCastle
}

// castlingRookMoves maps a castling king's target to the rook's corner and
// destination.
var castlingRookMoves = map[Square][2]Square{
	G1: {H1, F1},
	C1: {A1, D1},
	G8: {H8, F8},
	C8: {A8, D8},
}

// MakeMove applies a pseudo-legal move and returns the resulting position.
// The receiver is a copy, so the caller's position is never touched.
// Legality is not checked here.
func (p Position) MakeMove(m Move) Position {
	from, to := m.From(), m.To()
	us := p.SideToMove
	them := us.Other()
	fromBB, toBB := SquareBB(from), SquareBB(to)

	*p.bitboard(m.Piece()) &^= fromBB

	switch {
	case m.IsEnPassant():
		behind := to + 8
		if us == Black {
			behind = to - 8
		}
		p.Pieces[them][Pawn] &^= SquareBB(behind)
	case m.IsCapture():
		*p.bitboard(m.Captured()) &^= toBB
	}

	*p.bitboard(m.Result()) |= toBB

	p.EnPassant = NoSquare
	if m.IsDouble() {
		p.EnPassant = (from + to) / 2
	}

	if m.IsCastling() {
		if r, ok := castlingRookMoves[to]; ok {
			p.Pieces[us][Rook] = p.Pieces[us][Rook].Clear(r[0]).Set(r[1])
		}
	}

	p.CastlingRights &= castlingKeep[from] & castlingKeep[to]

	if m.Piece().Type() == Pawn || m.IsCapture() {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.ComputeOccupancies()
	p.SideToMove = them
	return p
}
