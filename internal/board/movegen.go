package board

// pawnDeltas holds the square offsets of a pawn's push, west capture and
// east capture for each color.
var pawnDeltas = [2][3]int{
	White: {-8, -9, -7},
	Black: {8, 7, 9},
}

// GenerateLegalMoves generates all legal moves for the position in the
// order pawns, king (with castling), knights, bishops, rooks, queens.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml, false)
}

// GeneratePseudoLegalMoves generates moves that may leave the king in check.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates the legal captures, en passant included.
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml, true)
}

func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied

	p.generatePawnMoves(ml, us)
	p.generateKingMoves(ml, us)

	for _, pt := range [...]PieceType{Knight, Bishop, Rook, Queen} {
		piece := NewPiece(pt, us)
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			var attacks Bitboard
			switch pt {
			case Knight:
				attacks = KnightAttacks(from)
			case Bishop:
				attacks = BishopAttacks(from, occupied)
			case Rook:
				attacks = RookAttacks(from, occupied)
			default:
				attacks = QueenAttacks(from, occupied)
			}
			p.addTargets(ml, from, piece, attacks&^p.Occupied[us])
		}
	}
}

// addTargets adds one move per target square, tagging captures with the
// piece standing on the target.
func (p *Position) addTargets(ml *MoveList, from Square, piece Piece, targets Bitboard) {
	them := piece.Color().Other()
	for targets != 0 {
		to := targets.PopLSB()
		ml.Add(NewMove(from, to, piece, piece, p.pieceOf(them, to), Quiet))
	}
}

// pieceOf returns c's piece on sq, or NoPiece.
func (p *Position) pieceOf(c Color, sq Square) Piece {
	bb := SquareBB(sq)
	if p.Occupied[c]&bb == 0 {
		return NoPiece
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color) {
	them := us.Other()
	pawns := p.Pieces[us][Pawn]
	if pawns == 0 {
		return
	}
	piece := NewPiece(Pawn, us)
	empty := ^p.AllOccupied
	enemies := p.Occupied[them]
	d := pawnDeltas[us]

	var push1, push2, west, east, promotionRank Bitboard
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		west = pawns.NorthWest() & enemies
		east = pawns.NorthEast() & enemies
		promotionRank = Rank8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		west = pawns.SouthWest() & enemies
		east = pawns.SouthEast() & enemies
		promotionRank = Rank1
	}

	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - d[0])
		p.addPawnMove(ml, from, to, piece, NoPiece, promotionRank)
	}

	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*d[0])
		ml.Add(NewMove(from, to, piece, piece, NoPiece, DoublePush))
	}

	for west != 0 {
		to := west.PopLSB()
		from := Square(int(to) - d[1])
		p.addPawnMove(ml, from, to, piece, p.pieceOf(them, to), promotionRank)
	}

	for east != 0 {
		to := east.PopLSB()
		from := Square(int(to) - d[2])
		p.addPawnMove(ml, from, to, piece, p.pieceOf(them, to), promotionRank)
	}

	if p.EnPassant != NoSquare {
		// Our pawns that attack the passed square are the squares a pawn of
		// the other color on that square would attack.
		attackers := pawnAttacks[them][p.EnPassant] & pawns
		victim := NewPiece(Pawn, them)
		for attackers != 0 {
			from := attackers.PopLSB()
			ml.Add(NewMove(from, p.EnPassant, piece, piece, victim, EnPassantCapture))
		}
	}
}

// addPawnMove adds a single push or capture, expanding it into the four
// promotions (queen, rook, bishop, knight) on the last rank.
func (p *Position) addPawnMove(ml *MoveList, from, to Square, piece, captured Piece, promotionRank Bitboard) {
	if promotionRank&SquareBB(to) == 0 {
		ml.Add(NewMove(from, to, piece, piece, captured, Quiet))
		return
	}
	c := piece.Color()
	for _, pt := range [...]PieceType{Queen, Rook, Bishop, Knight} {
		ml.Add(NewMove(from, to, piece, NewPiece(pt, c), captured, Quiet))
	}
}

func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	kingBB := p.Pieces[us][King]
	if kingBB == 0 {
		return
	}
	from := kingBB.LSB()
	p.addTargets(ml, from, NewPiece(King, us), KingAttacks(from)&^p.Occupied[us])
	p.generateCastlingMoves(ml, us)
}

// castlingRule describes one castling option: the right it needs, the
// king's path, the squares that must be empty and the rook's corner.
type castlingRule struct {
	right             CastlingRights
	king, via, target Square
	rook              Square
	empty             Bitboard
}

var castlingRules = [2][2]castlingRule{
	White: {
		{WhiteKingSideCastle, E1, F1, G1, H1, SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSideCastle, E1, D1, C1, A1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1)},
	},
	Black: {
		{BlackKingSideCastle, E8, F8, G8, H8, SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSideCastle, E8, D8, C8, A8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8)},
	},
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	king := NewPiece(King, us)
	for _, r := range castlingRules[us] {
		if p.CastlingRights&r.right == 0 ||
			p.Pieces[us][King]&SquareBB(r.king) == 0 ||
			p.Pieces[us][Rook]&SquareBB(r.rook) == 0 ||
			p.AllOccupied&r.empty != 0 {
			continue
		}
		if p.IsSquareAttacked(r.king, them) || p.IsSquareAttacked(r.via, them) || p.IsSquareAttacked(r.target, them) {
			continue
		}
		ml.Add(NewMove(r.king, r.target, king, king, NoPiece, Castle))
	}
}

// filterLegalMoves keeps the moves that do not leave the mover's king
// attacked, optionally only the captures.
func (p *Position) filterLegalMoves(ml *MoveList, capturesOnly bool) *MoveList {
	us := p.SideToMove
	them := us.Other()
	legal := NewMoveList()
	for _, m := range ml.Slice() {
		if capturesOnly && !m.IsCapture() {
			continue
		}
		child := p.MakeMove(m)
		ksq := child.KingSquare(us)
		if ksq != NoSquare && child.IsSquareAttacked(ksq, them) {
			continue
		}
		legal.Add(m)
	}
	return legal
}

// HasLegalMoves reports whether the side to move has at least one legal
// move. It stops at the first one found.
func (p *Position) HasLegalMoves() bool {
	us := p.SideToMove
	for _, m := range p.GeneratePseudoLegalMoves().Slice() {
		child := p.MakeMove(m)
		ksq := child.KingSquare(us)
		if ksq == NoSquare || !child.IsSquareAttacked(ksq, us.Other()) {
			return true
		}
	}
	return false
}

// Status classifies a position by its legal moves.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Status returns Checkmate or Stalemate when the side to move has no legal
// move, Ongoing otherwise.
func (p *Position) Status() Status {
	if p.HasLegalMoves() {
		return Ongoing
	}
	if p.InCheck() {
		return Checkmate
	}
	return Stalemate
}
