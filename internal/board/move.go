package board

// Move packs a fully described move into 32 bits:
//
//	bits 0-5:   source square
//	bits 6-11:  target square
//	bits 12-15: moving piece
//	bits 16-19: resulting piece (the moving piece unless promoting)
//	bit  20:    capture
//	bit  21:    double pawn push
//	bit  22:    en passant
//	bit  23:    castling
//	bits 24-27: captured piece, NoPiece when nothing is taken
//
// Moves compare by value. The zero value never describes a real move
// because source and target always differ.
type Move uint32

// NoMove is the sentinel for "no move".
const NoMove Move = 0

const (
	flagCapture   Move = 1 << 20
	flagDouble    Move = 1 << 21
	flagEnPassant Move = 1 << 22
	flagCastling  Move = 1 << 23
)

// MoveFlags selects the boolean bits of a move for NewMove.
type MoveFlags uint8

const (
	Quiet      MoveFlags = 0
	// DoublePush marks a two-square pawn advance.
	DoublePush MoveFlags = 1 << iota
	EnPassantCapture
	Castle
)

// NewMove encodes a move. The capture flag is derived from captured.
func NewMove(from, to Square, piece, result, captured Piece, flags MoveFlags) Move {
	m := Move(from) | Move(to)<<6 | Move(piece)<<12 | Move(result)<<16 | Move(captured)<<24
	if captured != NoPiece {
		m |= flagCapture
	}
	if flags&DoublePush != 0 {
		m |= flagDouble
	}
	if flags&EnPassantCapture != 0 {
		m |= flagEnPassant
	}
	if flags&Castle != 0 {
		m |= flagCastling
	}
	return m
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square { return Square((m >> 6) & 0x3F) }
func (m Move) Piece() Piece { return Piece((m >> 12) & 0xF) }
func (m Move) Result() Piece { return Piece((m >> 16) & 0xF) }
func (m Move) Captured() Piece { return Piece((m >> 24) & 0xF) }
func (m Move) IsCapture() bool { return m&flagCapture != 0 }
func (m Move) IsDouble() bool { return m&flagDouble != 0 }
func (m Move) IsEnPassant() bool { return m&flagEnPassant != 0 }
func (m Move) IsCastling() bool { return m&flagCastling != 0 }

// IsPromotion reports whether the moving pawn turns into another piece.
func (m Move) IsPromotion() bool {
	return m != NoMove && m.Result() != m.Piece()
}

// String returns the coordinate form of the move, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Result().Type().Char())
	}
	return s
}

// MaxMoves bounds the number of moves in any position.
const MaxMoves = 256

// MoveList is a fixed-capacity list of moves.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// NewMoveList creates a new empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move. Moves past capacity are dropped; no legal position
// comes close.
func (ml *MoveList) Add(m Move) {
	if ml.count < MaxMoves {
		ml.moves[ml.count] = m
		ml.count++
	}
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap exchanges the moves at i and j.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains returns true if the move is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for _, x := range ml.Slice() {
		if x == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
