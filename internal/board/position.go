package board

import (
	"errors"
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Position is a complete chess position. It is a plain value: copying it
// copies the whole board, and MakeMove returns a new Position.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	// Derived from Pieces by ComputeOccupancies; never edited directly.
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Square passed over by the last double push, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int
}

var (
	errKingCount  = errors.New("each side must have exactly one king")
	errOverlap    = errors.New("piece bitboards overlap")
	errOccupancy  = errors.New("occupancy does not match piece bitboards")
	errEnPassant  = errors.New("en passant square on wrong rank")
	startPosition Position
)

func init() {
	startPosition, _ = ParseFEN(StartFEN)
}

// NewPosition returns the standard starting position.
func NewPosition() Position {
	return startPosition
}

// emptyPosition returns a cleared board with white to move.
func emptyPosition() Position {
	return Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			if p.Pieces[c][pt]&bb != 0 {
				return NewPiece(pt, c)
			}
		}
	}
	return NoPiece
}

// KingSquare returns the square of c's king, or NoSquare when it is missing.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces[c][King].LSB()
}

// bitboard returns a pointer to the bitboard holding piece.
func (p *Position) bitboard(piece Piece) *Bitboard {
	return &p.Pieces[piece.Color()][piece.Type()]
}

// ComputeOccupancies rebuilds the three occupancy bitboards from the twelve
// piece bitboards.
func (p *Position) ComputeOccupancies() {
	p.Occupied[White] = Empty
	p.Occupied[Black] = Empty
	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// String renders the board with rank 8 at the top, followed by the state
// fields.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "FEN: %s\n", p.ToFEN())
	return sb.String()
}

// Validate checks the structural invariants: no two piece bitboards share a
// square, the occupancies match the piece bitboards, each side has one king
// and the en passant square sits on the third or sixth rank.
func (p *Position) Validate() error {
	var seen Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			if seen&p.Pieces[c][pt] != 0 {
				return fmt.Errorf("%s %c: %w", c, pt.Char(), errOverlap)
			}
			seen |= p.Pieces[c][pt]
		}
	}

	check := *p
	check.ComputeOccupancies()
	if check.Occupied != p.Occupied || check.AllOccupied != p.AllOccupied {
		return errOccupancy
	}

	if p.Pieces[White][King].PopCount() != 1 || p.Pieces[Black][King].PopCount() != 1 {
		return errKingCount
	}

	if p.EnPassant != NoSquare {
		if r := p.EnPassant.Rank(); r != 2 && r != 5 {
			return fmt.Errorf("%s: %w", p.EnPassant, errEnPassant)
		}
	}
	return nil
}

// Material returns the total material value for a color, kings excluded.
func (p *Position) Material(c Color) int {
	total := 0
	for pt := Pawn; pt < King; pt++ {
		total += p.Pieces[c][pt].PopCount() * PieceValue[pt]
	}
	return total
}

// PieceValue is the material value of each piece type in centipawns.
var PieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}
