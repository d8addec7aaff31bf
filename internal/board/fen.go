package board

import (
	"errors"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrEmptyFEN is returned when a FEN record has no fields at all.
var ErrEmptyFEN = errors.New("empty FEN")

// ParseFEN parses a FEN record. Parsing is permissive: an unknown placement
// character leaves its square empty, malformed fields fall back to their
// defaults and missing trailing fields default to "w - - 0 1".
func ParseFEN(fen string) (Position, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return Position{}, ErrEmptyFEN
	}
	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	pos := emptyPosition()
	parsePiecePlacement(&pos, parts[0])

	if field(1) == "b" {
		pos.SideToMove = Black
	}

	for _, c := range field(2) {
		if i := strings.IndexRune("KQkq", c); i >= 0 {
			pos.CastlingRights |= 1 << i
		}
	}

	if sq, err := ParseSquare(field(3)); err == nil {
		pos.EnPassant = sq
	}

	if n, err := strconv.Atoi(field(4)); err == nil && n >= 0 {
		pos.HalfMoveClock = n
	}
	if n, err := strconv.Atoi(field(5)); err == nil && n > 0 {
		pos.FullMoveNumber = n
	}

	pos.ComputeOccupancies()
	return pos, nil
}

// MustParseFEN is ParseFEN for known-good records; it panics on error.
func MustParseFEN(fen string) Position {
	pos, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return pos
}

// parsePiecePlacement walks the board from a8 in square order. Digits skip
// empty squares, '/' moves to the next rank and any other unknown byte
// consumes one square.
func parsePiecePlacement(pos *Position, placement string) {
	sq := 0
	for i := 0; i < len(placement) && sq < 64; i++ {
		c := placement[i]
		switch {
		case c >= '1' && c <= '8':
			sq += int(c - '0')
		case c == '/':
			if sq%8 != 0 {
				sq += 8 - sq%8
			}
		default:
			if piece := PieceFromChar(c); piece != NoPiece {
				*pos.bitboard(piece) |= SquareBB(Square(sq))
			}
			sq++
		}
	}
}

// ToFEN returns the six-field FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for sq := A8; sq <= H1; sq++ {
		if sq != A8 && sq.File() == 0 {
			sb.WriteByte('/')
		}
		piece := p.PieceAt(sq)
		if piece != NoPiece {
			sb.WriteString(piece.String())
			continue
		}
		empty := 1
		for sq.File() < 7 && p.PieceAt(sq+1) == NoPiece {
			sq++
			empty++
		}
		sb.WriteString(strconv.Itoa(empty))
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
