// Package game tracks a played game on top of the board and engine
// packages: move history, draw rules, bot-vs-bot play and PGN export.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"

	"github.com/hailam/lumin/internal/board"
	"github.com/hailam/lumin/internal/engine"
)

// Sentinel errors.
var (
	ErrIllegalMove = errors.New("game: illegal move")
	ErrGameOver    = errors.New("game: game is over")
)

// Outcome is the state of a game.
type Outcome uint8

const (
	Ongoing Outcome = iota
	WhiteWins
	BlackWins
	DrawStalemate
	DrawInsufficient
	DrawRepetition
	DrawFiftyMove
)

var outcomeNames = [...]string{
	Ongoing:          "ongoing",
	WhiteWins:        "white wins by checkmate",
	BlackWins:        "black wins by checkmate",
	DrawStalemate:    "draw by stalemate",
	DrawInsufficient: "draw by insufficient material",
	DrawRepetition:   "draw by threefold repetition",
	DrawFiftyMove:    "draw by 50-move rule",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// IsDraw reports whether o is one of the drawn outcomes.
func (o Outcome) IsDraw() bool { return o >= DrawStalemate }

// Result returns the PGN result token.
func (o Outcome) Result() string {
	switch {
	case o == WhiteWins:
		return "1-0"
	case o == BlackWins:
		return "0-1"
	case o.IsDraw():
		return "1/2-1/2"
	}
	return "*"
}

// Game is a game in progress.
type Game struct {
	startFEN    string
	position    board.Position
	moveHistory []board.Move
	repetitions map[string]int // Keyed by the first four FEN fields
}

// New starts a game from the standard position.
func New() *Game {
	g, _ := FromFEN(board.StartFEN)
	return g
}

// FromFEN starts a game from fen.
func FromFEN(fen string) (*Game, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	g := &Game{
		startFEN:    pos.ToFEN(),
		position:    pos,
		repetitions: make(map[string]int),
	}
	g.repetitions[repetitionKey(&pos)]++
	return g, nil
}

func repetitionKey(pos *board.Position) string {
	return strings.Join(strings.Fields(pos.ToFEN())[:4], " ")
}

// Position returns the current position.
func (g *Game) Position() board.Position { return g.position }

// Moves returns the moves played so far.
func (g *Game) Moves() []board.Move { return g.moveHistory }

// Play applies m if the game is still going and m is legal in the current
// position.
func (g *Game) Play(m board.Move) error {
	if g.Outcome() != Ongoing {
		return ErrGameOver
	}
	return g.apply(m)
}

// PlayText parses coordinate move text and plays it.
func (g *Game) PlayText(s string) error {
	m := board.ParseMove(s, &g.position)
	if m == board.NoMove {
		return fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}
	return g.Play(m)
}

// Replay applies coordinate move text from a recorded move list. Unlike
// PlayText it ignores claimable draws, so a history that passes through a
// repetition or the fifty-move mark keeps going. Moves after mate or
// stalemate are still illegal.
func (g *Game) Replay(s string) error {
	m := board.ParseMove(s, &g.position)
	if m == board.NoMove {
		return fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}
	return g.apply(m)
}

func (g *Game) apply(m board.Move) error {
	if m == board.NoMove || !g.position.GenerateLegalMoves().Contains(m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	g.position = g.position.MakeMove(m)
	g.moveHistory = append(g.moveHistory, m)
	g.repetitions[repetitionKey(&g.position)]++
	return nil
}

// Outcome classifies the current position, checking mate and stalemate
// before the draw rules.
func (g *Game) Outcome() Outcome {
	switch g.position.Status() {
	case board.Checkmate:
		if g.position.SideToMove == board.White {
			return BlackWins
		}
		return WhiteWins
	case board.Stalemate:
		return DrawStalemate
	}
	switch {
	case IsInsufficientMaterial(&g.position):
		return DrawInsufficient
	case g.repetitions[repetitionKey(&g.position)] >= 3:
		return DrawRepetition
	case g.position.HalfMoveClock >= 100:
		return DrawFiftyMove
	}
	return Ongoing
}

// IsInsufficientMaterial reports positions where neither side can mate:
// bare kings, a single minor piece, or one bishop each on the same colour.
func IsInsufficientMaterial(pos *board.Position) bool {
	for c := board.White; c <= board.Black; c++ {
		if pos.Pieces[c][board.Pawn]|pos.Pieces[c][board.Rook]|pos.Pieces[c][board.Queen] != 0 {
			return false
		}
	}
	wn, bn := pos.Pieces[board.White][board.Knight].PopCount(), pos.Pieces[board.Black][board.Knight].PopCount()
	wb, bb := pos.Pieces[board.White][board.Bishop].PopCount(), pos.Pieces[board.Black][board.Bishop].PopCount()

	switch minors := wn + bn + wb + bb; {
	case minors <= 1:
		return true
	case minors == 2 && wb == 1 && bb == 1:
		return squareColor(pos.Pieces[board.White][board.Bishop].LSB()) ==
			squareColor(pos.Pieces[board.Black][board.Bishop].LSB())
	}
	return false
}

func squareColor(sq board.Square) int {
	return (sq.File() + sq.Rank()) & 1
}

// SelfPlay lets eng play both sides until the game ends, maxPlies moves
// have been made or ctx is cancelled.
func (g *Game) SelfPlay(ctx context.Context, eng *engine.Engine, limits engine.SearchLimits, maxPlies int) (Outcome, error) {
	for ply := 0; maxPlies <= 0 || ply < maxPlies; ply++ {
		if o := g.Outcome(); o != Ongoing {
			log.Info().Str("outcome", o.String()).Int("plies", len(g.moveHistory)).Msg("game-over")
			return o, nil
		}
		if err := ctx.Err(); err != nil {
			return Ongoing, err
		}

		res := eng.Search(ctx, g.position, limits)
		if err := g.Play(res.Move); err != nil {
			return Ongoing, fmt.Errorf("ply %d: %w", ply, err)
		}
		log.Debug().
			Int("ply", len(g.moveHistory)).
			Str("move", res.Move.String()).
			Int("score", res.Score).
			Int("depth", res.Depth).
			Msg("self-play-move")
	}
	return g.Outcome(), nil
}

// PGN exports the game in SAN, replaying the moves through
// github.com/notnil/chess.
func (g *Game) PGN() (string, error) {
	var opts []func(*chess.Game)
	if g.startFEN != board.StartFEN {
		fen, err := chess.FEN(g.startFEN)
		if err != nil {
			return "", fmt.Errorf("pgn start position: %w", err)
		}
		opts = append(opts, fen)
	}
	cg := chess.NewGame(opts...)
	cg.AddTagPair("Event", "lumin")
	if g.startFEN != board.StartFEN {
		cg.AddTagPair("SetUp", "1")
		cg.AddTagPair("FEN", g.startFEN)
	}

	for i, m := range g.moveHistory {
		move, err := chess.UCINotation{}.Decode(cg.Position(), m.String())
		if err == nil {
			err = cg.Move(move)
		}
		if err != nil {
			return "", fmt.Errorf("pgn move %d %s: %w", i+1, m, err)
		}
	}

	// notnil/chess only claims these draws when asked.
	o := g.Outcome()
	var method chess.Method
	switch o {
	case DrawRepetition:
		method = chess.ThreefoldRepetition
	case DrawFiftyMove:
		method = chess.FiftyMoveRule
	}
	if method != chess.NoMethod {
		if err := cg.Draw(method); err != nil {
			log.Debug().Err(err).Str("outcome", o.String()).Msg("pgn-draw-not-claimed")
		}
	}
	if o != Ongoing {
		cg.AddTagPair("Termination", o.String())
	}
	return cg.String(), nil
}
