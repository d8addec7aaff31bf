package board

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/notnil/chess"
)

var oracleFENs = []string{
	StartFEN,
	kiwipeteFEN,
	position3FEN,
	position4FEN,
	position5FEN,
	"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
	"8/2P5/8/8/8/8/5k1p/K7 w - - 0 1",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
}

func dragontoothPerft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += dragontoothPerft(b, depth-1)
		unapply()
	}
	return nodes
}

// TestPerftAgainstDragontooth compares node counts with an independent
// generator.
func TestPerftAgainstDragontooth(t *testing.T) {
	depth := 3
	if testing.Short() {
		depth = 2
	}
	for _, fen := range oracleFENs {
		b := dragontoothmg.ParseFen(fen)
		want := dragontoothPerft(&b, depth)
		if got := Perft(MustParseFEN(fen), depth); got != want {
			t.Errorf("%s: perft(%d) = %d, dragontoothmg says %d", fen, depth, got, want)
		}
	}
}

// TestLegalMovesAgainstNotnil compares the legal move sets with
// github.com/notnil/chess for each test position.
func TestLegalMovesAgainstNotnil(t *testing.T) {
	for _, fen := range oracleFENs {
		opt, err := chess.FEN(fen)
		if err != nil {
			t.Fatalf("notnil FEN(%q): %v", fen, err)
		}
		game := chess.NewGame(opt)
		pos := MustParseFEN(fen)

		want := make(map[string]bool)
		for _, m := range game.ValidMoves() {
			want[m.String()] = true
		}
		got := legalStrings(&pos)
		if len(got) != len(want) {
			t.Errorf("%s: %d legal moves, notnil has %d", fen, len(got), len(want))
			continue
		}
		for s := range want {
			if !got[s] {
				t.Errorf("%s: missing %s", fen, s)
			}
		}
	}
}
