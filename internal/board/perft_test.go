package board

import (
	"context"
	"os"
	"testing"
)

const (
	kiwipeteFEN  = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	position3FEN = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	position4FEN = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	position5FEN = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
)

type perftCase struct {
	depth    int
	expected uint64
	// slow cases only run without -short; deep ones also need LUMIN_DEEP_PERFT=1.
	slow, deep bool
}

func runPerftCases(t *testing.T, fen string, cases []perftCase) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	for _, tc := range cases {
		if tc.slow && testing.Short() {
			continue
		}
		if tc.deep && os.Getenv("LUMIN_DEEP_PERFT") != "1" {
			continue
		}
		got := Perft(pos, tc.depth)
		if got != tc.expected {
			t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	runPerftCases(t, StartFEN, []perftCase{
		{depth: 1, expected: 20},
		{depth: 2, expected: 400},
		{depth: 3, expected: 8902},
		{depth: 4, expected: 197281},
		{depth: 5, expected: 4865609, slow: true},
		{depth: 6, expected: 119060324, slow: true, deep: true},
	})
}

// TestPerftKiwipete covers castling, en passant and promotions together.
func TestPerftKiwipete(t *testing.T) {
	runPerftCases(t, kiwipeteFEN, []perftCase{
		{depth: 1, expected: 48},
		{depth: 2, expected: 2039},
		{depth: 3, expected: 97862},
		{depth: 4, expected: 4085603, slow: true},
	})
}

func TestPerftPosition3(t *testing.T) {
	runPerftCases(t, position3FEN, []perftCase{
		{depth: 1, expected: 14},
		{depth: 2, expected: 191},
		{depth: 3, expected: 2812},
		{depth: 4, expected: 43238},
		{depth: 5, expected: 674624, slow: true},
	})
}

func TestPerftPosition4(t *testing.T) {
	runPerftCases(t, position4FEN, []perftCase{
		{depth: 1, expected: 6},
		{depth: 2, expected: 264},
		{depth: 3, expected: 9467},
		{depth: 4, expected: 422333, slow: true},
	})
}

func TestPerftPosition5(t *testing.T) {
	runPerftCases(t, position5FEN, []perftCase{
		{depth: 1, expected: 44},
		{depth: 2, expected: 1486},
		{depth: 3, expected: 62379},
	})
}

// TestPerftEnPassantPin: capturing en passant would expose the black king
// along the fourth rank.
func TestPerftEnPassantPin(t *testing.T) {
	runPerftCases(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []perftCase{
		{depth: 1, expected: 6},
		{depth: 2, expected: 94},
	})
}

func TestPerftShallowDepths(t *testing.T) {
	pos := NewPosition()
	for _, depth := range []int{0, -1, -5} {
		if got := Perft(pos, depth); got != 1 {
			t.Errorf("Perft(start, %d) = %d, want 1", depth, got)
		}
	}
	total, err := PerftParallel(context.Background(), pos, -1, 2)
	if err != nil || total != 1 {
		t.Errorf("PerftParallel(start, -1) = %d, %v, want 1", total, err)
	}
	if entries := Divide(pos, -1); len(entries) != 0 {
		t.Errorf("Divide(start, -1) has %d entries, want none", len(entries))
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := MustParseFEN(kiwipeteFEN)
	entries := Divide(pos, 2)
	if len(entries) != 48 {
		t.Fatalf("divide has %d entries, want 48", len(entries))
	}
	if got := DivideTotal(entries); got != 2039 {
		t.Errorf("divide total = %d, want 2039", got)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Move >= entries[i].Move {
			t.Fatalf("divide not sorted at %d: %s >= %s", i, entries[i-1].Move, entries[i].Move)
		}
	}
}

func TestDivideParallelMatchesDivide(t *testing.T) {
	pos := NewPosition()
	want := Divide(pos, 3)
	got, err := DivideParallel(context.Background(), pos, 3, 4)
	if err != nil {
		t.Fatalf("DivideParallel: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	total, err := PerftParallel(context.Background(), pos, 4, 0)
	if err != nil {
		t.Fatalf("PerftParallel: %v", err)
	}
	if total != 197281 {
		t.Errorf("PerftParallel(4) = %d, want 197281", total)
	}
}

func TestDivideParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DivideParallel(ctx, NewPosition(), 3, 2); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
