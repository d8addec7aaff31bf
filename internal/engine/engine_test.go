package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/lumin/internal/board"
)

const (
	// Ra8 mates at once.
	mateInOneFEN = "6k1/8/6K1/8/8/8/8/R7 w - - 0 1"
	// Two rooks ladder: 1.Ra7 (or Rb7) Kg8 2.Rb8# (or Ra8#).
	mateInTwoFEN = "7k/8/8/8/8/8/R7/1R5K w - - 0 1"
	// 1.Re8+ Rxe8 2.Rxe8#: the mating capture lies past a depth 2 horizon.
	backRankFEN  = "3r2k1/5ppp/8/8/8/8/4RPPP/4R1K1 w - - 0 1"
	kiwipeteFEN  = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
)

func testEngine(threads int) *Engine {
	return NewEngine(Config{
		Threads:         threads,
		MoveTime:        time.Minute,
		MaxDepth:        DefaultMaxDepth,
		QuiescenceDepth: DefaultQuiescenceDepth,
		Logger:          zerolog.Nop(),
	})
}

func testSession() *searchSession {
	return newSearchSession(context.Background(), NewTimeManager(time.Minute), DefaultQuiescenceDepth, zerolog.Nop())
}

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	res := testEngine(1).Search(context.Background(), pos, SearchLimits{Depth: 3})
	if res.Move == board.NoMove {
		t.Fatal("Search returned NoMove for starting position")
	}
	if !pos.GenerateLegalMoves().Contains(res.Move) {
		t.Errorf("%s is not legal", res.Move)
	}
	if res.Depth != 3 {
		t.Errorf("completed depth = %d, want 3", res.Depth)
	}
	if len(res.RootScores) != 20 {
		t.Errorf("%d root scores, want 20", len(res.RootScores))
	}
	t.Logf("Best move: %s (%s, %d nodes)", res.Move, ScoreToString(res.Score, res.Depth), res.Nodes)
}

func TestSearchFindsMate(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		depth  int
		mateIn int
	}{
		{"mate in one", mateInOneFEN, 1, 1},
		{"mate in two", mateInTwoFEN, 3, 2},
		{"mate in two through captures", backRankFEN, 2, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := board.MustParseFEN(tc.fen)
			res := testEngine(1).Search(context.Background(), pos, SearchLimits{Depth: tc.depth + 2})
			if !IsMateScore(res.Score) || res.Score < 0 {
				t.Fatalf("score %d is not a winning mate", res.Score)
			}
			if res.Depth != tc.depth {
				t.Errorf("deepening went to %d, want stop at %d", res.Depth, tc.depth)
			}
			if got := MateIn(res.Score, res.Depth); got != tc.mateIn {
				t.Errorf("MateIn = %d, want %d", got, tc.mateIn)
			}
			if !forcesMate(pos.MakeMove(res.Move), tc.mateIn-1) {
				t.Errorf("%s does not force mate in %d", res.Move, tc.mateIn)
			}
		})
	}
}

// forcesMate reports whether every defence in pos (defender to move) loses
// to a mate within n more attacker moves.
func forcesMate(pos board.Position, n int) bool {
	if pos.Status() == board.Checkmate {
		return true
	}
	if n == 0 {
		return false
	}
	for _, reply := range pos.GenerateLegalMoves().Slice() {
		after := pos.MakeMove(reply)
		found := false
		for _, m := range after.GenerateLegalMoves().Slice() {
			if forcesMate(after.MakeMove(m), n-1) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestSearchMonotonicOnForcedMate(t *testing.T) {
	pos := board.MustParseFEN(mateInTwoFEN)
	eng := testEngine(1)
	shallow := eng.Search(context.Background(), pos, SearchLimits{Depth: 1})
	deep := eng.Search(context.Background(), pos, SearchLimits{Depth: 4})
	if deep.Score < shallow.Score {
		t.Errorf("deeper search scored %d, below depth 1's %d", deep.Score, shallow.Score)
	}
	if deep.Depth < shallow.Depth {
		t.Errorf("deeper search completed depth %d < %d", deep.Depth, shallow.Depth)
	}
}

// TestThreadedRootAgreesWithSingle checks that the threaded root's choice
// scores exactly what a full-window single search gives that move.
func TestThreadedRootAgreesWithSingle(t *testing.T) {
	const depth = 3
	fens := []string{board.StartFEN, kiwipeteFEN}
	if testing.Short() {
		fens = fens[:1]
	}
	for _, fen := range fens {
		pos := board.MustParseFEN(fen)
		threaded := testEngine(4).Search(context.Background(), pos, SearchLimits{Depth: depth})
		single := testEngine(1).Search(context.Background(), pos, SearchLimits{Depth: depth})
		if threaded.Depth != depth || single.Depth != depth {
			t.Fatalf("%s: incomplete search (threaded %d, single %d)", fen, threaded.Depth, single.Depth)
		}

		w := newWorker(0, testSession())
		child := pos.MakeMove(threaded.Move)
		want := -w.negamax(&child, depth-1, -Infinity, Infinity)
		if threaded.Score != want {
			t.Errorf("%s: threaded %s scored %d, single negamax says %d", fen, threaded.Move, threaded.Score, want)
		}
		if threaded.Score != single.Score {
			t.Errorf("%s: threaded best %d, single best %d", fen, threaded.Score, single.Score)
		}
	}
}

func TestNoLegalMoves(t *testing.T) {
	for _, fen := range []string{
		"R6k/6pp/8/8/8/8/8/K7 b - - 0 1", // checkmated
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", // stalemated
	} {
		if m := FindBestMove(board.MustParseFEN(fen)); m != board.NoMove {
			t.Errorf("%s: FindBestMove = %s, want NoMove", fen, m)
		}
	}
}

func TestCancelledSearchStillMoves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pos := board.NewPosition()
	res := testEngine(2).Search(ctx, pos, SearchLimits{})
	if res.Move == board.NoMove || !pos.GenerateLegalMoves().Contains(res.Move) {
		t.Errorf("cancelled search returned %s, want a legal fallback", res.Move)
	}
	if res.Depth != 0 {
		t.Errorf("cancelled search completed depth %d", res.Depth)
	}
}

func TestStopKeepsLastCompletedDepth(t *testing.T) {
	eng := testEngine(1)
	eng.OnInfo = func(info SearchInfo) {
		if info.Depth == 2 {
			eng.Stop()
		}
	}
	res := eng.Search(context.Background(), board.NewPosition(), SearchLimits{})
	if res.Depth != 2 {
		t.Errorf("completed depth = %d, want 2", res.Depth)
	}
}

func TestMateIn(t *testing.T) {
	tests := []struct {
		score, depth, want int
	}{
		{MateScore + 2, 3, 1},
		{MateScore, 3, 2},
		{MateScore - 1, 2, 2},
		{-(MateScore - 2), 1, -2},
		{-(MateScore + 1), 3, -1},
		{150, 5, 0},
		{KingMissingScore, 5, 0},
	}
	for _, tc := range tests {
		if got := MateIn(tc.score, tc.depth); got != tc.want {
			t.Errorf("MateIn(%d, %d) = %d, want %d", tc.score, tc.depth, got, tc.want)
		}
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score, depth int
		want         string
	}{
		{35, 4, "0.35"},
		{-120, 4, "-1.20"},
		{MateScore + 2, 3, "mate in 1"},
		{-(MateScore + 1), 3, "mated in 1"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score, tc.depth); got != tc.want {
			t.Errorf("ScoreToString(%d, %d) = %q, want %q", tc.score, tc.depth, got, tc.want)
		}
	}
}
