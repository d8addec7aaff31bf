package uci

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/lumin/internal/board"
	"github.com/hailam/lumin/internal/engine"
	"github.com/hailam/lumin/internal/storage"
)

func newTestUCI(t *testing.T, store *storage.Store, input string) (*UCI, *bytes.Buffer) {
	t.Helper()
	eng := engine.NewEngine(engine.Config{Threads: 2, MoveTime: time.Minute, Logger: zerolog.Nop()})
	var out bytes.Buffer
	return New(eng, store, strings.NewReader(input), &out), &out
}

func run(t *testing.T, u *UCI) error {
	t.Helper()
	return u.Run(context.Background())
}

func TestHandshake(t *testing.T) {
	u, out := newTestUCI(t, nil, "uci\nisready\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{"id name Lumin", "option name Threads", "uciok", "readyok"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPositionAndFEN(t *testing.T) {
	tests := []struct {
		name, cmd, want string
	}{
		{"startpos", "position startpos", board.StartFEN},
		{"startpos moves", "position startpos moves e2e4 e7e5",
			"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"},
		{"fen", "position fen 8/8/8/8/8/8/8/K6k b - - 3 40", "8/8/8/8/8/8/8/K6k b - - 3 40"},
		{"fen moves", "position fen 8/8/8/8/8/8/8/K6k b - - 3 40 moves h1g2", "8/8/8/8/8/8/6k1/K7 w - - 4 41"},
		{"through repetition", "position startpos moves g1f3 g8f6 f3g1 f6g8 g1f3 g8f6 f3g1 f6g8 e2e4",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 5"},
		// Moves after an illegal one are dropped.
		{"illegal move", "position startpos moves e2e4 e2e4 e7e5",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, out := newTestUCI(t, nil, tc.cmd+"\nfen\n")
			if err := run(t, u); err != nil {
				t.Fatalf("Run: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if got := lines[len(lines)-1]; got != tc.want {
				t.Errorf("fen = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGoDepthPrintsBestMove(t *testing.T) {
	u, out := newTestUCI(t, nil, "position fen 6k1/8/6K1/8/8/8/8/R7 w - - 0 1\ngo depth 3\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "bestmove a1a8") {
		t.Errorf("expected mate move:\n%s", out)
	}
	if !strings.Contains(out.String(), "score mate 1") {
		t.Errorf("expected mate score in info:\n%s", out)
	}
}

func TestGoWithoutMoves(t *testing.T) {
	u, out := newTestUCI(t, nil, "position fen R6k/6pp/8/8/8/8/8/K7 b - - 0 1\ngo depth 2\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "bestmove 0000") {
		t.Errorf("expected null move:\n%s", out)
	}
}

func TestQuitStopsInfiniteSearch(t *testing.T) {
	u, out := newTestUCI(t, nil, "position startpos\ngo infinite\nquit\n")
	done := make(chan error, 1)
	go func() { done <- run(t, u) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run: err = %v, want ErrQuit", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("quit did not stop the search")
	}
	if !strings.Contains(out.String(), "bestmove ") {
		t.Errorf("no bestmove after stop:\n%s", out)
	}
}

func TestPerftAndDivide(t *testing.T) {
	u, out := newTestUCI(t, nil, "position startpos\nperft 3\ndivide 2\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := out.String()
	for _, want := range []string{"Nodes: 8902", "e2e4: 20", "Nodes: 400"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestCachedResults(t *testing.T) {
	nop := zerolog.Nop()
	store, err := storage.Open(storage.Options{InMemory: true, Logger: &nop})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	u, _ := newTestUCI(t, store, "position startpos\ndivide 2\ngo depth 2\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec, err := store.LoadPerft(board.StartFEN, 2)
	if err != nil || rec.Nodes != 400 || len(rec.Divide) != 20 {
		t.Fatalf("perft not cached: %+v, %v", rec, err)
	}
	best, err := store.LoadAnalysis(board.StartFEN)
	if err != nil || best.Depth != 2 {
		t.Fatalf("analysis not cached: %+v, %v", best, err)
	}

	// A second session answers from the cache.
	u, out := newTestUCI(t, store, "position startpos\ngo depth 2\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "string cached") || !strings.Contains(out.String(), "bestmove "+best.Move) {
		t.Errorf("expected cached answer %s:\n%s", best.Move, out)
	}
}

func TestSetOption(t *testing.T) {
	u, out := newTestUCI(t, nil, "setoption name Threads value 3\nsetoption name Hash value 64\nsetoption name MoveTime value x\n")
	if err := run(t, u); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := u.engine.Config().Threads; got != 3 {
		t.Errorf("Threads = %d, want 3", got)
	}
	if !strings.Contains(out.String(), "unknown option Hash") || !strings.Contains(out.String(), "bad value for MoveTime") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTimeForMove(t *testing.T) {
	opts := goOptions{WTime: 60 * time.Second, BTime: time.Second, WInc: time.Second}
	white := timeForMove(opts, board.White, 0)
	black := timeForMove(opts, board.Black, 0)
	if white <= black {
		t.Errorf("white with more time gets %v, black %v", white, black)
	}
	if white > 54*time.Second {
		t.Errorf("white allocated %v of 60s", white)
	}
	if got := timeForMove(goOptions{BTime: time.Millisecond}, board.Black, 0); got != 10*time.Millisecond {
		t.Errorf("minimum allocation = %v, want 10ms", got)
	}
}
