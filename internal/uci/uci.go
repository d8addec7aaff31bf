// Package uci implements a UCI-style line protocol over an io.Reader and
// io.Writer, with perft and divide as debug commands.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/lumin/internal/board"
	"github.com/hailam/lumin/internal/engine"
	"github.com/hailam/lumin/internal/game"
	"github.com/hailam/lumin/internal/storage"
)

// ErrQuit is returned by Run when the peer sends "quit".
var ErrQuit = errors.New("uci: quit")

// infiniteTime is the budget of "go infinite"; the search runs until "stop".
const infiniteTime = 24 * time.Hour

// UCI implements the protocol for one engine.
type UCI struct {
	in     io.Reader
	out    io.Writer
	outMu  sync.Mutex
	engine *engine.Engine
	store  *storage.Store // Optional analysis cache
	game   *game.Game

	// Search state
	searchCancel context.CancelFunc
	searchDone   chan struct{}
}

// New creates a protocol handler. store may be nil.
func New(eng *engine.Engine, store *storage.Store, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		in:     in,
		out:    out,
		engine: eng,
		store:  store,
		game:   game.New(),
	}
}

// Run reads commands until EOF, "quit" or ctx is cancelled. At EOF it
// waits for a running search to report; on "quit" it stops the search and
// returns ErrQuit.
func (u *UCI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(u.in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			u.handleStop()
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := u.Handle(ctx, line); err != nil {
			return err
		}
	}
	u.waitSearch()
	return scanner.Err()
}

// Handle executes one command line.
func (u *UCI) Handle(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd, args := parts[0], parts[1:]
	log.Debug().Str("cmd", cmd).Strs("args", args).Msg("uci-command")

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleStop()
		u.game = game.New()
	case "position":
		u.handleStop()
		u.handlePosition(args)
	case "go":
		u.handleGo(ctx, args)
	case "stop":
		u.handleStop()
	case "quit":
		u.handleStop()
		return ErrQuit
	case "setoption":
		u.handleStop()
		u.handleSetOption(args)
	// Debug commands
	case "d":
		pos := u.game.Position()
		u.println(pos.String())
	case "fen":
		pos := u.game.Position()
		u.println(pos.ToFEN())
	case "eval":
		pos := u.game.Position()
		u.printf("eval %d (side to move)\n", engine.Evaluate(&pos))
	case "perft":
		u.handleStop()
		u.handlePerft(ctx, args, false)
	case "divide":
		u.handleStop()
		u.handlePerft(ctx, args, true)
	default:
		u.printf("info string unknown command: %s\n", cmd)
	}
	return nil
}

func (u *UCI) println(s string) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintln(u.out, s)
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	cfg := u.engine.Config()
	u.println("id name Lumin")
	u.println("id author Lumin developers")
	u.println("")
	u.printf("option name Threads type spin default %d min 1 max 256\n", cfg.Threads)
	u.printf("option name MoveTime type spin default %d min 1 max 600000\n", cfg.MoveTime.Milliseconds())
	u.println("uciok")
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var g *game.Game
	switch args[0] {
	case "startpos":
		g = game.New()
	case "fen":
		var err error
		g, err = game.FromFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string invalid fen: %v\n", err)
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			if err := g.Replay(s); err != nil {
				u.printf("info string invalid move: %s\n", s)
				break
			}
		}
	}
	u.game = g
}

// goOptions holds parsed "go" command options.
type goOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

func parseGoOptions(args []string) goOptions {
	var opts goOptions
	millis := func(i int) time.Duration {
		ms, _ := strconv.Atoi(args[i])
		return time.Duration(ms) * time.Millisecond
	}
	for i := 0; i < len(args); i++ {
		if args[i] == "infinite" {
			opts.Infinite = true
			continue
		}
		if i+1 >= len(args) {
			break
		}
		switch args[i] {
		case "depth":
			opts.Depth, _ = strconv.Atoi(args[i+1])
		case "movetime":
			opts.MoveTime = millis(i + 1)
		case "wtime":
			opts.WTime = millis(i + 1)
		case "btime":
			opts.BTime = millis(i + 1)
		case "winc":
			opts.WInc = millis(i + 1)
		case "binc":
			opts.BInc = millis(i + 1)
		case "movestogo":
			opts.MovesToGo, _ = strconv.Atoi(args[i+1])
		default:
			continue
		}
		i++
	}
	return opts
}

// searchLimits converts goOptions to engine.SearchLimits.
func searchLimits(opts goOptions, us board.Color, ply int) engine.SearchLimits {
	limits := engine.SearchLimits{Depth: opts.Depth}
	switch {
	case opts.Infinite:
		limits.MoveTime = infiniteTime
	case opts.MoveTime > 0:
		limits.MoveTime = opts.MoveTime
	case opts.WTime > 0 || opts.BTime > 0:
		limits.MoveTime = timeForMove(opts, us, ply)
	case opts.Depth > 0:
		limits.MoveTime = infiniteTime
	}
	return limits
}

// timeForMove splits the remaining clock over the expected number of moves
// and adds most of the increment.
func timeForMove(opts goOptions, us board.Color, ply int) time.Duration {
	ourTime, ourInc := opts.WTime, opts.WInc
	if us == board.Black {
		ourTime, ourInc = opts.BTime, opts.BInc
	}

	mtg := opts.MovesToGo
	if mtg == 0 {
		mtg = min(max(50-ply/4, 10), 50)
	}
	moveTime := ourTime/time.Duration(mtg) + ourInc*9/10
	moveTime = min(moveTime, ourTime*9/10)
	moveTime = max(moveTime, 10*time.Millisecond)

	log.Debug().
		Dur("allocated", moveTime).
		Int("moves_to_go", mtg).
		Dur("our_time", ourTime).
		Dur("our_inc", ourInc).
		Msg("time-allocated")
	return moveTime
}

// handleGo starts a search in the background. The result is printed as
// "bestmove" when it completes or "stop" arrives.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()

	pos := u.game.Position()
	opts := parseGoOptions(args)
	limits := searchLimits(opts, pos.SideToMove, len(u.game.Moves()))
	fen := pos.ToFEN()

	if u.store != nil && opts.Depth > 0 {
		if rec, err := u.store.LoadAnalysis(fen); err == nil && rec.Depth >= opts.Depth {
			if m := board.ParseMove(rec.Move, &pos); m != board.NoMove {
				u.printf("info depth %d %s string cached\n", rec.Depth, formatScore(rec.Score, rec.Depth))
				u.printf("bestmove %s\n", m)
				return
			}
		}
	}

	u.engine.OnInfo = u.sendInfo
	searchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.searchCancel, u.searchDone = cancel, done

	go func() {
		defer close(done)
		res := u.engine.Search(searchCtx, pos, limits)
		u.printf("bestmove %s\n", res.Move)

		if u.store != nil && res.Move != board.NoMove && res.Depth > 0 {
			err := u.store.SaveAnalysis(storage.AnalysisRecord{
				FEN:   fen,
				Move:  res.Move.String(),
				Score: res.Score,
				Depth: res.Depth,
				Nodes: res.Nodes,
			})
			if err != nil {
				log.Warn().Err(err).Msg("cache-analysis-failed")
			}
		}
	}()
}

func formatScore(score, depth int) string {
	if n := engine.MateIn(score, depth); n != 0 {
		return fmt.Sprintf("score mate %d", n)
	}
	return fmt.Sprintf("score cp %d", score)
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		formatScore(info.Score, info.Depth),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	parts = append(parts, "pv "+info.Move.String())
	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchCancel == nil {
		return
	}
	u.searchCancel()
	u.waitSearch()
}

func (u *UCI) waitSearch() {
	if u.searchDone == nil {
		return
	}
	<-u.searchDone
	u.searchCancel()
	u.searchCancel, u.searchDone = nil, nil
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var cur *[]string
	for _, a := range args {
		switch a {
		case "name":
			cur = &name
		case "value":
			cur = &value
		default:
			if cur != nil {
				*cur = append(*cur, a)
			}
		}
	}

	cfg := u.engine.Config()
	n, err := strconv.Atoi(strings.Join(value, ""))
	if err != nil || n < 1 {
		u.printf("info string bad value for %s\n", strings.Join(name, " "))
		return
	}
	switch strings.ToLower(strings.Join(name, " ")) {
	case "threads":
		cfg.Threads = n
	case "movetime":
		cfg.MoveTime = time.Duration(n) * time.Millisecond
	default:
		u.printf("info string unknown option %s\n", strings.Join(name, " "))
		return
	}
	u.engine = engine.NewEngine(cfg)
}

// handlePerft runs perft or divide on the current position, serving
// repeated requests from the store when one is configured.
func (u *UCI) handlePerft(ctx context.Context, args []string, divide bool) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil {
			depth = d
		}
	}
	pos := u.game.Position()
	fen := pos.ToFEN()

	rec, err := u.loadPerft(fen, depth, divide)
	if err != nil {
		start := time.Now()
		entries, err := board.DivideParallel(ctx, pos, depth, u.engine.Config().Threads)
		if err != nil {
			u.printf("info string perft aborted: %v\n", err)
			return
		}
		rec = storage.PerftRecord{
			FEN:     fen,
			Depth:   depth,
			Nodes:   board.DivideTotal(entries),
			Divide:  entries,
			Elapsed: time.Since(start),
		}
		if depth == 0 {
			rec.Nodes = 1
		}
		if u.store != nil {
			if err := u.store.SavePerft(rec); err != nil {
				log.Warn().Err(err).Msg("cache-perft-failed")
			}
		}
	}

	if divide {
		for _, e := range rec.Divide {
			u.printf("%s: %d\n", e.Move, e.Nodes)
		}
		u.println("")
	}
	u.printf("Nodes: %d\n", rec.Nodes)
	u.printf("Time: %v\n", rec.Elapsed)
	if rec.Elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(rec.Nodes)/rec.Elapsed.Seconds())
	}
}

func (u *UCI) loadPerft(fen string, depth int, divide bool) (storage.PerftRecord, error) {
	if u.store == nil {
		return storage.PerftRecord{}, storage.ErrNotFound
	}
	rec, err := u.store.LoadPerft(fen, depth)
	if err == nil && divide && len(rec.Divide) == 0 && depth > 0 {
		return rec, storage.ErrNotFound
	}
	return rec, err
}
