// Command lumin is a chess engine. With no mode flag it speaks UCI on
// stdin and stdout; the flags run one-shot perft, divide, search or
// self-play jobs and exit.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/lumin/internal/board"
	"github.com/hailam/lumin/internal/engine"
	"github.com/hailam/lumin/internal/game"
	"github.com/hailam/lumin/internal/storage"
	"github.com/hailam/lumin/internal/uci"
)

var (
	fen        = flag.String("fen", board.StartFEN, "position to work on")
	perftDepth = flag.Int("perft", 0, "count leaf nodes to this depth and exit")
	divide     = flag.Bool("divide", false, "with -perft, print per-move counts")
	asJSON     = flag.Bool("json", false, "with -perft, print the result as JSON")
	bestmove   = flag.Bool("bestmove", false, "search the position and print the best move")
	moveTime   = flag.Duration("movetime", engine.DefaultMoveTime, "search budget per move")
	depth      = flag.Int("depth", 0, "search depth limit (0 uses the default)")
	threads    = flag.Int("threads", 0, "search threads (0 uses one per CPU)")
	selfPlay   = flag.Int("selfplay", 0, "play the engine against itself for at most this many plies and print the PGN")
	cacheDir   = flag.String("cache", "", "result cache directory (\"default\" for the user data dir, empty disables)")
	cacheList  = flag.Bool("cache-list", false, "list cached perft results and exit")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel   = flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	// stdout carries the protocol; logs go to stderr.
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	if err := run(); err != nil && !errors.Is(err, uci.ErrQuit) {
		log.Fatal().Err(err).Msg("lumin")
	}
}

func run() error {
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profile-enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	cfg := engine.DefaultConfig()
	if *threads > 0 {
		cfg.Threads = *threads
	}
	cfg.MoveTime = *moveTime
	if *depth > 0 {
		cfg.MaxDepth = *depth
	}
	eng := engine.NewEngine(cfg)

	switch {
	case *cacheList:
		return listCache(store)
	case *perftDepth > 0:
		return runPerft(ctx, store, cfg.Threads)
	case *bestmove:
		return runBestMove(ctx, eng)
	case *selfPlay > 0:
		return runSelfPlay(ctx, eng)
	}
	return uci.New(eng, store, os.Stdin, os.Stdout).Run(ctx)
}

func openStore() (*storage.Store, error) {
	dir := *cacheDir
	switch dir {
	case "":
		return nil, nil
	case "default":
		var err error
		if dir, err = storage.DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return storage.Open(storage.Options{Dir: dir})
}

func runPerft(ctx context.Context, store *storage.Store, workers int) error {
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}

	rec, err := storage.PerftRecord{}, storage.ErrNotFound
	if store != nil {
		rec, err = store.LoadPerft(*fen, *perftDepth)
	}
	if err != nil {
		start := time.Now()
		entries, err := board.DivideParallel(ctx, pos, *perftDepth, workers)
		if err != nil {
			return fmt.Errorf("perft: %w", err)
		}
		rec = storage.PerftRecord{
			FEN:     pos.ToFEN(),
			Depth:   *perftDepth,
			Nodes:   board.DivideTotal(entries),
			Divide:  entries,
			Elapsed: time.Since(start),
		}
		if store != nil {
			if err := store.SavePerft(rec); err != nil {
				log.Warn().Err(err).Msg("cache-perft-failed")
			}
		}
	} else {
		log.Debug().Int("depth", rec.Depth).Msg("perft-cache-hit")
	}

	if !*divide {
		rec.Divide = nil
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	for _, e := range rec.Divide {
		fmt.Printf("%s: %d\n", e.Move, e.Nodes)
	}
	if *divide {
		fmt.Println()
	}
	fmt.Printf("Nodes: %d\n", rec.Nodes)
	log.Info().
		Int("depth", rec.Depth).
		Uint64("nodes", rec.Nodes).
		Dur("elapsed", rec.Elapsed).
		Msg("perft-complete")
	return nil
}

func runBestMove(ctx context.Context, eng *engine.Engine) error {
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}
	res := eng.Search(ctx, pos, engine.SearchLimits{})
	if res.Move == board.NoMove {
		fmt.Println("no legal moves")
		return nil
	}
	fmt.Printf("%s %s (depth %d, %d nodes, %v)\n",
		res.Move, engine.ScoreToString(res.Score, res.Depth), res.Depth, res.Nodes, res.Elapsed.Round(time.Millisecond))
	return nil
}

func runSelfPlay(ctx context.Context, eng *engine.Engine) error {
	g, err := game.FromFEN(*fen)
	if err != nil {
		return err
	}
	outcome, err := g.SelfPlay(ctx, eng, engine.SearchLimits{}, *selfPlay)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	pgn, perr := g.PGN()
	if perr != nil {
		return perr
	}
	fmt.Println(pgn)
	log.Info().Str("outcome", outcome.String()).Int("plies", len(g.Moves())).Msg("self-play-finished")
	return nil
}

func listCache(store *storage.Store) error {
	if store == nil {
		return errors.New("-cache-list needs -cache")
	}
	records, err := store.PerftRecords()
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s depth %d: %d nodes (%v)\n", r.FEN, r.Depth, r.Nodes, r.Elapsed)
	}
	return nil
}
