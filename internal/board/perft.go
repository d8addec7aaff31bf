package board

import (
	"context"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Perft counts the leaf nodes of the legal move tree to the given depth.
// Only children in which the side to move actually changed are counted.
// A depth below 1 counts the position itself.
func Perft(pos Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	var nodes uint64
	for _, m := range moves.Slice() {
		child := pos.MakeMove(m)
		if child.SideToMove == pos.SideToMove {
			continue
		}
		if depth == 1 {
			nodes++
			continue
		}
		nodes += Perft(child, depth-1)
	}
	return nodes
}

// DivideEntry is the subtree count below one root move.
type DivideEntry struct {
	Move  string `json:"move"`
	Nodes uint64 `json:"nodes"`
}

// Divide returns the perft count below each legal root move, sorted by
// move text. The counts sum to Perft(pos, depth).
func Divide(pos Position, depth int) []DivideEntry {
	if depth < 1 {
		return nil
	}
	moves := pos.GenerateLegalMoves().Slice()
	entries := make([]DivideEntry, 0, len(moves))
	for _, m := range moves {
		entries = append(entries, DivideEntry{
			Move:  m.String(),
			Nodes: Perft(pos.MakeMove(m), depth-1),
		})
	}
	sortDivide(entries)
	return entries
}

// DivideParallel is Divide with the root moves spread over at most workers
// goroutines. It stops early when ctx is cancelled.
func DivideParallel(ctx context.Context, pos Position, depth, workers int) ([]DivideEntry, error) {
	if depth < 1 {
		return nil, nil
	}
	moves := pos.GenerateLegalMoves().Slice()
	entries := make([]DivideEntry, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = DivideEntry{Move: m.String(), Nodes: Perft(pos.MakeMove(m), depth-1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortDivide(entries)
	return entries, nil
}

// PerftParallel is Perft with the root moves spread over workers goroutines.
func PerftParallel(ctx context.Context, pos Position, depth, workers int) (uint64, error) {
	if depth < 2 {
		return Perft(pos, depth), nil
	}
	entries, err := DivideParallel(ctx, pos, depth, workers)
	if err != nil {
		return 0, err
	}
	return DivideTotal(entries), nil
}

// DivideTotal sums the node counts of a divide result.
func DivideTotal(entries []DivideEntry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	return total
}

func sortDivide(entries []DivideEntry) {
	slices.SortFunc(entries, func(a, b DivideEntry) bool { return a.Move < b.Move })
}
