package board

import "testing"

var rookRelevantBits = [64]int{
	12, 11, 11, 11, 11, 11, 11, 12,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	11, 10, 10, 10, 10, 10, 10, 11,
	12, 11, 11, 11, 11, 11, 11, 12,
}

var bishopRelevantBits = [64]int{
	6, 5, 5, 5, 5, 5, 5, 6,
	5, 5, 5, 5, 5, 5, 5, 5,
	5, 5, 7, 7, 7, 7, 5, 5,
	5, 5, 7, 9, 9, 7, 5, 5,
	5, 5, 7, 9, 9, 7, 5, 5,
	5, 5, 7, 7, 7, 7, 5, 5,
	5, 5, 5, 5, 5, 5, 5, 5,
	6, 5, 5, 5, 5, 5, 5, 6,
}

func TestRelevantBits(t *testing.T) {
	for sq := A8; sq <= H1; sq++ {
		if got := rookMask(sq).PopCount(); got != rookRelevantBits[sq] {
			t.Errorf("rook mask %s has %d bits, want %d", sq, got, rookRelevantBits[sq])
		}
		if got := bishopMask(sq).PopCount(); got != bishopRelevantBits[sq] {
			t.Errorf("bishop mask %s has %d bits, want %d", sq, got, bishopRelevantBits[sq])
		}
	}
}

// TestMagicMatchesRayCast checks every square against every subset of its
// relevance mask.
func TestMagicMatchesRayCast(t *testing.T) {
	tests := []struct {
		name   string
		mask   func(Square) Bitboard
		slow   func(Square, Bitboard) Bitboard
		lookup func(Square, Bitboard) Bitboard
	}{
		{"rook", rookMask, rookAttacksSlow, RookAttacks},
		{"bishop", bishopMask, bishopAttacksSlow, BishopAttacks},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for sq := A8; sq <= H1; sq++ {
				mask := tc.mask(sq)
				bits := mask.PopCount()
				for i := 0; i < 1<<bits; i++ {
					occ := indexToOccupancy(i, bits, mask)
					if got, want := tc.lookup(sq, occ), tc.slow(sq, occ); got != want {
						t.Fatalf("%s on %s, occ %#x: got %#x, want %#x", tc.name, sq, uint64(occ), uint64(got), uint64(want))
					}
					// Squares outside the mask must not change the answer.
					if got, want := tc.lookup(sq, occ|^mask), tc.slow(sq, occ|^mask); got != want {
						t.Fatalf("%s on %s with edges: got %#x, want %#x", tc.name, sq, uint64(got), uint64(want))
					}
				}
			}
		})
	}
}

func TestQueenAttacksIsUnion(t *testing.T) {
	occ := SquareBB(D2) | SquareBB(F6) | SquareBB(B4)
	sq := D4
	if got, want := QueenAttacks(sq, occ), RookAttacks(sq, occ)|BishopAttacks(sq, occ); got != want {
		t.Errorf("queen attacks = %#x, want %#x", uint64(got), uint64(want))
	}
}

func TestLeaperAttacks(t *testing.T) {
	tests := []struct {
		name string
		got  Bitboard
		want []Square
	}{
		{"knight a8", KnightAttacks(A8), []Square{B6, C7}},
		{"knight e4", KnightAttacks(E4), []Square{D6, F6, C5, G5, C3, G3, D2, F2}},
		{"king h1", KingAttacks(H1), []Square{G1, G2, H2}},
		{"white pawn e4", PawnAttacks(E4, White), []Square{D5, F5}},
		{"black pawn a5", PawnAttacks(A5, Black), []Square{B4}},
		{"white pawn h2", PawnAttacks(H2, White), []Square{G3}},
	}
	for _, tc := range tests {
		var want Bitboard
		for _, sq := range tc.want {
			want |= SquareBB(sq)
		}
		if tc.got != want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got.Squares(), tc.want)
		}
	}
}

func TestSquareLayout(t *testing.T) {
	tests := []struct {
		sq         Square
		name       string
		file, rank int
	}{
		{A8, "a8", 0, 7},
		{H8, "h8", 7, 7},
		{A1, "a1", 0, 0},
		{H1, "h1", 7, 0},
		{E4, "e4", 4, 3},
	}
	for _, tc := range tests {
		if tc.sq.String() != tc.name || tc.sq.File() != tc.file || tc.sq.Rank() != tc.rank {
			t.Errorf("square %d: got %s file %d rank %d", tc.sq, tc.sq, tc.sq.File(), tc.sq.Rank())
		}
		if NewSquare(tc.file, tc.rank) != tc.sq {
			t.Errorf("NewSquare(%d, %d) = %d, want %d", tc.file, tc.rank, NewSquare(tc.file, tc.rank), tc.sq)
		}
		if parsed, err := ParseSquare(tc.name); err != nil || parsed != tc.sq {
			t.Errorf("ParseSquare(%q) = %d, %v", tc.name, parsed, err)
		}
	}
	if A8 != 0 || H1 != 63 || A1.Mirror() != A8 {
		t.Error("unexpected square numbering")
	}
}
