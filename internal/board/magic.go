package board

// Magic bitboards for sliding piece attacks. Each square owns a slice of a
// flat table; the slot for an occupancy is (occ & mask) * magic >> shift.

// Magic holds the magic bitboard data for a single square.
type Magic struct {
	Mask   Bitboard // Relevant occupancy mask (excludes edges)
	Magic  uint64   // Magic multiplier
	Shift  uint8    // 64 - relevant bits
	Offset uint32   // Index into attack table
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

// Published multipliers for the a8-origin square order.
var rookMagicNumbers = [64]uint64{
	0x8a80104000800020, 0x140002000100040, 0x2801880a0017001, 0x100081001000420,
	0x200020010080420, 0x3001c0002010008, 0x8480008002000100, 0x2080088004402900,
	0x800098204000, 0x2024401000200040, 0x100802000801000, 0x120800800801000,
	0x208808088000400, 0x2802200800400, 0x2200800100020080, 0x801000060821100,
	0x80044006422000, 0x100808020004000, 0x12108a0010204200, 0x140848010000802,
	0x481828014002800, 0x8094004002004100, 0x4010040010010802, 0x20008806104,
	0x100400080208000, 0x2040002120081000, 0x21200680100081, 0x20100080080080,
	0x2000a00200410, 0x20080800400, 0x80088400100102, 0x80004600042881,
	0x4040008040800020, 0x440003000200801, 0x4200011004500, 0x188020010100100,
	0x14800401802800, 0x2080040080800200, 0x124080204001001, 0x200046502000484,
	0x480400080088020, 0x1000422010034000, 0x30200100110040, 0x100021010009,
	0x2002080100110004, 0x202008004008002, 0x20020004010100, 0x2048440040820001,
	0x101002200408200, 0x40802000401080, 0x4008142004410100, 0x2060820c0120200,
	0x1001004080100, 0x20c020080040080, 0x2935610830022400, 0x44440041009200,
	0x280001040802101, 0x2100190040002085, 0x80c0084100102001, 0x4024081001000421,
	0x20030a0244872, 0x12001008414402, 0x2006104900a0804, 0x1004081002402,
}

var bishopMagicNumbers = [64]uint64{
	0x40040844404084, 0x2004208a004208, 0x10190041080202, 0x108060845042010,
	0x581104180800210, 0x2112080446200010, 0x1080820820060210, 0x3c0808410220200,
	0x4050404440404, 0x21001420088, 0x24d0080801082102, 0x1020a0a020400,
	0x40308200402, 0x4011002100800, 0x401484104104005, 0x801010402020200,
	0x400210c3880100, 0x404022024108200, 0x810018200204102, 0x4002801a02003,
	0x85040820080400, 0x810102c808880400, 0xe900410884800, 0x8002020480840102,
	0x220200865090201, 0x2010100a02021202, 0x152048408022401, 0x20080002081110,
	0x4001001021004000, 0x800040400a011002, 0xe4004081011002, 0x1c004001012080,
	0x8004200962a00220, 0x8422100208500202, 0x2000402200300c08, 0x8646020080080080,
	0x80020a0200100808, 0x2010004880111000, 0x623000a080011400, 0x42008c0340209202,
	0x209188240001000, 0x400408a884001800, 0x110400a6080400, 0x1840060a44020800,
	0x90080104000041, 0x201011000808101, 0x1a2208080504f080, 0x8012020600211212,
	0x500861011240000, 0x180806108200800, 0x4000020e01040044, 0x300000261044000a,
	0x802241102020002, 0x20906061210001, 0x5a84841004010310, 0x4010801011c04,
	0xa010109502200, 0x4a02012000, 0x500201010098b028, 0x8040002811040900,
	0x28000010020204, 0x6000020202d0240, 0x8918844842082200, 0x4010011029020020,
}

func initMagics() {
	initSliderMagics(&bishopMagics, bishopTable[:], &bishopMagicNumbers, bishopMask, bishopAttacksSlow)
	initSliderMagics(&rookMagics, rookTable[:], &rookMagicNumbers, rookMask, rookAttacksSlow)
}

// initSliderMagics fills one slider's table. A seed multiplier that maps two
// occupancies with different attack sets onto one slot is replaced by a
// searched one, so lookups always agree with the ray-cast.
func initSliderMagics(magics *[64]Magic, table []Bitboard, seeds *[64]uint64,
	maskFn func(Square) Bitboard, slowFn func(Square, Bitboard) Bitboard) {
	var offset uint32
	rng := xorshift(0x9E3779B97F4A7C15)
	for sq := A8; sq <= H1; sq++ {
		mask := maskFn(sq)
		bits := mask.PopCount()
		size := 1 << bits

		occs := make([]Bitboard, size)
		attacks := make([]Bitboard, size)
		for i := range occs {
			occs[i] = indexToOccupancy(i, bits, mask)
			attacks[i] = slowFn(sq, occs[i])
		}

		slots := table[offset : offset+uint32(size)]
		magic := seeds[sq]
		for !fillSlots(slots, occs, attacks, magic, bits) {
			magic = rng.sparse()
		}
		seeds[sq] = magic

		magics[sq] = Magic{
			Mask:   mask,
			Magic:  magic,
			Shift:  uint8(64 - bits),
			Offset: offset,
		}
		offset += uint32(size)
	}
}

// fillSlots stores every attack set at its magic index and reports whether
// the multiplier was collision free. Attack sets are never empty, so a zero
// slot means unused.
func fillSlots(slots, occs, attacks []Bitboard, magic uint64, bits int) bool {
	clear(slots)
	for i, occ := range occs {
		idx := (uint64(occ) * magic) >> (64 - bits)
		switch slots[idx] {
		case 0:
			slots[idx] = attacks[i]
		case attacks[i]:
		default:
			return false
		}
	}
	return true
}

type xorshift uint64

func (x *xorshift) next() uint64 {
	v := uint64(*x)
	v ^= v >> 12
	v ^= v << 25
	v ^= v >> 27
	*x = xorshift(v)
	return v * 2685821657736338717
}

// sparse returns a candidate with few set bits, which makes good magics.
func (x *xorshift) sparse() uint64 {
	return x.next() & x.next() & x.next()
}

// bishopMask returns the relevant occupancy mask for a bishop on sq.
// Edge squares never change the result so they are excluded.
func bishopMask(sq Square) Bitboard {
	return bishopAttacksSlow(sq, 0) &^ (Rank1 | Rank8 | FileA | FileH)
}

// rookMask returns the relevant occupancy mask for a rook on sq.
func rookMask(sq Square) Bitboard {
	file := sq.File()
	rank := sq.Rank()

	var mask Bitboard
	for f := 1; f < 7; f++ {
		if f != file {
			mask |= SquareBB(NewSquare(f, rank))
		}
	}
	for r := 1; r < 7; r++ {
		if r != rank {
			mask |= SquareBB(NewSquare(file, r))
		}
	}
	return mask
}

// indexToOccupancy maps the bits of index onto the squares of mask, lowest
// square first.
func indexToOccupancy(index, bits int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; i < bits; i++ {
		sq := mask.PopLSB()
		if index&(1<<i) != 0 {
			occ |= SquareBB(sq)
		}
	}
	return occ
}

var (
	bishopDirs = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirs   = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

func bishopAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(sq, occupied, &bishopDirs)
}

func rookAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(sq, occupied, &rookDirs)
}

// rayAttacks walks each direction until the board edge, stopping at and
// including the first occupied square.
func rayAttacks(sq Square, occupied Bitboard, dirs *[4][2]int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			s := SquareBB(NewSquare(f, r))
			attacks |= s
			if occupied&s != 0 {
				break
			}
			f, r = f+d[0], r+d[1]
		}
	}
	return attacks
}

// BishopAttacks returns the bishop attack set from sq for the given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	idx := ((uint64(occupied) & uint64(m.Mask)) * m.Magic) >> m.Shift
	return bishopTable[m.Offset+uint32(idx)]
}

// RookAttacks returns the rook attack set from sq for the given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	idx := ((uint64(occupied) & uint64(m.Mask)) * m.Magic) >> m.Shift
	return rookTable[m.Offset+uint32(idx)]
}

// QueenAttacks is the union of the rook and bishop attack sets.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}
