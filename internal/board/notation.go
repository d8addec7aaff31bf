package board

// ParseMove matches coordinate text such as "e2e4" or "e7e8q" against the
// legal moves of pos. It returns NoMove when the text is malformed, names
// no legal move, or is ambiguous (a promotion without its piece letter).
func ParseMove(s string, pos *Position) Move {
	if len(s) < 4 || len(s) > 5 {
		return NoMove
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove
	}
	var promo byte
	if len(s) == 5 {
		promo = s[4] | 0x20 // lowercase
	}

	found := NoMove
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if promo == 0 {
				return NoMove
			}
			if m.Result().Type().Char() != promo {
				continue
			}
		} else if promo != 0 {
			continue
		}
		found = m
	}
	return found
}
