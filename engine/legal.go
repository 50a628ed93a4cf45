package engine

// LegalPlays returns the subset of hand that may be played onto trick.
//
// Outside arrastre, or when leading, every card is legal. In arrastre:
//   - follow the lead suit if possible, beating the best lead-suit card on the table if possible;
//   - otherwise play trump, beating the best trump on the table if possible;
//   - otherwise anything.
//
// partnerWinning waives the constraints entirely (4-player matches when a
// teammate currently holds the trick).
func LegalPlays(hand []Card, trick []Play, trump Suit, arrastre bool, partnerWinning bool) []Card {
	if !arrastre || len(trick) == 0 || partnerWinning {
		return append([]Card(nil), hand...)
	}

	lead := trick[0].Card.Suit
	if follow := constrained(hand, trick, lead); len(follow) > 0 {
		return follow
	}
	if trumps := constrained(hand, trick, trump); len(trumps) > 0 {
		return trumps
	}
	return append([]Card(nil), hand...)
}

// constrained returns the cards of suit s in hand that beat the best card of
// suit s already in the trick, or every card of suit s when none can.
func constrained(hand []Card, trick []Play, s Suit) []Card {
	var same []Card
	for _, c := range hand {
		if c.Suit == s {
			same = append(same, c)
		}
	}
	if len(same) == 0 {
		return nil
	}

	best := -1
	for _, p := range trick {
		if p.Card.Suit == s && Strength(p.Card.Rank) > best {
			best = Strength(p.Card.Rank)
		}
	}
	if best < 0 {
		return same
	}

	var higher []Card
	for _, c := range same {
		if Strength(c.Rank) > best {
			higher = append(higher, c)
		}
	}
	if len(higher) > 0 {
		return higher
	}
	return same
}

// PartnerWinning reports whether the current best card in trick belongs to a
// teammate of seat. Teams alternate by seat, so partners share seat parity.
// Always false for 2-player tables.
func PartnerWinning(trick []Play, seat int, trump Suit, capacity int) bool {
	if capacity < 4 || len(trick) == 0 {
		return false
	}
	w := TrickWinner(trick, trump)
	return trick[w].Seat != seat && trick[w].Seat%2 == seat%2
}
