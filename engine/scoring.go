package engine

// TotalPoints is the sum of Points over the 40-card deck.
const TotalPoints = 120

// LastTrickBonus is awarded to the winner of the final trick of a deal ("diez de últimas").
const LastTrickBonus = 10

// Points returns the point value of a rank.
//   - As → 11
//   - Tres → 10
//   - Rey → 4
//   - Caballo → 3
//   - Sota → 2
//   - everything else → 0
func Points(rank uint8) int {
	switch rank {
	case RankAs:
		return 11
	case RankTres:
		return 10
	case RankRey:
		return 4
	case RankCaballo:
		return 3
	case RankSota:
		return 2
	}
	return 0
}

// Strength orders ranks within a suit. Higher is stronger:
// 1 > 3 > 12 > 10 > 11 > 7 > 6 > 5 > 4 > 2.
func Strength(rank uint8) int {
	switch rank {
	case RankAs:
		return 10
	case RankTres:
		return 9
	case RankRey:
		return 8
	case RankSota:
		return 7
	case RankCaballo:
		return 6
	case RankSiete:
		return 5
	case RankSeis:
		return 4
	case RankCinco:
		return 3
	case RankCuatro:
		return 2
	case RankDos:
		return 1
	}
	return 0
}

// TrickPoints sums the points of every card in the trick.
func TrickPoints(trick []Play) int {
	total := 0
	for _, p := range trick {
		total += Points(p.Card.Rank)
	}
	return total
}

// Beats reports whether candidate takes the trick from current.
// Suit priority is trump > lead suit > anything else; a card that is neither
// trump nor lead suit never wins. Equal strength keeps current.
func Beats(current, candidate Card, lead, trump Suit) bool {
	curTrump := current.Suit == trump
	candTrump := candidate.Suit == trump
	switch {
	case candTrump && !curTrump:
		return true
	case curTrump && !candTrump:
		return false
	case candTrump && curTrump:
		return Strength(candidate.Rank) > Strength(current.Rank)
	}

	// Neither is trump.
	if candidate.Suit != lead {
		return false
	}
	if current.Suit != lead {
		return true
	}
	return Strength(candidate.Rank) > Strength(current.Rank)
}

// TrickWinner returns the index in trick of the winning play, or -1 for an empty trick.
func TrickWinner(trick []Play, trump Suit) int {
	if len(trick) == 0 {
		return -1
	}
	lead := trick[0].Card.Suit
	best := 0
	for i := 1; i < len(trick); i++ {
		if Beats(trick[best].Card, trick[i].Card, lead, trump) {
			best = i
		}
	}
	return best
}
