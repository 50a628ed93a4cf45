// Package engine implements the Guiñote card rules.
//
// Everything here is a pure function over values: deck construction and
// shuffling, card values, trick resolution and the arrastre legality filter.
// The match actor in internal/game owns sequencing, timers and messaging.
package engine

const (
	DeckSize = 40
	HandSize = 6
)

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

// RNG is a xorshift64 generator. The zero value is replaced by 1 on first use.
type RNG uint64

// NewRNG returns a generator seeded with seed.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 1 // xorshift can't start at 0
	}
	r := RNG(seed)
	return &r
}

func (r *RNG) next() uint64 {
	x := uint64(*r)
	if x == 0 {
		x = 1
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	*r = RNG(x)
	return x
}

// Intn returns a number in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.next() % uint64(n))
}

// ---------------------------------------------------------------------------
// Deck and Deal
// ---------------------------------------------------------------------------

// BuildDeck returns the 40 cards in suit-major order, not shuffled.
func BuildDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, NewCard(s, r))
		}
	}
	return deck
}

// Shuffle permutes deck in place (Fisher-Yates).
func Shuffle(deck []Card, rng *RNG) {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// DealResult is the outcome of Deal.
type DealResult struct {
	Hands     [][]Card // one per seat, in seat order
	TrumpCard Card     // revealed card; sits under the remaining stock
	Stock     []Card   // remaining cards, top first, excluding TrumpCard
}

// Deal reveals deck[0] as the trump card and hands out HandSize cards to each
// seat, one at a time in seat order. deck must hold at least 1+seats*HandSize cards.
func Deal(deck []Card, seats int) DealResult {
	res := DealResult{
		Hands:     make([][]Card, seats),
		TrumpCard: deck[0],
	}
	for i := range res.Hands {
		res.Hands[i] = make([]Card, 0, HandSize)
	}

	pos := 1
	for c := 0; c < HandSize; c++ {
		for s := 0; s < seats; s++ {
			res.Hands[s] = append(res.Hands[s], deck[pos])
			pos++
		}
	}
	res.Stock = append([]Card(nil), deck[pos:]...)
	return res
}
