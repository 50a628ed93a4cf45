package engine

import "fmt"

// Suit is one of the four Spanish suits.
type Suit string

const (
	SuitOros    Suit = "oros"
	SuitCopas   Suit = "copas"
	SuitEspadas Suit = "espadas"
	SuitBastos  Suit = "bastos"
)

// Rank constants. The Spanish 40-card deck has no 8 or 9.
const (
	RankAs      uint8 = 1
	RankDos     uint8 = 2
	RankTres    uint8 = 3
	RankCuatro  uint8 = 4
	RankCinco   uint8 = 5
	RankSeis    uint8 = 6
	RankSiete   uint8 = 7
	RankSota    uint8 = 10
	RankCaballo uint8 = 11
	RankRey     uint8 = 12
)

// Suits lists the suits in deck-building order.
var Suits = [4]Suit{SuitOros, SuitCopas, SuitEspadas, SuitBastos}

// Ranks lists the ranks in deck-building order.
var Ranks = [10]uint8{RankAs, RankDos, RankTres, RankCuatro, RankCinco, RankSeis, RankSiete, RankSota, RankCaballo, RankRey}

// Card is an immutable suit+rank value. Two cards are equal when suit and rank match.
type Card struct {
	Suit Suit  `json:"suit"`
	Rank uint8 `json:"rank"`
}

// NewCard constructs a Card from suit and rank.
func NewCard(suit Suit, rank uint8) Card {
	return Card{Suit: suit, Rank: rank}
}

// Valid reports whether the card belongs to the 40-card deck.
func (c Card) Valid() bool {
	return validSuit(c.Suit) && validRank(c.Rank)
}

// Points returns the trick-scoring value of the card.
func (c Card) Points() int { return Points(c.Rank) }

func (c Card) String() string {
	return fmt.Sprintf("%d de %s", c.Rank, c.Suit)
}

func validSuit(s Suit) bool {
	for _, v := range Suits {
		if v == s {
			return true
		}
	}
	return false
}

func validRank(r uint8) bool {
	for _, v := range Ranks {
		if v == r {
			return true
		}
	}
	return false
}

// Play is one card laid on the table by the player sitting at Seat.
type Play struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// IndexOf returns the position of c in hand, or -1.
func IndexOf(hand []Card, c Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}

// Remove returns hand without the first occurrence of c. The input slice is not modified.
func Remove(hand []Card, c Card) ([]Card, bool) {
	idx := IndexOf(hand, c)
	if idx < 0 {
		return hand, false
	}
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	out = append(out, hand[idx+1:]...)
	return out, true
}
