package engine

import (
	"testing"
)

// TestDeckPointsTotal verifies the whole deck is worth 120 points.
func TestDeckPointsTotal(t *testing.T) {
	total := 0
	for _, c := range BuildDeck() {
		total += c.Points()
	}
	if total != TotalPoints {
		t.Errorf("expected deck total %d, got %d", TotalPoints, total)
	}
}

func TestPoints(t *testing.T) {
	want := map[uint8]int{
		RankAs: 11, RankTres: 10, RankRey: 4, RankCaballo: 3, RankSota: 2,
		RankSiete: 0, RankSeis: 0, RankCinco: 0, RankCuatro: 0, RankDos: 0,
	}
	for rank, pts := range want {
		if got := Points(rank); got != pts {
			t.Errorf("Points(%d) = %d, want %d", rank, got, pts)
		}
	}
}

// TestStrengthOrder verifies 1,3,12,10,11,7,6,5,4,2 is strictly decreasing.
func TestStrengthOrder(t *testing.T) {
	order := []uint8{RankAs, RankTres, RankRey, RankSota, RankCaballo, RankSiete, RankSeis, RankCinco, RankCuatro, RankDos}
	for i := 1; i < len(order); i++ {
		if Strength(order[i-1]) <= Strength(order[i]) {
			t.Errorf("expected %d to outrank %d", order[i-1], order[i])
		}
	}
}

func TestBeats(t *testing.T) {
	trump := SuitOros
	lead := SuitCopas
	tests := []struct {
		name      string
		current   Card
		candidate Card
		want      bool
	}{
		{"trump over lead", NewCard(SuitCopas, RankAs), NewCard(SuitOros, RankDos), true},
		{"lead never over trump", NewCard(SuitOros, RankDos), NewCard(SuitCopas, RankAs), false},
		{"higher trump", NewCard(SuitOros, RankRey), NewCard(SuitOros, RankTres), true},
		{"lower trump", NewCard(SuitOros, RankTres), NewCard(SuitOros, RankRey), false},
		{"higher lead", NewCard(SuitCopas, RankSiete), NewCard(SuitCopas, RankSota), true},
		{"lower lead", NewCard(SuitCopas, RankSota), NewCard(SuitCopas, RankSiete), false},
		{"off suit never wins", NewCard(SuitCopas, RankDos), NewCard(SuitBastos, RankAs), false},
		{"lead over off suit", NewCard(SuitBastos, RankAs), NewCard(SuitCopas, RankDos), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Beats(tt.current, tt.candidate, lead, trump); got != tt.want {
				t.Errorf("Beats(%v, %v) = %v, want %v", tt.current, tt.candidate, got, tt.want)
			}
		})
	}
}

// TestTrickWinnerBeatsEveryCard verifies the winner is never beaten by any other play.
func TestTrickWinnerBeatsEveryCard(t *testing.T) {
	rng := NewRNG(7)
	for round := 0; round < 200; round++ {
		deck := BuildDeck()
		Shuffle(deck, rng)
		trump := deck[0].Suit
		trick := []Play{
			{Seat: 0, Card: deck[1]},
			{Seat: 1, Card: deck[2]},
			{Seat: 2, Card: deck[3]},
			{Seat: 3, Card: deck[4]},
		}
		w := TrickWinner(trick, trump)
		lead := trick[0].Card.Suit
		for i, p := range trick {
			if i == w {
				continue
			}
			if Beats(trick[w].Card, p.Card, lead, trump) {
				t.Fatalf("round %d: %v beats computed winner %v (trump %s)", round, p.Card, trick[w].Card, trump)
			}
		}
	}
}

func TestTrickWinnerFirstPlayedKeepsOffSuit(t *testing.T) {
	trick := []Play{
		{Seat: 0, Card: NewCard(SuitCopas, RankDos)},
		{Seat: 1, Card: NewCard(SuitBastos, RankAs)},
	}
	if w := TrickWinner(trick, SuitOros); w != 0 {
		t.Errorf("expected lead card to win, got index %d", w)
	}
	if w := TrickWinner(nil, SuitOros); w != -1 {
		t.Errorf("expected -1 for empty trick, got %d", w)
	}
}

func TestTrickPoints(t *testing.T) {
	trick := []Play{
		{Seat: 0, Card: NewCard(SuitCopas, RankAs)},
		{Seat: 1, Card: NewCard(SuitCopas, RankRey)},
	}
	if got := TrickPoints(trick); got != 15 {
		t.Errorf("expected 15 points, got %d", got)
	}
}

func TestCanto(t *testing.T) {
	hand := []Card{NewCard(SuitEspadas, RankRey), NewCard(SuitEspadas, RankSota), NewCard(SuitOros, RankRey)}
	if !HasCanto(hand, SuitEspadas) {
		t.Error("expected canto in espadas")
	}
	if HasCanto(hand, SuitOros) {
		t.Error("unexpected canto in oros")
	}
	if CantoValue(SuitEspadas, SuitEspadas) != 40 || CantoValue(SuitEspadas, SuitOros) != 20 {
		t.Error("unexpected canto values")
	}
}
