package engine

import (
	"testing"
)

// TestBuildDeck verifies 40 distinct, valid cards.
func TestBuildDeck(t *testing.T) {
	deck := BuildDeck()
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}

	seen := make(map[Card]bool)
	for _, c := range deck {
		if !c.Valid() {
			t.Errorf("invalid card in deck: %v", c)
		}
		if seen[c] {
			t.Errorf("duplicate card: %v", c)
		}
		seen[c] = true
	}
}

func TestCardValid(t *testing.T) {
	tests := []struct {
		card Card
		want bool
	}{
		{NewCard(SuitOros, RankAs), true},
		{NewCard(SuitBastos, RankRey), true},
		{NewCard(SuitCopas, 8), false},
		{NewCard(SuitCopas, 9), false},
		{NewCard("caca", 1), false},
		{Card{}, false},
	}
	for _, tt := range tests {
		if got := tt.card.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.card, got, tt.want)
		}
	}
}

// TestRemove verifies only the first match is removed and the input is untouched.
func TestRemove(t *testing.T) {
	hand := []Card{
		NewCard(SuitOros, RankAs),
		NewCard(SuitCopas, RankDos),
		NewCard(SuitEspadas, RankTres),
	}

	out, ok := Remove(hand, NewCard(SuitCopas, RankDos))
	if !ok {
		t.Fatal("expected card to be removed")
	}
	if len(out) != 2 || out[0] != hand[0] || out[1] != hand[2] {
		t.Errorf("unexpected hand after remove: %v", out)
	}
	if len(hand) != 3 || hand[1] != NewCard(SuitCopas, RankDos) {
		t.Errorf("input hand was modified: %v", hand)
	}

	_, ok = Remove(hand, NewCard(SuitBastos, RankRey))
	if ok {
		t.Error("removing a missing card should report false")
	}
}
