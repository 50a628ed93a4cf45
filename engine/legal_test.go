package engine

import (
	"testing"
)

func cards(cs ...Card) []Card { return cs }

func sameSet(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for _, c := range a {
		if IndexOf(b, c) < 0 {
			return false
		}
	}
	return true
}

// TestLegalOutsideArrastre verifies the whole hand is legal before arrastre.
func TestLegalOutsideArrastre(t *testing.T) {
	hand := cards(NewCard(SuitOros, RankAs), NewCard(SuitCopas, RankDos))
	trick := []Play{{Seat: 0, Card: NewCard(SuitBastos, RankRey)}}
	got := LegalPlays(hand, trick, SuitOros, false, false)
	if !sameSet(got, hand) {
		t.Errorf("expected full hand, got %v", got)
	}
}

func TestLegalLeadingInArrastre(t *testing.T) {
	hand := cards(NewCard(SuitOros, RankAs), NewCard(SuitCopas, RankDos))
	got := LegalPlays(hand, nil, SuitOros, true, false)
	if !sameSet(got, hand) {
		t.Errorf("expected full hand when leading, got %v", got)
	}
}

// TestLegalMustFollowAndBeat verifies only higher lead-suit cards are allowed.
func TestLegalMustFollowAndBeat(t *testing.T) {
	hand := cards(
		NewCard(SuitCopas, RankAs),
		NewCard(SuitCopas, RankDos),
		NewCard(SuitOros, RankTres),
	)
	trick := []Play{{Seat: 0, Card: NewCard(SuitCopas, RankRey)}}
	got := LegalPlays(hand, trick, SuitOros, true, false)
	want := cards(NewCard(SuitCopas, RankAs))
	if !sameSet(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestLegalFollowCannotBeat verifies any lead-suit card is allowed when none beats.
func TestLegalFollowCannotBeat(t *testing.T) {
	hand := cards(
		NewCard(SuitCopas, RankCuatro),
		NewCard(SuitCopas, RankDos),
		NewCard(SuitOros, RankTres),
	)
	trick := []Play{{Seat: 0, Card: NewCard(SuitCopas, RankAs)}}
	got := LegalPlays(hand, trick, SuitOros, true, false)
	want := cards(NewCard(SuitCopas, RankCuatro), NewCard(SuitCopas, RankDos))
	if !sameSet(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// TestLegalMustTrump verifies trump is forced without lead suit.
func TestLegalMustTrump(t *testing.T) {
	hand := cards(
		NewCard(SuitOros, RankDos),
		NewCard(SuitOros, RankAs),
		NewCard(SuitBastos, RankTres),
	)
	trick := []Play{
		{Seat: 0, Card: NewCard(SuitCopas, RankRey)},
		{Seat: 1, Card: NewCard(SuitOros, RankSota)},
	}
	got := LegalPlays(hand, trick, SuitOros, true, false)
	want := cards(NewCard(SuitOros, RankAs))
	if !sameSet(got, want) {
		t.Errorf("expected overtrump %v, got %v", want, got)
	}
}

func TestLegalAnyWithoutLeadOrTrump(t *testing.T) {
	hand := cards(NewCard(SuitBastos, RankDos), NewCard(SuitEspadas, RankAs))
	trick := []Play{{Seat: 0, Card: NewCard(SuitCopas, RankRey)}}
	got := LegalPlays(hand, trick, SuitOros, true, false)
	if !sameSet(got, hand) {
		t.Errorf("expected full hand, got %v", got)
	}
}

// TestPartnerWinningWaiver verifies the 4-player teammate waiver.
func TestPartnerWinningWaiver(t *testing.T) {
	trick := []Play{
		{Seat: 0, Card: NewCard(SuitCopas, RankAs)},
		{Seat: 1, Card: NewCard(SuitCopas, RankDos)},
	}
	// Seat 2 partners seat 0, which holds the trick.
	if !PartnerWinning(trick, 2, SuitOros, 4) {
		t.Error("expected partner of seat 0 to be winning")
	}
	if PartnerWinning(trick, 3, SuitOros, 4) {
		t.Error("seat 3 is not seat 0's partner")
	}
	if PartnerWinning(trick, 2, SuitOros, 2) {
		t.Error("no waiver in 2-player matches")
	}

	hand := cards(NewCard(SuitCopas, RankTres), NewCard(SuitBastos, RankDos))
	got := LegalPlays(hand, trick, SuitOros, true, true)
	if !sameSet(got, hand) {
		t.Errorf("expected waiver to allow full hand, got %v", got)
	}
}
