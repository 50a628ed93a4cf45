package engine

// HouseRules holds configurable rule settings.
type HouseRules struct {
	ArrastreRules        bool // enforce follow/overtrump in arrastre
	TrumpBonusOnArrastre bool // credit the trump card's points to the trick loser when arrastre starts
	WinThreshold         int  // a team must exceed this to win
	AllowRevueltas       bool // replay with carried scores when nobody passes the threshold
}

// DefaultHouseRules returns the standard Guiñote rules.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		ArrastreRules:        true,
		TrumpBonusOnArrastre: false,
		WinThreshold:         100,
		AllowRevueltas:       true,
	}
}

// Announcement points.
const (
	CantoTrumpPoints = 40
	CantoPoints      = 20
)

// HasCanto reports whether hand holds the Rey and Sota of suit.
func HasCanto(hand []Card, suit Suit) bool {
	return IndexOf(hand, NewCard(suit, RankRey)) >= 0 && IndexOf(hand, NewCard(suit, RankSota)) >= 0
}

// CantoValue returns the points for announcing suit.
func CantoValue(suit, trump Suit) int {
	if suit == trump {
		return CantoTrumpPoints
	}
	return CantoPoints
}
