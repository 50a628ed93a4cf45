// internal/models/match_config.go
package models

import (
	"fmt"
	"time"
)

// TurnTimeout is the per-turn time budget selected for a custom match.
type TurnTimeout string

const (
	TurnTimeoutShort  TurnTimeout = "short"
	TurnTimeoutNormal TurnTimeout = "normal"
	TurnTimeoutLong   TurnTimeout = "long"
)

// Duration returns the wall-clock length of the timeout.
func (t TurnTimeout) Duration() time.Duration {
	switch t {
	case TurnTimeoutShort:
		return 15 * time.Second
	case TurnTimeoutLong:
		return 60 * time.Second
	default:
		return 30 * time.Second
	}
}

// ParseTurnTimeout accepts the named presets and their second counts ("15", "30", "60").
func ParseTurnTimeout(s string) (TurnTimeout, error) {
	switch s {
	case "", "normal", "30":
		return TurnTimeoutNormal, nil
	case "short", "15":
		return TurnTimeoutShort, nil
	case "long", "60":
		return TurnTimeoutLong, nil
	}
	return "", fmt.Errorf("unknown turn timeout %q", s)
}

// MatchConfig captures how a match was requested.
type MatchConfig struct {
	// Custom matches are joinable only by id and never update ratings.
	Custom bool `json:"custom"`

	// FriendsOnly admits a joiner only if a seated player is a friend. A single
	// pause request is enough to pause a friends-only match.
	FriendsOnly bool `json:"friendsOnly"`

	TurnTimeout TurnTimeout `json:"turnTimeout"`

	// AllowRevueltas replays with carried scores when nobody passes the threshold.
	AllowRevueltas bool `json:"allowRevueltas"`

	// ArrastreRules enforces follow/overtrump once the stock is exhausted.
	ArrastreRules bool `json:"arrastreRules"`

	// TrumpBonusOnArrastre credits the trump card's points to the team that lost
	// the trick emptying the stock.
	TrumpBonusOnArrastre bool `json:"trumpBonusOnArrastre"`
}

// DefaultMatchConfig returns the settings used for matchmaking rooms.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		TurnTimeout:    TurnTimeoutNormal,
		AllowRevueltas: true,
		ArrastreRules:  true,
	}
}
