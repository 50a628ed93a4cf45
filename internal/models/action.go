package models

import engine "github.com/sotacaballorey/guinote/engine"

// Inbound action names.
const (
	ActionPlayCard           = "play_card"
	ActionAnnounce           = "announce"
	ActionExchangeSeven      = "exchange_seven"
	ActionRequestPause       = "request_pause"
	ActionCancelPauseRequest = "cancel_pause_request"
)

// GameAction is a message sent by a seated player.
type GameAction struct {
	ActionType string       `json:"action"`
	Card       *engine.Card `json:"card,omitempty"` // play_card
	Suit       engine.Suit  `json:"suit,omitempty"` // announce; empty picks the best available
}
