package models

import (
	"github.com/google/uuid"
	engine "github.com/sotacaballorey/guinote/engine"
)

// User is the authenticated identity behind a connection.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Player is one seat in a match.
type Player struct {
	ID        uuid.UUID     `json:"id"`
	Team      int           `json:"team"` // 1 or 2
	Hand      []engine.Card `json:"hand"`
	Connected bool          `json:"connected"`

	// Handle identifies the live connection used for private delivery.
	// It changes on every reconnect.
	Handle uuid.UUID `json:"-"`

	User *User `json:"user"`
}

// Username returns the display name, or the id when no user is attached.
func (p *Player) Username() string {
	if p.User == nil || p.User.Username == "" {
		return p.ID.String()
	}
	return p.User.Username
}

// HasCard reports whether c is in the player's hand.
func (p *Player) HasCard(c engine.Card) bool {
	return engine.IndexOf(p.Hand, c) >= 0
}
