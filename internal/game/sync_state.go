// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"

	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/models"
)

// ObfPlayerState is one seat as seen by another player: no cards, only counts.
type ObfPlayerState struct {
	PlayerID      uuid.UUID `json:"playerId"`
	Username      string    `json:"username"`
	Team          int       `json:"team"`
	HandSize      int       `json:"handSize"`
	Connected     bool      `json:"connected"`
	IsCurrentTurn bool      `json:"isCurrentTurn"`
}

// ObfGameState is the match projection sent to one player.
type ObfGameState struct {
	MatchID         uuid.UUID          `json:"matchId"`
	ChatID          uuid.UUID          `json:"chatId"`
	Capacity        int                `json:"capacity"`
	State           MatchState         `json:"state"`
	Team1Score      int                `json:"team1Score"`
	Team2Score      int                `json:"team2Score"`
	Revueltas       bool               `json:"revueltas"`
	TrumpSuit       engine.Suit        `json:"trumpSuit,omitempty"`
	TrumpCard       *engine.Card       `json:"trumpCard,omitempty"`
	TrumpCardDrawn  bool               `json:"trumpCardDrawn"`
	DeckSize        int                `json:"deckSize"`
	Arrastre        bool               `json:"arrastre"`
	Trick           []TrickPlay        `json:"trick"`
	CurrentPlayerID uuid.UUID          `json:"currentPlayerId"`
	LastTrickWinner uuid.UUID          `json:"lastTrickWinner"`
	TurnID          int                `json:"turnId"`
	PauseRequests   int                `json:"pauseRequests"`
	Players         []ObfPlayerState   `json:"players"`
	Config          models.MatchConfig `json:"config"`

	// MyHand is populated only for the requesting player.
	MyHand []engine.Card `json:"myHand,omitempty"`
}

// GetCurrentObfuscatedGameState builds the projection for forUser.
// Other players' hands are reduced to their sizes.
// Assumes lock is held by caller.
func (g *Match) GetCurrentObfuscatedGameState(forUser uuid.UUID) ObfGameState {
	obf := ObfGameState{
		MatchID:         g.ID,
		ChatID:          g.ChatID,
		Capacity:        g.Capacity,
		State:           g.State,
		Team1Score:      g.Team1Score,
		Team2Score:      g.Team2Score,
		Revueltas:       g.Revueltas,
		TrumpSuit:       g.Game.TrumpSuit,
		TrumpCardDrawn:  g.Game.TrumpCardDrawn,
		DeckSize:        len(g.Game.Deck),
		Arrastre:        g.Game.Arrastre,
		Trick:           append([]TrickPlay{}, g.Game.Trick...),
		CurrentPlayerID: g.Game.CurrentTurn,
		LastTrickWinner: g.Game.LastTrickWinner,
		TurnID:          g.TurnID,
		PauseRequests:   len(g.Game.PauseRequests),
		Config:          g.Config,
	}
	if g.Game.TrumpSuit != "" {
		tc := g.Game.TrumpCard
		obf.TrumpCard = &tc
	}

	obf.Players = make([]ObfPlayerState, 0, len(g.Players))
	for _, p := range g.Players {
		obf.Players = append(obf.Players, ObfPlayerState{
			PlayerID:      p.ID,
			Username:      p.Username(),
			Team:          p.Team,
			HandSize:      len(p.Hand),
			Connected:     p.Connected,
			IsCurrentTurn: g.State == StatePlaying && p.ID == g.Game.CurrentTurn,
		})
		if p.ID == forUser {
			obf.MyHand = append([]engine.Card{}, p.Hand...)
		}
	}
	return obf
}

// Projection returns the projection for forUser under the lock.
func (g *Match) Projection(forUser uuid.UUID) ObfGameState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.GetCurrentObfuscatedGameState(forUser)
}
