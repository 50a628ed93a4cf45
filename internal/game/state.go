package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/sotacaballorey/guinote/internal/store"
)

// MatchState is the lifecycle state of a match.
type MatchState string

const (
	StateWaiting  MatchState = "waiting"
	StatePlaying  MatchState = "playing"
	StatePaused   MatchState = "paused"
	StateFinished MatchState = "finished"
)

// TrickPlay is one card on the table.
type TrickPlay struct {
	PlayerID uuid.UUID   `json:"playerId"`
	Card     engine.Card `json:"card"`
}

// GameState is the mutable table state of a match: everything except seats and scores.
type GameState struct {
	Deck           []engine.Card `json:"deck"` // top first; excludes the trump card
	TrumpSuit      engine.Suit   `json:"trumpSuit"`
	TrumpCard      engine.Card   `json:"trumpCard"`
	TrumpCardDrawn bool          `json:"trumpCardDrawn"` // the face-up card has left the table

	Trick           []TrickPlay `json:"trick"`
	LastTrickWinner uuid.UUID   `json:"lastTrickWinner"`
	Arrastre        bool        `json:"arrastre"`
	CurrentTurn     uuid.UUID   `json:"currentTurn"`

	Cantos         map[engine.Suit]bool `json:"cantos"`         // suits announced this match
	CantoThisTrick bool                 `json:"cantoThisTrick"` // an announcement used the current window

	PauseRequests []uuid.UUID `json:"pauseRequests"`
}

// stockEmpty reports whether no card is left to draw, trump card included.
func (s *GameState) stockEmpty() bool {
	return len(s.Deck) == 0 && s.TrumpCardDrawn
}

func (s *GameState) hasPauseRequest(id uuid.UUID) bool {
	for _, p := range s.PauseRequests {
		if p == id {
			return true
		}
	}
	return false
}

func (s *GameState) removePauseRequest(id uuid.UUID) bool {
	for i, p := range s.PauseRequests {
		if p == id {
			s.PauseRequests = append(s.PauseRequests[:i], s.PauseRequests[i+1:]...)
			return true
		}
	}
	return false
}

// record builds the persisted form of the match.
// Assumes lock is held by caller.
func (g *Match) record() (*store.MatchRecord, error) {
	blob, err := json.Marshal(&g.Game)
	if err != nil {
		return nil, fmt.Errorf("encode game state: %w", err)
	}
	rec := &store.MatchRecord{
		ID:         g.ID,
		ChatID:     g.ChatID,
		Capacity:   g.Capacity,
		State:      string(g.State),
		Team1Score: g.Team1Score,
		Team2Score: g.Team2Score,
		Revueltas:  g.Revueltas,
		Config:     g.Config,
		GameState:  blob,
		UpdatedAt:  time.Now(),
	}
	if !g.FinishedAt.IsZero() {
		t := g.FinishedAt
		rec.FinishedAt = &t
	}
	for _, p := range g.Players {
		rec.Players = append(rec.Players, store.PlayerRecord{
			ID:        p.ID,
			Username:  p.Username(),
			Team:      p.Team,
			Hand:      p.Hand,
			Connected: p.Connected,
		})
	}
	return rec, nil
}

// RestoreMatch rebuilds a match from its stored record. Every seat starts
// disconnected; a match that was in play resumes once all seats reconnect.
func RestoreMatch(rec *store.MatchRecord) (*Match, error) {
	g := NewMatch(rec.Capacity, rec.Config)
	g.ID = rec.ID
	g.ChatID = rec.ChatID
	g.State = MatchState(rec.State)
	g.Team1Score = rec.Team1Score
	g.Team2Score = rec.Team2Score
	g.Revueltas = rec.Revueltas
	if rec.FinishedAt != nil {
		g.FinishedAt = *rec.FinishedAt
	}
	if len(rec.GameState) > 0 {
		if err := json.Unmarshal(rec.GameState, &g.Game); err != nil {
			return nil, fmt.Errorf("decode game state for %s: %w", rec.ID, err)
		}
	}
	if g.Game.Cantos == nil {
		g.Game.Cantos = make(map[engine.Suit]bool)
	}
	for _, pr := range rec.Players {
		g.Players = append(g.Players, &models.Player{
			ID:        pr.ID,
			Team:      pr.Team,
			Hand:      pr.Hand,
			Connected: false,
			User:      &models.User{ID: pr.ID, Username: pr.Username},
		})
	}
	switch g.State {
	case StateWaiting:
		// Waiting seats only live as long as their connection.
		g.Players = nil
	case StatePlaying:
		g.State = StatePaused
	}
	return g, nil
}
