package server

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/game"
)

// Hub routes match events to live sessions, keyed by match and player.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[uuid.UUID]*Session
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[uuid.UUID]map[uuid.UUID]*Session)}
}

// Attach registers s as the player's connection to matchID. A previous
// connection of the same player is closed.
func (h *Hub) Attach(matchID uuid.UUID, s *Session) {
	s.MatchID = matchID
	h.mu.Lock()
	seats, ok := h.sessions[matchID]
	if !ok {
		seats = make(map[uuid.UUID]*Session)
		h.sessions[matchID] = seats
	}
	old := seats[s.User.ID]
	seats[s.User.ID] = s
	h.mu.Unlock()

	if old != nil && old != s {
		log.Infof("Match %s: Replacing connection %s of user %s.", matchID, old.ID, s.User.ID)
		old.Close(websocket.StatusPolicyViolation, "Replaced by a new connection.")
	}
}

// Detach removes s if it is still the player's current connection.
func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	seats := h.sessions[s.MatchID]
	if seats == nil || seats[s.User.ID] != s {
		return
	}
	delete(seats, s.User.ID)
	if len(seats) == 0 {
		delete(h.sessions, s.MatchID)
	}
}

// Broadcast sends ev to every live session in matchID.
func (h *Hub) Broadcast(matchID uuid.UUID, ev game.GameEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions[matchID] {
		s.Send(ev)
	}
}

// SendTo sends ev to one player's session, if connected.
func (h *Hub) SendTo(matchID, playerID uuid.UUID, ev game.GameEvent) {
	h.mu.RLock()
	s := h.sessions[matchID][playerID]
	h.mu.RUnlock()
	if s != nil {
		s.Send(ev)
	}
}

// Disconnect closes and forgets a player's session after queued events are written.
func (h *Hub) Disconnect(matchID, playerID uuid.UUID, reason string) {
	h.mu.Lock()
	s := h.sessions[matchID][playerID]
	if s != nil {
		delete(h.sessions[matchID], playerID)
		if len(h.sessions[matchID]) == 0 {
			delete(h.sessions, matchID)
		}
	}
	h.mu.Unlock()
	if s != nil {
		s.Close(websocket.StatusNormalClosure, reason)
	}
}

// Count returns the number of live sessions in matchID.
func (h *Hub) Count(matchID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[matchID])
}
