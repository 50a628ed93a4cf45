package game

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/models"
)

// handleRequestPause records a pause request and pauses once every seat agrees,
// or on the first request in a friends-only match.
// Assumes lock is held by caller.
func (g *Match) handleRequestPause(p *models.Player) error {
	if g.State != StatePlaying {
		return illegal(ReasonNotPlaying)
	}
	if g.Game.hasPauseRequest(p.ID) {
		return illegal(ReasonPauseRequested)
	}
	g.Game.PauseRequests = append(g.Game.PauseRequests, p.ID)

	g.fireEvent(GameEvent{
		Type: EventPauseRequested,
		User: g.eventUser(p),
		Payload: map[string]interface{}{
			"message":     fmt.Sprintf("%s quiere pausar la partida.", p.Username()),
			"solicitudes": len(g.Game.PauseRequests),
			"necesarias":  g.pauseQuorum(),
		},
	})
	g.logAction(p.ID, string(EventPauseRequested), nil)

	if len(g.Game.PauseRequests) >= g.pauseQuorum() {
		g.pauseMatch()
		return nil
	}
	g.persist()
	return nil
}

// pauseQuorum is the number of requests needed to pause.
func (g *Match) pauseQuorum() int {
	if g.Config.FriendsOnly {
		return 1
	}
	return g.Capacity
}

// handleCancelPause withdraws the player's own pending request.
// Assumes lock is held by caller.
func (g *Match) handleCancelPause(p *models.Player) error {
	if g.State != StatePlaying {
		return illegal(ReasonNotPlaying)
	}
	if !g.Game.removePauseRequest(p.ID) {
		return illegal(ReasonNoPauseRequest)
	}
	g.fireEvent(GameEvent{
		Type: EventResumed,
		User: g.eventUser(p),
		Payload: map[string]interface{}{
			"message":     fmt.Sprintf("%s ha retirado su solicitud de pausa.", p.Username()),
			"solicitudes": len(g.Game.PauseRequests),
		},
	})
	g.logAction(p.ID, string(EventResumed), nil)
	g.persist()
	return nil
}

// pauseMatch stops the clock and closes every connection; players reconnect to resume.
// Assumes lock is held by caller.
func (g *Match) pauseMatch() {
	g.stopTurnTimer()
	g.State = StatePaused
	g.TurnID++
	log.Infof("Match %s: Paused by agreement.", g.ID)

	g.fireEvent(GameEvent{
		Type: EventAllPaused,
		Payload: map[string]interface{}{
			"message": "La partida ha sido pausada por acuerdo de todos los jugadores.",
		},
	})
	g.logAction(uuid.Nil, string(EventAllPaused), nil)

	for _, p := range g.Players {
		if p.Connected {
			p.Connected = false
			g.disconnectPlayer(p, "Match paused.")
		}
	}
	g.persist()
}

// resumeMatch returns a fully reconnected paused match to play.
// Assumes lock is held by caller.
func (g *Match) resumeMatch() {
	g.State = StatePlaying
	g.Game.PauseRequests = nil
	log.Infof("Match %s: All seats reconnected. Resuming.", g.ID)
	g.logAction(uuid.Nil, "match_resume", nil)

	g.broadcastStartGame()
	g.setTurn(g.Game.CurrentTurn)
	g.persist()
}
