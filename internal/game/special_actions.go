// internal/game/special_actions.go
package game

import (
	log "github.com/sirupsen/logrus"

	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/models"
)

// checkSpecialWindow verifies p's team won the last trick and no card of the next one is down.
// Assumes lock is held by caller.
func (g *Match) checkSpecialWindow(p *models.Player) error {
	if g.State != StatePlaying {
		return illegal(ReasonNotPlaying)
	}
	if len(g.Game.Trick) > 0 {
		return illegal(ReasonTrickInProgress)
	}
	if g.teamOf(g.Game.LastTrickWinner) != p.Team {
		return illegal(ReasonNotTrickWinner)
	}
	return nil
}

// handleAnnounce processes a canto. With no suit given, the trump suit is
// preferred, then the first announceable suit in deck order.
// Assumes lock is held by caller.
func (g *Match) handleAnnounce(p *models.Player, suit engine.Suit) error {
	if err := g.checkSpecialWindow(p); err != nil {
		return err
	}
	if g.Game.CantoThisTrick {
		return illegal(ReasonCantoUsed)
	}

	if suit == "" {
		suit = g.bestCantoSuit(p)
		if suit == "" {
			return illegal(ReasonNoCanto)
		}
	}
	if g.Game.Cantos[suit] || !engine.HasCanto(p.Hand, suit) {
		return illegal(ReasonNoCanto)
	}

	points := engine.CantoValue(suit, g.Game.TrumpSuit)
	g.Game.Cantos[suit] = true
	g.Game.CantoThisTrick = true
	g.addPoints(p.Team, points)
	log.Infof("Match %s: Player %s announced %s for %d.", g.ID, p.ID, suit, points)

	g.fireEvent(GameEvent{
		Type: EventAnnouncementMade,
		User: g.eventUser(p),
		Payload: map[string]interface{}{
			"palo":            suit,
			"puntos":          points,
			"triunfo":         suit == g.Game.TrumpSuit,
			"puntos_equipo_1": g.Team1Score,
			"puntos_equipo_2": g.Team2Score,
		},
	})
	g.logAction(p.ID, string(EventAnnouncementMade), map[string]interface{}{"suit": suit, "points": points})

	// A canto can carry a revueltas team past the threshold.
	if !g.checkCompletion() {
		g.persist()
	}
	return nil
}

// bestCantoSuit returns the suit p would score the most for, or "".
// Assumes lock is held by caller.
func (g *Match) bestCantoSuit(p *models.Player) engine.Suit {
	trump := g.Game.TrumpSuit
	if !g.Game.Cantos[trump] && engine.HasCanto(p.Hand, trump) {
		return trump
	}
	for _, s := range engine.Suits {
		if !g.Game.Cantos[s] && engine.HasCanto(p.Hand, s) {
			return s
		}
	}
	return ""
}

// handleExchangeSeven swaps the player's seven of trumps for the face-up trump card.
// Assumes lock is held by caller.
func (g *Match) handleExchangeSeven(p *models.Player) error {
	if err := g.checkSpecialWindow(p); err != nil {
		return err
	}
	if g.Game.Arrastre || g.Game.TrumpCardDrawn {
		return illegal(ReasonArrastre)
	}
	seven := engine.NewCard(g.Game.TrumpSuit, engine.RankSiete)
	idx := engine.IndexOf(p.Hand, seven)
	if idx < 0 {
		return illegal(ReasonNoTrumpSeven)
	}

	old := g.Game.TrumpCard
	p.Hand[idx] = old
	g.Game.TrumpCard = seven
	log.Infof("Match %s: Player %s exchanged the seven for %v.", g.ID, p.ID, old)

	taken := old
	g.fireEvent(GameEvent{
		Type: EventTrumpExchanged,
		User: g.eventUser(p),
		Card: &taken,
		Payload: map[string]interface{}{
			"carta_triunfo": seven,
		},
	})
	g.logAction(p.ID, string(EventTrumpExchanged), map[string]interface{}{"taken": old})
	g.persist()
	return nil
}
