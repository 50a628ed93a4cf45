// internal/game/engine_adapter.go
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/models"
)

// startMatch seats players in alternating team order, deals and starts the first turn.
// Assumes lock is held by caller.
func (g *Match) startMatch() {
	g.arrangeSeats()
	g.deal()
	g.State = StatePlaying
	log.Infof("Match %s: Started (%s, trump %s).", g.ID, g.flavor.name(), g.Game.TrumpSuit)
	g.logAction(uuid.Nil, "match_start", map[string]interface{}{"trump": g.Game.TrumpCard})
	g.emitLifecycle(LifecycleStarted, uuid.Nil, map[string]interface{}{"flavor": g.flavor.name()})

	g.broadcastStartGame()
	g.setTurn(g.Players[0].ID)
	g.persist()
}

// arrangeSeats orders Players as team 1, team 2, team 1, team 2 keeping join order within a team.
// Assumes lock is held by caller.
func (g *Match) arrangeSeats() {
	var t1, t2 []*models.Player
	for _, p := range g.Players {
		if p.Team == 1 {
			t1 = append(t1, p)
		} else {
			t2 = append(t2, p)
		}
	}
	if len(t1) != len(t2) {
		return
	}
	seats := make([]*models.Player, 0, len(g.Players))
	for i := range t1 {
		seats = append(seats, t1[i], t2[i])
	}
	g.Players = seats
}

// deal shuffles a fresh deck, reveals the trump card and hands out six cards per seat.
// Assumes lock is held by caller.
func (g *Match) deal() {
	deck := engine.BuildDeck()
	engine.Shuffle(deck, g.rng)
	res := engine.Deal(deck, len(g.Players))

	for i, p := range g.Players {
		p.Hand = res.Hands[i]
	}
	// Pause requests and used cantos last for the whole match, revueltas included.
	pauses := g.Game.PauseRequests
	cantos := g.Game.Cantos
	if cantos == nil {
		cantos = make(map[engine.Suit]bool)
	}
	g.Game = GameState{
		Deck:          res.Stock,
		TrumpSuit:     res.TrumpCard.Suit,
		TrumpCard:     res.TrumpCard,
		Trick:         []TrickPlay{},
		Cantos:        cantos,
		PauseRequests: pauses,
	}
}

// broadcastStartGame privately sends each seat the projection with its own hand.
// Assumes lock is held by caller.
func (g *Match) broadcastStartGame() {
	for _, p := range g.Players {
		g.sendSyncState(p.ID)
	}
}

// sendSyncState sends the start_game projection to one seat.
// Assumes lock is held by caller.
func (g *Match) sendSyncState(playerID uuid.UUID) {
	state := g.GetCurrentObfuscatedGameState(playerID)
	g.fireEventToPlayer(playerID, GameEvent{
		Type:  EventStartGame,
		State: &state,
		Payload: map[string]interface{}{
			"chat_id": g.ChatID.String(),
		},
	})
}

// setTurn hands the turn to playerID, announces it and restarts the timer.
// Assumes lock is held by caller.
func (g *Match) setTurn(playerID uuid.UUID) {
	g.Game.CurrentTurn = playerID
	g.TurnID++
	g.fireEvent(g.turnEvent())
	g.scheduleTurnTimer()
}

// turnEvent builds the turn_update event for the current turn holder.
// Assumes lock is held by caller.
func (g *Match) turnEvent() GameEvent {
	ev := GameEvent{
		Type:    EventTurnUpdate,
		Payload: map[string]interface{}{"turn": g.TurnID},
	}
	if p := g.getPlayerByID(g.Game.CurrentTurn); p != nil {
		ev.User = g.eventUser(p)
		ev.Payload["message"] = fmt.Sprintf("Es el turno de %s.", p.Username())
	}
	return ev
}

// stopTurnTimer cancels any pending timer.
// Assumes lock is held by caller.
func (g *Match) stopTurnTimer() {
	if g.turnTimer != nil {
		g.turnTimer.Stop()
		g.turnTimer = nil
	}
}

// scheduleTurnTimer replaces the pending timer with a fresh one for the current turn.
// A fire is discarded unless the match is still in play on the same TurnID.
// Assumes lock is held by caller.
func (g *Match) scheduleTurnTimer() {
	g.stopTurnTimer()
	if g.TurnDuration <= 0 || g.State != StatePlaying {
		return
	}

	curTurnID := g.TurnID
	capturedPlayer := g.Game.CurrentTurn

	g.turnTimer = time.AfterFunc(g.TurnDuration, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()

		if g.State != StatePlaying || g.TurnID != curTurnID || g.Game.CurrentTurn != capturedPlayer {
			return
		}
		log.Infof("Match %s, Turn %d: Timer fired for player %s.", g.ID, g.TurnID, capturedPlayer)
		g.handleTimeout(capturedPlayer)
	})
}

// handleTimeout plays a random legal card for the player whose turn expired.
// Assumes lock is held by caller.
func (g *Match) handleTimeout(playerID uuid.UUID) {
	p := g.getPlayerByID(playerID)
	if p == nil || len(p.Hand) == 0 {
		log.Warnf("Match %s: Timeout for %s but no card to play.", g.ID, playerID)
		return
	}
	legal := g.legalPlays(p)
	card := p.Hand[0]
	if len(legal) > 0 {
		card = legal[g.rng.Intn(len(legal))]
	}
	g.applyPlay(p, card, true)
}

// legalPlays returns the cards p may play now.
// Assumes lock is held by caller.
func (g *Match) legalPlays(p *models.Player) []engine.Card {
	arrastre := g.Game.Arrastre && g.Rules.ArrastreRules
	trick := g.enginePlays()
	seat := g.seatOf(p.ID)
	partner := g.flavor.partnerWaiver() && engine.PartnerWinning(trick, seat, g.Game.TrumpSuit, g.Capacity)
	return engine.LegalPlays(p.Hand, trick, g.Game.TrumpSuit, arrastre, partner)
}

// enginePlays converts the current trick into seat-indexed plays.
// Assumes lock is held by caller.
func (g *Match) enginePlays() []engine.Play {
	plays := make([]engine.Play, len(g.Game.Trick))
	for i, tp := range g.Game.Trick {
		plays[i] = engine.Play{Seat: g.seatOf(tp.PlayerID), Card: tp.Card}
	}
	return plays
}

// handlePlayCard validates and applies a manual play.
// Assumes lock is held by caller.
func (g *Match) handlePlayCard(p *models.Player, card *engine.Card) error {
	if g.State != StatePlaying {
		return illegal(ReasonNotPlaying)
	}
	if g.Game.CurrentTurn != p.ID {
		return illegal(ReasonNotYourTurn)
	}
	if card == nil || !card.Valid() {
		return illegal(ReasonInvalidCard)
	}
	if !p.HasCard(*card) {
		return illegal(ReasonCardNotInHand)
	}
	if engine.IndexOf(g.legalPlays(p), *card) < 0 {
		return illegal(ReasonCardNotAllowed)
	}
	g.applyPlay(p, *card, false)
	return nil
}

// applyPlay moves card from p's hand to the trick and advances the match.
// Assumes lock is held by caller.
func (g *Match) applyPlay(p *models.Player, card engine.Card, automatic bool) {
	hand, ok := engine.Remove(p.Hand, card)
	if !ok {
		log.Errorf("Match %s: applyPlay with card %v not in hand of %s.", g.ID, card, p.ID)
		return
	}
	p.Hand = hand
	g.Game.Trick = append(g.Game.Trick, TrickPlay{PlayerID: p.ID, Card: card})
	g.stopTurnTimer()

	c := card
	g.fireEvent(GameEvent{
		Type: EventCardPlayed,
		User: g.eventUser(p),
		Card: &c,
		Payload: map[string]interface{}{
			"automatica": automatic,
		},
	})
	g.logAction(p.ID, string(EventCardPlayed), map[string]interface{}{"card": card, "automatic": automatic})

	if len(g.Game.Trick) < g.Capacity {
		next := g.Players[(g.seatOf(p.ID)+1)%len(g.Players)]
		g.setTurn(next.ID)
		g.persist()
		return
	}
	g.resolveTrick()
	g.persist()
}

// resolveTrick scores a full trick, draws, and either ends the deal or hands the lead to the winner.
// Assumes lock is held by caller.
func (g *Match) resolveTrick() {
	plays := g.enginePlays()
	w := engine.TrickWinner(plays, g.Game.TrumpSuit)
	winner := g.getPlayerByID(g.Game.Trick[w].PlayerID)
	points := engine.TrickPoints(plays)

	g.Game.Trick = []TrickPlay{}
	g.Game.LastTrickWinner = winner.ID
	g.Game.CantoThisTrick = false

	lastTrick := g.Game.stockEmpty() && g.handsEmpty()
	if lastTrick {
		points += engine.LastTrickBonus
	}
	g.addPoints(winner.Team, points)

	g.fireEvent(GameEvent{
		Type: EventRoundResult,
		User: g.eventUser(winner),
		Payload: map[string]interface{}{
			"puntos_baza":     points,
			"ultima_baza":     lastTrick,
			"puntos_equipo_1": g.Team1Score,
			"puntos_equipo_2": g.Team2Score,
		},
	})
	g.logAction(winner.ID, string(EventRoundResult), map[string]interface{}{"points": points})

	if !g.Game.Arrastre {
		g.drawCards(winner)
	}
	if g.checkCompletion() {
		return
	}
	g.setTurn(winner.ID)
}

// drawCards gives one card to each seat starting from the trick winner, then
// enters arrastre once nothing is left to draw.
// Assumes lock is held by caller.
func (g *Match) drawCards(winner *models.Player) {
	start := g.seatOf(winner.ID)
	for i := 0; i < len(g.Players); i++ {
		p := g.Players[(start+i)%len(g.Players)]
		card, ok := g.drawOne()
		if !ok {
			break
		}
		p.Hand = append(p.Hand, card)
		c := card
		g.fireEventToPlayer(p.ID, GameEvent{
			Type: EventCardDrawn,
			Card: &c,
			Payload: map[string]interface{}{
				"mazo_restante": len(g.Game.Deck),
			},
		})
	}

	if g.Game.stockEmpty() {
		g.enterArrastre(winner.Team)
	}
}

// drawOne takes the top card, falling back to the face-up trump card last.
// Assumes lock is held by caller.
func (g *Match) drawOne() (engine.Card, bool) {
	if len(g.Game.Deck) > 0 {
		c := g.Game.Deck[0]
		g.Game.Deck = g.Game.Deck[1:]
		return c, true
	}
	if !g.Game.TrumpCardDrawn {
		g.Game.TrumpCardDrawn = true
		return g.Game.TrumpCard, true
	}
	return engine.Card{}, false
}

// enterArrastre switches to the endgame phase and applies the optional trump bonus.
// Assumes lock is held by caller.
func (g *Match) enterArrastre(lastWinnerTeam int) {
	g.Game.Arrastre = true
	payload := map[string]interface{}{
		"message":       "La partida entra en fase de arrastre.",
		"carta_triunfo": g.Game.TrumpCard,
	}
	if g.Rules.TrumpBonusOnArrastre {
		loser := otherTeam(lastWinnerTeam)
		bonus := g.Game.TrumpCard.Points()
		g.addPoints(loser, bonus)
		payload["equipo_que_gana_triunfo"] = loser
		payload["puntos_triunfo"] = bonus
	}
	g.fireEvent(GameEvent{Type: EventPhaseUpdate, Payload: payload})
	g.logAction(uuid.Nil, string(EventPhaseUpdate), payload)
}

// checkCompletion ends the match, starts a revueltas deal, or reports that play continues.
// Assumes lock is held by caller.
func (g *Match) checkCompletion() bool {
	t := g.Rules.WinThreshold
	over1, over2 := g.Team1Score > t, g.Team2Score > t
	lastTeam := g.teamOf(g.Game.LastTrickWinner)
	dealOver := g.Game.stockEmpty() && g.handsEmpty()

	if !g.Revueltas && !dealOver {
		return false
	}
	if over1 || over2 {
		winner := 1
		switch {
		case over1 && over2:
			winner = lastTeam
		case over2:
			winner = 2
		}
		g.EndGame(winner)
		return true
	}
	if !dealOver {
		return false
	}
	if g.Rules.AllowRevueltas {
		g.startRevueltas()
		return true
	}

	winner := lastTeam
	if g.Team1Score > g.Team2Score {
		winner = 1
	} else if g.Team2Score > g.Team1Score {
		winner = 2
	}
	g.EndGame(winner)
	return true
}

// startRevueltas deals again keeping teams and scores.
// Assumes lock is held by caller.
func (g *Match) startRevueltas() {
	g.Revueltas = true
	log.Infof("Match %s: Nobody passed %d (%d-%d). Dealing revueltas.", g.ID, g.Rules.WinThreshold, g.Team1Score, g.Team2Score)
	g.logAction(uuid.Nil, "revueltas_start", map[string]interface{}{"team1": g.Team1Score, "team2": g.Team2Score})
	g.deal()
	g.broadcastStartGame()
	g.setTurn(g.Players[0].ID)
}

// handsEmpty reports whether every seat has played out its hand.
// Assumes lock is held by caller.
func (g *Match) handsEmpty() bool {
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// addPoints credits a team.
// Assumes lock is held by caller.
func (g *Match) addPoints(team, points int) {
	if team == 1 {
		g.Team1Score += points
	} else {
		g.Team2Score += points
	}
}

// teamOf returns the team of a seated player, or 0.
// Assumes lock is held by caller.
func (g *Match) teamOf(playerID uuid.UUID) int {
	if p := g.getPlayerByID(playerID); p != nil {
		return p.Team
	}
	return 0
}

func otherTeam(team int) int {
	if team == 1 {
		return 2
	}
	return 1
}
