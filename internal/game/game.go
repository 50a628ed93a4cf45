// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fastrand"

	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/cache"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/sotacaballorey/guinote/internal/store"
)

// GameEventType represents the type of an outbound match event.
type GameEventType string

// Constants defining the GameEvent types sent to players.
const (
	EventPlayerJoined     GameEventType = "player_joined"     // Public: a seat was taken or a player reconnected.
	EventPlayerLeft       GameEventType = "player_left"       // Public: a player disconnected or left.
	EventStartGame        GameEventType = "start_game"        // Private: full projection with the player's own hand.
	EventTurnUpdate       GameEventType = "turn_update"       // Public: whose turn it is.
	EventCardPlayed       GameEventType = "card_played"       // Public: a card was played (automatica on timeout).
	EventRoundResult      GameEventType = "round_result"      // Public: trick winner, points and running scores.
	EventCardDrawn        GameEventType = "card_drawn"        // Private: the card a player drew.
	EventPhaseUpdate      GameEventType = "phase_update"      // Public: arrastre started.
	EventAnnouncementMade GameEventType = "announcement_made" // Public: canto.
	EventTrumpExchanged   GameEventType = "trump_exchanged"   // Public: cambio de siete.
	EventPauseRequested   GameEventType = "pause_requested"   // Public: a player asked to pause.
	EventAllPaused        GameEventType = "all_paused"        // Public: the match is paused.
	EventResumed          GameEventType = "resumed"           // Public: a pause request was withdrawn.
	EventEndGame          GameEventType = "end_game"          // Public: final scores and winner.
	EventError            GameEventType = "error"             // Private: a rejected action.
)

// EventUser identifies a player within a GameEvent.
type EventUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
	Team     int       `json:"team,omitempty"`
}

// GameEvent is the envelope of every outbound message.
type GameEvent struct {
	Type GameEventType `json:"type"`
	User *EventUser    `json:"user,omitempty"` // The player the event is about.
	Card *engine.Card  `json:"card,omitempty"` // Card involved, if any.

	Payload map[string]interface{} `json:"data,omitempty"`

	State *ObfGameState `json:"state,omitempty"` // Projection for start_game.
}

// LifecycleKind names a lifecycle notification for collaborators outside the match.
type LifecycleKind string

const (
	LifecyclePlayerJoined LifecycleKind = "player_joined"
	LifecyclePlayerLeft   LifecycleKind = "player_left"
	LifecycleStarted      LifecycleKind = "started"
	LifecycleFinished     LifecycleKind = "finished"
	LifecycleEmptied      LifecycleKind = "emptied"
)

// LifecycleEvent is emitted on joins, leaves, start and finish.
type LifecycleEvent struct {
	Kind     LifecycleKind          `json:"kind"`
	MatchID  uuid.UUID              `json:"matchId"`
	PlayerID uuid.UUID              `json:"playerId,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// FriendChecker answers the friends-only admission question.
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Match is one Guiñote room: seats, table state, scores and the turn timer.
// Every mutation goes through Mu; exported methods take it themselves.
type Match struct {
	ID       uuid.UUID
	ChatID   uuid.UUID // chat room reference handed to clients
	Capacity int       // 2 or 4
	Config   models.MatchConfig
	Rules    engine.HouseRules

	State      MatchState
	Team1Score int
	Team2Score int
	Revueltas  bool // playing a continuation deal with carried scores
	Game       GameState
	Players    []*models.Player // seat order once started

	FinishedAt time.Time

	// closed is set once the match is emptied or swept; it admits nobody after that.
	closed bool

	flavor flavor
	rng    *engine.RNG

	// Turn Management
	TurnID       int           // Increments whenever the turn holder or match state changes.
	TurnDuration time.Duration // Length of each turn.
	turnTimer    *time.Timer   // Active timer for the current turn.
	actionIndex  int           // Sequential index for the action log.

	Mu sync.Mutex

	// Collaborators
	Store   store.MatchStore
	Friends FriendChecker
	Stats   StatsStore

	// Communication Callbacks
	BroadcastFn         func(ev GameEvent)                      // Sends an event to every seat.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)  // Sends an event to one seat.
	DisconnectFn        func(playerID uuid.UUID, reason string) // Closes a seat's connection.
	OnLifecycle         func(ev LifecycleEvent)                 // Notifies collaborators; must not block.
}

// NewMatch creates an empty waiting match.
func NewMatch(capacity int, cfg models.MatchConfig) *Match {
	if capacity != 4 {
		capacity = 2
	}
	rules := engine.DefaultHouseRules()
	rules.ArrastreRules = cfg.ArrastreRules
	rules.AllowRevueltas = cfg.AllowRevueltas
	rules.TrumpBonusOnArrastre = cfg.TrumpBonusOnArrastre

	seed := uint64(fastrand.Uint32())<<32 | uint64(fastrand.Uint32())
	return &Match{
		ID:           uuid.New(),
		ChatID:       uuid.New(),
		Capacity:     capacity,
		Config:       cfg,
		Rules:        rules,
		State:        StateWaiting,
		Game:         GameState{Cantos: make(map[engine.Suit]bool)},
		flavor:       flavorFor(capacity),
		rng:          engine.NewRNG(seed),
		TurnDuration: cfg.TurnTimeout.Duration(),
	}
}

// MatchInfo is a point-in-time summary used by the registry.
type MatchInfo struct {
	ID         uuid.UUID
	State      MatchState
	Capacity   int
	Seated     int
	Connected  int
	Config     models.MatchConfig
	FinishedAt time.Time
}

// Info summarizes the match under the lock.
func (g *Match) Info() MatchInfo {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return MatchInfo{
		ID:         g.ID,
		State:      g.State,
		Capacity:   g.Capacity,
		Seated:     len(g.Players),
		Connected:  g.countConnectedPlayers(),
		Config:     g.Config,
		FinishedAt: g.FinishedAt,
	}
}

// HasPlayer reports whether playerID holds a seat.
func (g *Match) HasPlayer(playerID uuid.UUID) bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.getPlayerByID(playerID) != nil
}

// Join seats user, or reconnects them if already seated. handle identifies the
// delivering connection. Friends-only admission is checked before the seat is created.
func (g *Match) Join(ctx context.Context, user *models.User, handle uuid.UUID) (*models.Player, error) {
	g.Mu.Lock()
	if g.closed {
		g.Mu.Unlock()
		return nil, &AdmissionError{Reason: ReasonMatchClosed}
	}
	if p := g.getPlayerByID(user.ID); p != nil {
		g.handleReconnect(p, handle)
		g.Mu.Unlock()
		return p, nil
	}
	if err := g.checkAdmission(); err != nil {
		g.Mu.Unlock()
		return nil, err
	}
	seated := make([]uuid.UUID, 0, len(g.Players))
	for _, p := range g.Players {
		seated = append(seated, p.ID)
	}
	friendsOnly := g.Config.FriendsOnly
	g.Mu.Unlock()

	if friendsOnly && len(seated) > 0 {
		if err := g.checkFriends(ctx, user.ID, seated); err != nil {
			return nil, err
		}
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()
	// State may have moved while the friendship lookup ran.
	if g.closed {
		return nil, &AdmissionError{Reason: ReasonMatchClosed}
	}
	if p := g.getPlayerByID(user.ID); p != nil {
		g.handleReconnect(p, handle)
		return p, nil
	}
	if err := g.checkAdmission(); err != nil {
		return nil, err
	}
	return g.addPlayer(user, handle), nil
}

// checkAdmission verifies a new seat may be created.
// Assumes lock is held by caller.
func (g *Match) checkAdmission() error {
	if g.State != StateWaiting {
		return &AdmissionError{Reason: ReasonAlreadyStarted}
	}
	if len(g.Players) >= g.Capacity {
		return &AdmissionError{Reason: ReasonMatchFull}
	}
	return nil
}

func (g *Match) checkFriends(ctx context.Context, joiner uuid.UUID, seated []uuid.UUID) error {
	if g.Friends == nil {
		return &AdmissionError{Reason: ReasonFriendCheckFailed}
	}
	for _, id := range seated {
		ok, err := g.Friends.AreFriends(ctx, joiner, id)
		if err != nil {
			log.WithError(err).Warnf("Match %s: friendship lookup failed for %s.", g.ID, joiner)
			return &AdmissionError{Reason: ReasonFriendCheckFailed}
		}
		if ok {
			return nil
		}
	}
	return &AdmissionError{Reason: ReasonNotFriend}
}

// addPlayer creates a seat and starts the match when the table is full.
// Assumes lock is held by caller.
func (g *Match) addPlayer(user *models.User, handle uuid.UUID) *models.Player {
	p := &models.Player{
		ID:        user.ID,
		Team:      g.nextTeam(),
		Connected: true,
		Handle:    handle,
		User:      user,
	}
	g.Players = append(g.Players, p)
	log.Infof("Match %s: Player %s (%s) seated on team %d (%d/%d).", g.ID, p.ID, p.Username(), p.Team, len(g.Players), g.Capacity)

	g.fireEvent(GameEvent{
		Type: EventPlayerJoined,
		User: g.eventUser(p),
		Payload: map[string]interface{}{
			"message":   fmt.Sprintf("%s se ha unido a la partida.", p.Username()),
			"chat_id":   g.ChatID.String(),
			"capacidad": g.Capacity,
			"jugadores": len(g.Players),
		},
	})
	g.logAction(p.ID, "player_add", map[string]interface{}{"team": p.Team, "username": p.Username()})
	g.emitLifecycle(LifecyclePlayerJoined, p.ID, map[string]interface{}{"team": p.Team})

	if len(g.Players) == g.Capacity {
		g.startMatch()
	} else {
		g.persist()
	}
	return p
}

// nextTeam assigns the team with fewer seats; ties go to team 1, so joins alternate 1,2,1,2.
// Assumes lock is held by caller.
func (g *Match) nextTeam() int {
	count := [3]int{}
	for _, p := range g.Players {
		count[p.Team]++
	}
	if count[1] <= count[2] {
		return 1
	}
	return 2
}

// handleReconnect re-attaches a seated player to a new connection.
// Assumes lock is held by caller.
func (g *Match) handleReconnect(p *models.Player, handle uuid.UUID) {
	wasConnected := p.Connected
	p.Connected = true
	p.Handle = handle
	g.Game.removePauseRequest(p.ID)
	log.Infof("Match %s: Player %s (%s) reconnected (state %s, was connected: %v).", g.ID, p.ID, p.Username(), g.State, wasConnected)

	g.fireEvent(GameEvent{
		Type: EventPlayerJoined,
		User: g.eventUser(p),
		Payload: map[string]interface{}{
			"message":   fmt.Sprintf("%s se ha reconectado.", p.Username()),
			"chat_id":   g.ChatID.String(),
			"capacidad": g.Capacity,
			"jugadores": len(g.Players),
			"reconnect": true,
		},
	})
	g.logAction(p.ID, "player_reconnect", nil)

	switch g.State {
	case StatePaused:
		if g.countConnectedPlayers() == len(g.Players) {
			g.resumeMatch()
			return
		}
		g.sendSyncState(p.ID)
	case StatePlaying:
		g.sendSyncState(p.ID)
		g.fireEventToPlayer(p.ID, g.turnEvent())
	case StateFinished:
		g.sendSyncState(p.ID)
	}
	g.persist()
}

// HandleDisconnect processes a closed connection. A handle that no longer
// matches the seat's current connection is ignored.
func (g *Match) HandleDisconnect(playerID, handle uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.getPlayerByID(playerID)
	if p == nil {
		log.Debugf("Match %s: Disconnected player %s not found.", g.ID, playerID)
		return
	}
	if handle != uuid.Nil && p.Handle != handle {
		log.Debugf("Match %s: Ignoring stale disconnect for %s.", g.ID, playerID)
		return
	}
	log.Infof("Match %s: Handling disconnect for player %s (state %s).", g.ID, playerID, g.State)
	g.logAction(playerID, "player_disconnect", nil)

	switch g.State {
	case StateWaiting, StateFinished:
		g.removePlayer(playerID)
		g.fireEvent(GameEvent{
			Type: EventPlayerLeft,
			User: g.eventUser(p),
			Payload: map[string]interface{}{
				"message":   fmt.Sprintf("%s ha abandonado la partida.", p.Username()),
				"capacidad": g.Capacity,
				"jugadores": len(g.Players),
			},
		})
		g.emitLifecycle(LifecyclePlayerLeft, playerID, nil)
		if len(g.Players) == 0 {
			g.emptied()
			return
		}
	default:
		if !p.Connected {
			return
		}
		p.Connected = false
		p.Handle = uuid.Nil
		g.fireEvent(GameEvent{
			Type: EventPlayerLeft,
			User: g.eventUser(p),
			Payload: map[string]interface{}{
				"message":   fmt.Sprintf("%s se ha desconectado.", p.Username()),
				"capacidad": g.Capacity,
				"jugadores": g.countConnectedPlayers(),
			},
		})
		g.emitLifecycle(LifecyclePlayerLeft, playerID, map[string]interface{}{"seatKept": true})
	}
	g.persist()
}

// removePlayer deletes a seat.
// Assumes lock is held by caller.
func (g *Match) removePlayer(playerID uuid.UUID) {
	for i, p := range g.Players {
		if p.ID == playerID {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return
		}
	}
}

// emptied deletes the stored match and tells the registry.
// Assumes lock is held by caller.
func (g *Match) emptied() {
	log.Infof("Match %s: Empty, deleting.", g.ID)
	g.closed = true
	g.stopTurnTimer()
	if g.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.Store.Delete(ctx, g.ID); err != nil {
			log.WithError(err).Errorf("Match %s: Failed deleting stored match.", g.ID)
		}
	}
	g.emitLifecycle(LifecycleEmptied, uuid.Nil, nil)
}

// CloseIfEmpty closes a waiting match nobody is seated in. It reports whether
// the match was closed.
func (g *Match) CloseIfEmpty() bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.closed || g.State != StateWaiting || len(g.Players) > 0 {
		return false
	}
	g.closed = true
	return true
}

// Close stops timers, closes every seat's connection and stops admitting
// joins. Used by the sweeper.
func (g *Match) Close(reason string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.closed = true
	g.stopTurnTimer()
	for _, p := range g.Players {
		if p.Connected {
			g.disconnectPlayer(p, reason)
		}
	}
}

// HandlePlayerAction routes an inbound action. Rejections are reported
// privately as an error event and returned; match state is unchanged.
func (g *Match) HandlePlayerAction(playerID uuid.UUID, action models.GameAction) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	player := g.getPlayerByID(playerID)
	if player == nil {
		log.Debugf("Match %s: Action %s from unseated player %s ignored.", g.ID, action.ActionType, playerID)
		return ErrPlayerNotFound
	}

	var err error
	switch action.ActionType {
	case models.ActionPlayCard:
		err = g.handlePlayCard(player, action.Card)
	case models.ActionAnnounce:
		err = g.handleAnnounce(player, action.Suit)
	case models.ActionExchangeSeven:
		err = g.handleExchangeSeven(player)
	case models.ActionRequestPause:
		err = g.handleRequestPause(player)
	case models.ActionCancelPauseRequest:
		err = g.handleCancelPause(player)
	default:
		err = illegal(ReasonUnknownAction)
	}

	if err != nil {
		log.Debugf("Match %s: Action %s from %s rejected: %v", g.ID, action.ActionType, playerID, err)
		g.fireEventToPlayer(playerID, GameEvent{
			Type:    EventError,
			Payload: map[string]interface{}{"message": err.Error()},
		})
		return err
	}
	return nil
}

// EndGame finalizes the match: broadcasts the result, records ratings and
// streaks for non-custom matches and closes every connection.
// Assumes lock is held by caller.
func (g *Match) EndGame(winnerTeam int) {
	if g.State == StateFinished {
		log.Debugf("Match %s: EndGame called, but match is already finished.", g.ID)
		return
	}
	g.stopTurnTimer()
	g.State = StateFinished
	g.FinishedAt = time.Now()
	g.TurnID++
	log.Infof("Match %s: Finished. Team %d wins %d-%d.", g.ID, winnerTeam, g.Team1Score, g.Team2Score)

	g.fireEvent(GameEvent{
		Type: EventEndGame,
		Payload: map[string]interface{}{
			"message":         "Fin de la partida.",
			"ganador_equipo":  winnerTeam,
			"puntos_equipo_1": g.Team1Score,
			"puntos_equipo_2": g.Team2Score,
			"revueltas":       g.Revueltas,
		},
	})
	g.logAction(uuid.Nil, string(EventEndGame), map[string]interface{}{
		"winner": winnerTeam,
		"team1":  g.Team1Score,
		"team2":  g.Team2Score,
	})

	if !g.Config.Custom {
		g.recordResults(winnerTeam)
	}
	g.persist()
	g.emitLifecycle(LifecycleFinished, uuid.Nil, map[string]interface{}{
		"winner": winnerTeam,
		"team1":  g.Team1Score,
		"team2":  g.Team2Score,
		"flavor": g.flavor.name(),
	})

	for _, p := range g.Players {
		if p.Connected {
			g.disconnectPlayer(p, "Match finished.")
		}
	}
}

// disconnectPlayer closes a seat's connection. The seat's Handle is cleared
// first so the resulting disconnect callback is ignored.
// Assumes lock is held by caller.
func (g *Match) disconnectPlayer(p *models.Player, reason string) {
	p.Handle = uuid.Nil
	if g.DisconnectFn != nil {
		g.DisconnectFn(p.ID, reason)
	}
}

// fireEvent broadcasts an event to every seat via the BroadcastFn callback.
// Assumes lock is held by caller.
func (g *Match) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	} else {
		log.Warnf("Match %s: BroadcastFn is nil, cannot broadcast event type %s.", g.ID, ev.Type)
	}
}

// fireEventToPlayer sends an event to a connected seat via BroadcastToPlayerFn.
// Assumes lock is held by caller.
func (g *Match) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn == nil {
		log.Warnf("Match %s: BroadcastToPlayerFn is nil, cannot send private event type %s to player %s.", g.ID, ev.Type, playerID)
		return
	}
	target := g.getPlayerByID(playerID)
	if target != nil && target.Connected {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// emitLifecycle forwards a lifecycle notification, if anyone listens.
// Assumes lock is held by caller.
func (g *Match) emitLifecycle(kind LifecycleKind, playerID uuid.UUID, payload map[string]interface{}) {
	if g.OnLifecycle == nil {
		return
	}
	g.OnLifecycle(LifecycleEvent{Kind: kind, MatchID: g.ID, PlayerID: playerID, Payload: payload})
}

// persist writes the match to the store. Failures are logged; play continues.
// Assumes lock is held by caller.
func (g *Match) persist() {
	if g.Store == nil {
		return
	}
	rec, err := g.record()
	if err != nil {
		log.WithError(err).Errorf("Match %s: Failed building record.", g.ID)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.Store.Save(ctx, rec); err != nil {
		log.WithError(err).Errorf("Match %s: Failed saving match.", g.ID)
	}
}

// countConnectedPlayers returns the number of seats with a live connection.
// Assumes lock is held by caller.
func (g *Match) countConnectedPlayers() int {
	count := 0
	for _, p := range g.Players {
		if p.Connected {
			count++
		}
	}
	return count
}

// getPlayerByID finds a seat by player id, or nil.
// Assumes lock is held by caller.
func (g *Match) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// seatOf returns the seat index of a player, or -1.
// Assumes lock is held by caller.
func (g *Match) seatOf(playerID uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (g *Match) eventUser(p *models.Player) *EventUser {
	return &EventUser{ID: p.ID, Username: p.Username(), Team: p.Team}
}

// logAction appends an entry to the match's action log in redis.
// Assumes lock is held by caller.
func (g *Match) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if cache.Rdb == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.MatchActionRecord{
		MatchID:       g.ID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	go func(rec cache.MatchActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishMatchAction(ctx, rec); err != nil {
			log.Errorf("Match %s: Failed publishing action %d ('%s'): %v", rec.MatchID, rec.ActionIndex, rec.ActionType, err)
		}
	}(record)
}
