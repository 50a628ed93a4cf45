package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/events"
	"github.com/sotacaballorey/guinote/internal/game"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/sotacaballorey/guinote/internal/store"
)

// JoinRequest describes what the client asked for on connect.
type JoinRequest struct {
	MatchID  uuid.UUID // explicit match; Nil means matchmaking or a fresh custom match
	Capacity int
	Config   models.MatchConfig
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Store        store.MatchStore
	Stats        game.StatsStore
	Friends      game.FriendChecker
	Publisher    *events.Publisher
	Retention    time.Duration
	WinThreshold int
}

// Registry owns the live matches of this process.
type Registry struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*game.Match

	hub  *Hub
	opts RegistryOptions
}

// NewRegistry creates a registry delivering through hub.
func NewRegistry(hub *Hub, opts RegistryOptions) *Registry {
	if opts.WinThreshold <= 0 {
		opts.WinThreshold = 100
	}
	return &Registry{
		matches: make(map[uuid.UUID]*game.Match),
		hub:     hub,
		opts:    opts,
	}
}

// wire connects a match to the hub, stores and collaborators.
func (r *Registry) wire(g *game.Match) {
	matchID := g.ID
	g.Rules.WinThreshold = r.opts.WinThreshold
	g.Store = r.opts.Store
	g.Stats = r.opts.Stats
	g.Friends = r.opts.Friends
	g.BroadcastFn = func(ev game.GameEvent) {
		r.hub.Broadcast(matchID, ev)
	}
	g.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.GameEvent) {
		r.hub.SendTo(matchID, playerID, ev)
	}
	g.DisconnectFn = func(playerID uuid.UUID, reason string) {
		r.hub.Disconnect(matchID, playerID, reason)
	}
	g.OnLifecycle = func(ev game.LifecycleEvent) {
		r.opts.Publisher.Publish(ev)
		if ev.Kind == game.LifecycleEmptied {
			// Called under g.Mu. The registry never takes a match lock while
			// holding r.mu, so removing here cannot deadlock.
			r.remove(g)
		}
	}
}

func (r *Registry) add(g *game.Match) {
	r.mu.Lock()
	r.matches[g.ID] = g
	r.mu.Unlock()
}

// remove forgets g, unless another instance has been registered under its id.
func (r *Registry) remove(g *game.Match) {
	r.mu.Lock()
	if r.matches[g.ID] == g {
		delete(r.matches, g.ID)
	}
	r.mu.Unlock()
	log.Debugf("Match %s: Removed from registry.", g.ID)
}

// Get returns a live match.
func (r *Registry) Get(id uuid.UUID) (*game.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.matches[id]
	return g, ok
}

// Count returns the number of live matches.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

// Join resolves the requested match, attaches s and seats the user.
func (r *Registry) Join(ctx context.Context, s *Session, req JoinRequest) (*game.Match, error) {
	if req.MatchID != uuid.Nil {
		g, err := r.lookup(ctx, req.MatchID)
		if err != nil {
			return nil, err
		}
		return r.joinMatch(ctx, g, s)
	}

	// A user already seated somewhere reconnects there.
	if g := r.findSeated(s.User.ID); g != nil {
		return r.joinMatch(ctx, g, s)
	}

	// Another joiner may fill or empty a waiting match first; retry with the next one.
	tried := make(map[uuid.UUID]bool)
	for attempt := 0; attempt < 3; attempt++ {
		g := r.findOpen(req, tried)
		if g == nil {
			break
		}
		tried[g.ID] = true
		joined, err := r.joinMatch(ctx, g, s)
		if retryable(err) {
			continue
		}
		return joined, err
	}
	return r.joinMatch(ctx, r.create(req), s)
}

// retryable reports whether a matchmaking join may try another room.
func retryable(err error) bool {
	var admissionErr *game.AdmissionError
	if !errors.As(err, &admissionErr) {
		return false
	}
	switch admissionErr.Reason {
	case game.ReasonMatchFull, game.ReasonAlreadyStarted, game.ReasonMatchClosed,
		game.ReasonNotFriend, game.ReasonFriendCheckFailed:
		return true
	}
	return false
}

func (r *Registry) joinMatch(ctx context.Context, g *game.Match, s *Session) (*game.Match, error) {
	r.hub.Attach(g.ID, s)
	if _, err := g.Join(ctx, s.User, s.ID); err != nil {
		r.hub.Detach(s)
		return nil, err
	}
	return g, nil
}

// lookup finds a match in memory or restores it from the store.
func (r *Registry) lookup(ctx context.Context, id uuid.UUID) (*game.Match, error) {
	if g, ok := r.Get(id); ok {
		return g, nil
	}
	if r.opts.Store == nil {
		return nil, game.ErrMatchNotFound
	}
	rec, err := r.opts.Store.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, game.ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	g, err := r.restore(rec)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// restore rebuilds a stored match and registers it, unless another request
// registered the same id first.
func (r *Registry) restore(rec *store.MatchRecord) (*game.Match, error) {
	g, err := game.RestoreMatch(rec)
	if err != nil {
		return nil, err
	}
	r.wire(g)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.matches[g.ID]; ok {
		return existing, nil
	}
	r.matches[g.ID] = g
	log.Infof("Match %s: Restored from store (state %s).", g.ID, g.State)
	return g, nil
}

func (r *Registry) create(req JoinRequest) *game.Match {
	g := game.NewMatch(req.Capacity, req.Config)
	r.wire(g)
	r.add(g)
	log.Infof("Match %s: Created (capacity %d, custom %v).", g.ID, g.Capacity, req.Config.Custom)
	return g
}

// findOpen returns a waiting room with a free seat whose capacity and
// configuration equal the request's. Custom rooms are matched the same way,
// so they never receive joiners asking for different settings.
func (r *Registry) findOpen(req JoinRequest, skip map[uuid.UUID]bool) *game.Match {
	for _, g := range r.snapshot() {
		if skip[g.ID] {
			continue
		}
		info := g.Info()
		if info.State != game.StateWaiting || info.Seated >= info.Capacity {
			continue
		}
		if info.Capacity != req.Capacity || info.Config != req.Config {
			continue
		}
		return g
	}
	return nil
}

// findSeated returns an unfinished match where userID holds a seat.
func (r *Registry) findSeated(userID uuid.UUID) *game.Match {
	for _, g := range r.snapshot() {
		if g.HasPlayer(userID) && g.Info().State != game.StateFinished {
			return g
		}
	}
	return nil
}

func (r *Registry) snapshot() []*game.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*game.Match, 0, len(r.matches))
	for _, g := range r.matches {
		out = append(out, g)
	}
	return out
}

// RestoreAll loads every stored match that is still worth keeping.
func (r *Registry) RestoreAll(ctx context.Context) error {
	if r.opts.Store == nil {
		return nil
	}
	ids, err := r.opts.Store.List(ctx)
	if err != nil {
		return err
	}
	restored := 0
	for _, id := range ids {
		rec, err := r.opts.Store.Load(ctx, id)
		if err != nil {
			log.WithError(err).Warnf("Match %s: Skipping unreadable record.", id)
			continue
		}
		if rec.State == string(game.StateWaiting) || r.expired(rec.FinishedAt) {
			if err := r.opts.Store.Delete(ctx, id); err != nil {
				log.WithError(err).Warnf("Match %s: Failed deleting stale record.", id)
			}
			continue
		}
		if _, err := r.restore(rec); err != nil {
			log.WithError(err).Warnf("Match %s: Failed restoring.", id)
			continue
		}
		restored++
	}
	log.Infof("Restored %d of %d stored matches.", restored, len(ids))
	return nil
}

func (r *Registry) expired(finishedAt *time.Time) bool {
	return finishedAt != nil && time.Since(*finishedAt) > r.opts.Retention
}

// Sweep closes and forgets finished matches past retention and extends the
// stored lifetime of the rest.
func (r *Registry) Sweep(ctx context.Context) {
	for _, g := range r.snapshot() {
		info := g.Info()
		switch {
		case info.State == game.StateFinished && time.Since(info.FinishedAt) > r.opts.Retention:
			g.Close("Match expired.")
			if r.opts.Store != nil {
				if err := r.opts.Store.Delete(ctx, info.ID); err != nil {
					log.WithError(err).Warnf("Match %s: Failed deleting expired match.", info.ID)
				}
			}
			r.remove(g)
			log.Infof("Match %s: Swept after finishing at %s.", info.ID, info.FinishedAt.Format(time.RFC3339))
		case info.State == game.StateWaiting && info.Seated == 0:
			// CloseIfEmpty rechecks under the match lock, so a joiner seated
			// since Info was taken keeps the room.
			if g.CloseIfEmpty() {
				r.remove(g)
			}
		case info.State != game.StateFinished && r.opts.Store != nil:
			if err := r.opts.Store.Refresh(ctx, info.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				log.WithError(err).Warnf("Match %s: Failed refreshing stored match.", info.ID)
			}
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// CloseAll stops every match's timers and connections. Used on shutdown.
func (r *Registry) CloseAll(reason string) {
	for _, g := range r.snapshot() {
		g.Close(reason)
	}
}
