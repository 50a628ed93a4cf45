package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PlayerOutcome is the per-player result written after a rated match.
type PlayerOutcome struct {
	PlayerID  uuid.UUID
	Won       bool
	OldRating int
	NewRating int
}

// RateFunc maps the players' current ratings to their new ones.
type RateFunc func(current map[uuid.UUID]int) map[uuid.UUID]int

// StatsStore persists the result of a rated match. It reads the current
// ratings and writes the new ones atomically, so concurrent finishes for the
// same player do not lose updates. pairs selects the 2v2 rating.
type StatsStore interface {
	RecordMatch(ctx context.Context, matchID uuid.UUID, pairs bool, teams map[uuid.UUID]int, winnerTeam int, rate RateFunc) ([]PlayerOutcome, error)
}

// recordResults persists ratings and win/loss/streak counters in the
// background so the end of the match is not held up by the database.
// Assumes lock is held by caller.
func (g *Match) recordResults(winnerTeam int) {
	if g.Stats == nil {
		return
	}
	teams := make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		teams[p.ID] = p.Team
	}
	fl := g.flavor
	stats := g.Stats
	matchID := g.ID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rate := func(current map[uuid.UUID]int) map[uuid.UUID]int {
			return fl.rate(current, teams, winnerTeam)
		}
		outcomes, err := stats.RecordMatch(ctx, matchID, fl.pairsRating(), teams, winnerTeam, rate)
		if err != nil {
			log.WithError(err).Errorf("Match %s: Failed recording results.", matchID)
			return
		}
		log.Infof("Match %s: Recorded %d outcomes (%s).", matchID, len(outcomes), fl.name())
	}()
}
