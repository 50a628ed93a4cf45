package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sotacaballorey/guinote/internal/game"
)

// DefaultRating is the rating of a player with no stats row.
const DefaultRating = 1000

// PlayerStats is one row of player_stats.
type PlayerStats struct {
	UserID     uuid.UUID `json:"userId"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	WinStreak  int       `json:"winStreak"`
	BestStreak int       `json:"bestStreak"`
	Elo        int       `json:"elo"`
	EloPairs   int       `json:"eloPairs"`
}

// StatsRepository persists ratings, win/loss counters and streaks.
type StatsRepository struct {
	db *pgxpool.Pool
}

var _ game.StatsStore = (*StatsRepository)(nil)

// NewStatsRepository creates a repository on pool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: pool}
}

func ratingColumn(pairs bool) string {
	if pairs {
		return "elo_pairs"
	}
	return "elo"
}

// RecordMatch locks every player's stats row, computes the new ratings from
// the locked values with rate, and writes counters, ratings and result rows in
// one transaction.
func (r *StatsRepository) RecordMatch(ctx context.Context, matchID uuid.UUID, pairs bool, teams map[uuid.UUID]int, winnerTeam int, rate game.RateFunc) ([]game.PlayerOutcome, error) {
	ids := make([]uuid.UUID, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	// A fixed lock order keeps concurrent finishes from deadlocking.
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	locked := make(map[uuid.UUID]PlayerStats, len(ids))
	current := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		s, err := loadStatsForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = s
		current[id] = s.Elo
		if pairs {
			current[id] = s.EloPairs
		}
	}
	updated := rate(current)

	col := ratingColumn(pairs)
	outcomes := make([]game.PlayerOutcome, 0, len(ids))
	for _, id := range ids {
		o := game.PlayerOutcome{
			PlayerID:  id,
			Won:       teams[id] == winnerTeam,
			OldRating: current[id],
			NewRating: current[id],
		}
		if v, ok := updated[id]; ok {
			o.NewRating = v
		}
		next := applyOutcome(locked[id], o.Won)

		update := fmt.Sprintf(`
			UPDATE player_stats
			SET wins = $2, losses = $3, win_streak = $4, best_streak = $5, %s = $6, updated_at = NOW()
			WHERE user_id = $1`, col)
		if _, err := tx.Exec(ctx, update, id, next.Wins, next.Losses, next.WinStreak, next.BestStreak, o.NewRating); err != nil {
			return nil, fmt.Errorf("update stats for %s: %w", id, err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO match_results (match_id, user_id, won, pairs, rating_before, rating_after)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (match_id, user_id) DO NOTHING`,
			matchID, id, o.Won, pairs, o.OldRating, o.NewRating); err != nil {
			return nil, fmt.Errorf("insert result for %s: %w", id, err)
		}
		outcomes = append(outcomes, o)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return outcomes, nil
}

// loadStatsForUpdate locks the player's row, creating it first if needed.
func loadStatsForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (PlayerStats, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO player_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, id); err != nil {
		return PlayerStats{}, fmt.Errorf("ensure stats for %s: %w", id, err)
	}
	s := PlayerStats{UserID: id}
	err := tx.QueryRow(ctx, `
		SELECT wins, losses, win_streak, best_streak, elo, elo_pairs
		FROM player_stats WHERE user_id = $1 FOR UPDATE`, id).
		Scan(&s.Wins, &s.Losses, &s.WinStreak, &s.BestStreak, &s.Elo, &s.EloPairs)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("load stats for %s: %w", id, err)
	}
	return s, nil
}

// GetStats returns a player's stats, or a zero row with default ratings.
func (r *StatsRepository) GetStats(ctx context.Context, id uuid.UUID) (PlayerStats, error) {
	s := PlayerStats{UserID: id, Elo: DefaultRating, EloPairs: DefaultRating}
	err := r.db.QueryRow(ctx, `
		SELECT wins, losses, win_streak, best_streak, elo, elo_pairs
		FROM player_stats WHERE user_id = $1`, id).
		Scan(&s.Wins, &s.Losses, &s.WinStreak, &s.BestStreak, &s.Elo, &s.EloPairs)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	return s, err
}

// applyOutcome advances the win/loss counters and streaks.
func applyOutcome(s PlayerStats, won bool) PlayerStats {
	if won {
		s.Wins++
		s.WinStreak++
		if s.WinStreak > s.BestStreak {
			s.BestStreak = s.WinStreak
		}
		return s
	}
	s.Losses++
	s.WinStreak = 0
	return s
}
