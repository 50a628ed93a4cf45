package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOutcomeStreaks(t *testing.T) {
	s := PlayerStats{}
	s = applyOutcome(s, true)
	s = applyOutcome(s, true)
	s = applyOutcome(s, true)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 3, s.WinStreak)
	assert.Equal(t, 3, s.BestStreak)

	s = applyOutcome(s, false)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 0, s.WinStreak)
	assert.Equal(t, 3, s.BestStreak, "best streak survives a loss")

	s = applyOutcome(s, true)
	assert.Equal(t, 1, s.WinStreak)
	assert.Equal(t, 3, s.BestStreak)
}

func TestRatingColumn(t *testing.T) {
	assert.Equal(t, "elo", ratingColumn(false))
	assert.Equal(t, "elo_pairs", ratingColumn(true))
}

// openTestPool connects to DATABASE_URL or skips.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping PostgreSQL integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := ConnectDB(ctx, url)
	if err != nil {
		t.Skipf("cannot reach database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestStatsRepositoryIntegration(t *testing.T) {
	pool := openTestPool(t)
	repo := NewStatsRepository(pool)
	ctx := context.Background()
	winner, loser := uuid.New(), uuid.New()

	teams := map[uuid.UUID]int{winner: 1, loser: 2}
	elo := func(current map[uuid.UUID]int) map[uuid.UUID]int {
		assert.Equal(t, DefaultRating, current[winner], "rating is read from the locked row")
		return map[uuid.UUID]int{winner: current[winner] + 16, loser: current[loser] - 16}
	}
	outcomes, err := repo.RecordMatch(ctx, uuid.New(), false, teams, 1, elo)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	ws, err := repo.GetStats(ctx, winner)
	require.NoError(t, err)
	assert.Equal(t, 1, ws.Wins)
	assert.Equal(t, 1, ws.WinStreak)
	assert.Equal(t, 1016, ws.Elo)
	assert.Equal(t, DefaultRating, ws.EloPairs)

	ls, err := repo.GetStats(ctx, loser)
	require.NoError(t, err)
	assert.Equal(t, 1, ls.Losses)
	assert.Equal(t, 984, ls.Elo)
}

func TestFriendRepositoryIntegration(t *testing.T) {
	pool := openTestPool(t)
	repo := NewFriendRepository(pool)
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, repo.AddFriendship(ctx, a, b))
	ok, err := repo.AreFriends(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AreFriends(ctx, a, c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordMatchSerializesConcurrentFinishes(t *testing.T) {
	pool := openTestPool(t)
	repo := NewStatsRepository(pool)
	ctx := context.Background()
	shared := uuid.New()
	plusOne := func(current map[uuid.UUID]int) map[uuid.UUID]int {
		out := make(map[uuid.UUID]int, len(current))
		for id, r := range current {
			out[id] = r + 1
		}
		return out
	}

	const finishes = 5
	errs := make(chan error, finishes)
	for i := 0; i < finishes; i++ {
		go func() {
			teams := map[uuid.UUID]int{shared: 1, uuid.New(): 2}
			_, err := repo.RecordMatch(ctx, uuid.New(), false, teams, 1, plusOne)
			errs <- err
		}()
	}
	for i := 0; i < finishes; i++ {
		require.NoError(t, <-errs)
	}

	s, err := repo.GetStats(ctx, shared)
	require.NoError(t, err)
	assert.Equal(t, DefaultRating+finishes, s.Elo, "no rating update is lost")
	assert.Equal(t, finishes, s.Wins)
}
