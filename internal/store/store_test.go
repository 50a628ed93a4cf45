package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *MatchRecord {
	return &MatchRecord{
		ID:         uuid.New(),
		ChatID:     uuid.New(),
		Capacity:   2,
		State:      "playing",
		Team1Score: 14,
		Team2Score: 3,
		Config:     models.DefaultMatchConfig(),
		GameState:  json.RawMessage(`{"arrastre":false}`),
		Players: []PlayerRecord{
			{ID: uuid.New(), Username: "ana", Team: 1, Hand: []engine.Card{engine.NewCard(engine.SuitOros, engine.RankAs)}, Connected: true},
			{ID: uuid.New(), Username: "luis", Team: 2, Connected: false},
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// exerciseStore runs the same contract against every implementation.
func exerciseStore(t *testing.T, s MatchStore) {
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	_, err := s.Load(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Refresh(ctx, uuid.New()), ErrNotFound)

	rec := sampleRecord()
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Team1Score, got.Team1Score)
	assert.Equal(t, rec.Players, got.Players)
	assert.JSONEq(t, string(rec.GameState), string(got.GameState))

	rec.Team2Score = 40
	require.NoError(t, s.Save(ctx, rec))
	got, err = s.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Team2Score)

	require.NoError(t, s.Refresh(ctx, rec.ID))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, rec.ID)

	require.NoError(t, s.Delete(ctx, rec.ID))
	_, err = s.Load(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete(ctx, rec.ID), "deleting twice is not an error")

	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, rec.ID)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "matches.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	exerciseStore(t, NewRedisStore(rdb, time.Hour))
}

// TestRedisStoreExpiry verifies expired records vanish from Load and List.
func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()

	rec := sampleRecord()
	require.NoError(t, s.Save(ctx, rec))
	mr.FastForward(2 * time.Minute)

	_, err := s.Load(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
