package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sotacaballorey/guinote/internal/auth"
	"github.com/sotacaballorey/guinote/internal/database"
	"github.com/sotacaballorey/guinote/internal/game"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/sotacaballorey/guinote/internal/store"
)

const testSecret = "test-secret"

type testEnv struct {
	srv      *httptest.Server
	auth     *auth.Authenticator
	registry *Registry
	store    *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStats(t, nil)
}

func newTestEnvWithStats(t *testing.T, stats StatsReader) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	hub := NewHub()
	reg := NewRegistry(hub, RegistryOptions{Store: st, Retention: time.Minute})
	a := auth.New(testSecret)
	s := &Server{Auth: a, Registry: reg, Store: st, Stats: stats, DefaultConfig: models.DefaultMatchConfig()}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, auth: a, registry: reg, store: st}
}

func (e *testEnv) dial(t *testing.T, user models.User, query string) *websocket.Conn {
	t.Helper()
	token, err := e.auth.IssueToken(user, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/match?token=" + token
	if query != "" {
		url += "&" + query
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// readUntil reads events until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want game.GameEventType) game.GameEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var ev game.GameEvent
		require.NoError(t, wsjson.Read(ctx, conn, &ev), "waiting for %s", want)
		if ev.Type == want {
			return ev
		}
	}
}

func newUser(name string) models.User {
	return models.User{ID: uuid.New(), Username: name}
}

func TestMatchmakingStartsAndPlays(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := newUser("alice"), newUser("bob")

	ca := env.dial(t, alice, "capacity=2")
	joined := readUntil(t, ca, game.EventPlayerJoined)
	assert.Equal(t, alice.ID, joined.User.ID)

	cb := env.dial(t, bob, "capacity=2")

	startA := readUntil(t, ca, game.EventStartGame)
	startB := readUntil(t, cb, game.EventStartGame)
	require.NotNil(t, startA.State)
	require.NotNil(t, startB.State)
	assert.Equal(t, startA.State.MatchID, startB.State.MatchID)
	assert.Len(t, startA.State.MyHand, 6)
	assert.Equal(t, 27, startA.State.DeckSize)
	assert.Equal(t, 1, env.registry.Count())

	turn := readUntil(t, ca, game.EventTurnUpdate)
	readUntil(t, cb, game.EventTurnUpdate)

	mover, hand := ca, startA.State.MyHand
	if turn.User.ID == bob.ID {
		mover, hand = cb, startB.State.MyHand
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	card := hand[0]
	require.NoError(t, wsjson.Write(ctx, mover, models.GameAction{ActionType: models.ActionPlayCard, Card: &card}))

	playedA := readUntil(t, ca, game.EventCardPlayed)
	playedB := readUntil(t, cb, game.EventCardPlayed)
	require.NotNil(t, playedA.Card)
	assert.Equal(t, card, *playedA.Card)
	assert.Equal(t, turn.User.ID, playedB.User.ID)
	assert.Equal(t, false, playedA.Payload["automatica"])
}

func TestRejectedActionIsReportedPrivately(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, newUser("carla"), "capacity=2")
	readUntil(t, conn, game.EventPlayerJoined)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"action": "dance"}))
	ev := readUntil(t, conn, game.EventError)
	assert.Equal(t, game.ReasonUnknownAction, ev.Payload["message"])

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	ev = readUntil(t, conn, game.EventError)
	assert.Equal(t, "invalid message", ev.Payload["message"])
}

func TestUnknownMatchRejected(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t, newUser("dani"), "match_id="+uuid.NewString())

	ev := readUntil(t, conn, game.EventError)
	assert.Equal(t, game.ErrMatchNotFound.Error(), ev.Payload["message"])
}

func TestCustomRoomNotOfferedToMatchmaking(t *testing.T) {
	env := newTestEnv(t)
	host := env.dial(t, newUser("host"), "capacity=2&custom=true&turn_timeout=short")
	joined := readUntil(t, host, game.EventPlayerJoined)
	require.NotNil(t, joined.User)

	other := env.dial(t, newUser("walk-in"), "capacity=2")
	readUntil(t, other, game.EventPlayerJoined)
	assert.Equal(t, 2, env.registry.Count(), "matchmaking must not land in a custom room")
}

func TestUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/match?token=bogus"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBadCapacity(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.auth.IssueToken(newUser("eva"), time.Hour)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/ws/match?capacity=3", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseJoinRequest(t *testing.T) {
	s := &Server{DefaultConfig: models.DefaultMatchConfig()}
	r := httptest.NewRequest(http.MethodGet, "/ws/match?capacity=4&friends_only=true&turn_timeout=60&revueltas=false&trump_bonus=1", nil)

	req, err := s.parseJoinRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 4, req.Capacity)
	assert.True(t, req.Config.FriendsOnly)
	assert.True(t, req.Config.Custom, "friends-only rooms are never matchmade")
	assert.Equal(t, models.TurnTimeoutLong, req.Config.TurnTimeout)
	assert.False(t, req.Config.AllowRevueltas)
	assert.True(t, req.Config.ArrastreRules)
	assert.True(t, req.Config.TrumpBonusOnArrastre)

	_, err = s.parseJoinRequest(httptest.NewRequest(http.MethodGet, "/ws/match?turn_timeout=90", nil))
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSeatlessSessionIsClosed(t *testing.T) {
	env := newTestEnv(t)
	user := newUser("fran")
	conn := env.dial(t, user, "capacity=2")
	readUntil(t, conn, game.EventPlayerJoined)

	g := env.registry.findSeated(user.ID)
	require.NotNil(t, g)
	// Drop the seat while the socket stays open.
	g.HandleDisconnect(user.ID, uuid.Nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, models.GameAction{ActionType: models.ActionRequestPause}))
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
			return
		}
	}
}

type fakeStatsReader map[uuid.UUID]database.PlayerStats

func (f fakeStatsReader) GetStats(_ context.Context, id uuid.UUID) (database.PlayerStats, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return database.PlayerStats{UserID: id, Elo: database.DefaultRating, EloPairs: database.DefaultRating}, nil
}

func getWithToken(t *testing.T, env *testEnv, path string) *http.Response {
	t.Helper()
	token, err := env.auth.IssueToken(newUser("viewer"), time.Hour)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatsEndpoint(t *testing.T) {
	known := uuid.New()
	env := newTestEnvWithStats(t, fakeStatsReader{
		known: {UserID: known, Wins: 3, WinStreak: 2, BestStreak: 2, Elo: 1048, EloPairs: 1000},
	})

	resp := getWithToken(t, env, "/stats/"+known.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got database.PlayerStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 3, got.Wins)
	assert.Equal(t, 1048, got.Elo)

	resp = getWithToken(t, env, "/stats/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Get(env.srv.URL + "/stats/" + known.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatsEndpointWithoutDatabase(t *testing.T) {
	env := newTestEnv(t)
	resp := getWithToken(t, env, "/stats/"+uuid.NewString())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
