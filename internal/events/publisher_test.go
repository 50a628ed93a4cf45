package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sotacaballorey/guinote/internal/game"
)

type recordingConn struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (c *recordingConn) Publish(subj string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "guinote.match.finished", Subject(game.LifecycleFinished))
	assert.Equal(t, "guinote.match.player_joined", Subject(game.LifecyclePlayerJoined))
}

func TestPublishEncodesEvent(t *testing.T) {
	conn := &recordingConn{}
	p := &Publisher{conn: conn}
	matchID, playerID := uuid.New(), uuid.New()

	p.Publish(game.LifecycleEvent{
		Kind:     game.LifecyclePlayerJoined,
		MatchID:  matchID,
		PlayerID: playerID,
		Payload:  map[string]interface{}{"team": 2},
	})

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "guinote.match.player_joined", conn.subjects[0])

	var got game.LifecycleEvent
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, matchID, got.MatchID)
	assert.Equal(t, playerID, got.PlayerID)
	assert.Equal(t, float64(2), got.Payload["team"])
}

func TestPublishErrorsAreSwallowed(t *testing.T) {
	p := &Publisher{conn: &recordingConn{err: errors.New("nats: connection closed")}}
	assert.NotPanics(t, func() {
		p.Publish(game.LifecycleEvent{Kind: game.LifecycleStarted, MatchID: uuid.New()})
	})
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.Publish(game.LifecycleEvent{Kind: game.LifecycleEmptied})
		p.Close()
	})
}
