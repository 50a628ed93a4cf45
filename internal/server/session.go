package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/game"
	"github.com/sotacaballorey/guinote/internal/models"
)

const (
	outboxSize   = 64
	writeTimeout = 5 * time.Second
)

// Session is one websocket connection of one user to one match. Its ID is
// the delivery handle the match uses to tell connections apart.
type Session struct {
	ID      uuid.UUID
	User    *models.User
	MatchID uuid.UUID

	conn   *websocket.Conn
	outbox chan []byte

	mu          sync.Mutex
	closed      bool
	closeStatus websocket.StatusCode
	closeReason string
	done        chan struct{}
}

func newSession(conn *websocket.Conn, user *models.User) *Session {
	return &Session{
		ID:     uuid.New(),
		User:   user,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
}

// Send queues ev for delivery. It never blocks: a session whose outbox is full
// is too slow to keep up and is closed.
func (s *Session) Send(ev game.GameEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Errorf("Session %s: Failed to encode event %s.", s.ID, ev.Type)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.outbox <- data:
	default:
		log.Warnf("Session %s: Outbox full for user %s, closing.", s.ID, s.User.ID)
		s.closeLocked(websocket.StatusTryAgainLater, "Connection too slow.")
	}
}

// Close delivers what is already queued and then closes the connection.
func (s *Session) Close(status websocket.StatusCode, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(status, reason)
}

// Assumes s.mu is held by caller.
func (s *Session) closeLocked(status websocket.StatusCode, reason string) {
	if s.closed {
		return
	}
	s.closed = true
	s.closeStatus = status
	s.closeReason = reason
	close(s.outbox)
}

// Done is closed once the writer has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// writeLoop drains the outbox to the socket, then closes it with the recorded reason.
func (s *Session) writeLoop(ctx context.Context) {
	defer close(s.done)
	for data := range s.outbox {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := s.conn.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			log.Debugf("Session %s: Write failed: %v", s.ID, err)
			s.Close(websocket.StatusAbnormalClosure, "write failed")
			for range s.outbox {
			}
			s.conn.CloseNow()
			return
		}
	}
	s.mu.Lock()
	status, reason := s.closeStatus, s.closeReason
	s.mu.Unlock()
	if err := s.conn.Close(status, reason); err != nil {
		log.Debugf("Session %s: Close: %v", s.ID, err)
	}
}
