// Package server exposes matches over websockets: authentication, match
// resolution, per-connection delivery and the finished-match sweeper.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/auth"
	"github.com/sotacaballorey/guinote/internal/database"
	"github.com/sotacaballorey/guinote/internal/game"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/sotacaballorey/guinote/internal/store"
)

// StatsReader reads a player's persisted ratings and streaks.
type StatsReader interface {
	GetStats(ctx context.Context, id uuid.UUID) (database.PlayerStats, error)
}

// Server holds the HTTP surface.
type Server struct {
	Auth     *auth.Authenticator
	Registry *Registry
	Store    store.MatchStore
	Stats    StatsReader // nil when no database is configured

	// DefaultConfig is used for matchmaking rooms.
	DefaultConfig models.MatchConfig
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/match", s.handleMatchSocket)
	mux.HandleFunc("GET /stats/{id}", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Auth.ParseToken(bearerToken(r)); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.Stats == nil {
		http.Error(w, "stats are not available", http.StatusServiceUnavailable)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	stats, err := s.Stats.GetStats(ctx, id)
	if err != nil {
		log.WithError(err).Errorf("Failed loading stats for %s.", id)
		http.Error(w, "could not load stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok", "matches": s.Registry.Count()}
	if s.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Store.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["store"] = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// bearerToken reads the token from ?token= or the Authorization header.
func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// parseJoinRequest reads the match selection parameters.
func (s *Server) parseJoinRequest(r *http.Request) (JoinRequest, error) {
	q := r.URL.Query()
	req := JoinRequest{Capacity: 2, Config: s.DefaultConfig}

	if v := q.Get("capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || (n != 2 && n != 4) {
			return req, fmt.Errorf("capacity must be 2 or 4")
		}
		req.Capacity = n
	}
	if v := q.Get("match_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return req, fmt.Errorf("invalid match_id")
		}
		req.MatchID = id
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"custom", &req.Config.Custom},
		{"friends_only", &req.Config.FriendsOnly},
		{"revueltas", &req.Config.AllowRevueltas},
		{"arrastre_rules", &req.Config.ArrastreRules},
		{"trump_bonus", &req.Config.TrumpBonusOnArrastre},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid %s", f.name)
		}
		*f.dst = b
	}
	if v := q.Get("turn_timeout"); v != "" {
		tt, err := models.ParseTurnTimeout(v)
		if err != nil {
			return req, err
		}
		req.Config.TurnTimeout = tt
	}
	// Friends-only rooms are private by nature.
	if req.Config.FriendsOnly {
		req.Config.Custom = true
	}
	return req, nil
}

func (s *Server) handleMatchSocket(w http.ResponseWriter, r *http.Request) {
	user, err := s.Auth.ParseToken(bearerToken(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	req, err := s.parseJoinRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		log.WithError(err).Warn("Websocket accept failed.")
		return
	}
	conn.SetReadLimit(4096)

	// The connection outlives the request context once hijacked.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newSession(conn, user)
	go sess.writeLoop(ctx)

	g, err := s.Registry.Join(ctx, sess, req)
	if err != nil {
		log.Infof("User %s could not join: %v", user.ID, err)
		sess.Send(game.GameEvent{
			Type:    game.EventError,
			Payload: map[string]interface{}{"message": joinErrorMessage(err)},
		})
		sess.Close(websocket.StatusPolicyViolation, "join rejected")
		<-sess.Done()
		return
	}
	log.Infof("Match %s: Session %s opened for user %s.", g.ID, sess.ID, user.ID)

	s.readLoop(ctx, sess, g)

	s.Registry.hub.Detach(sess)
	g.HandleDisconnect(user.ID, sess.ID)
	sess.Close(websocket.StatusNormalClosure, "")
	select {
	case <-sess.Done():
	case <-time.After(writeTimeout):
		conn.CloseNow()
	}
	log.Infof("Match %s: Session %s closed for user %s.", g.ID, sess.ID, user.ID)
}

// readLoop decodes inbound actions until the connection closes.
func (s *Server) readLoop(ctx context.Context, sess *Session, g *game.Match) {
	for {
		typ, data, err := sess.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debugf("Session %s: Read ended: %v", sess.ID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var action models.GameAction
		if err := json.Unmarshal(data, &action); err != nil {
			sess.Send(game.GameEvent{
				Type:    game.EventError,
				Payload: map[string]interface{}{"message": "invalid message"},
			})
			continue
		}
		// Rejections are already reported to the player by the match. A seat
		// that no longer exists ends the connection.
		if err := g.HandlePlayerAction(sess.User.ID, action); errors.Is(err, game.ErrPlayerNotFound) {
			log.Infof("Match %s: Session %s has no seat, closing.", g.ID, sess.ID)
			return
		}
	}
}

func joinErrorMessage(err error) string {
	var admissionErr *game.AdmissionError
	switch {
	case errors.As(err, &admissionErr):
		return admissionErr.Reason
	case errors.Is(err, game.ErrMatchNotFound):
		return game.ErrMatchNotFound.Error()
	default:
		return "could not join match"
	}
}
