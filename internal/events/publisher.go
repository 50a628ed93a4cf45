// Package events forwards match lifecycle notifications to NATS so other
// services (lobby, chat, notifications) can follow matches without polling.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/sotacaballorey/guinote/internal/game"
)

// SubjectPrefix is prepended to the lifecycle kind: guinote.match.started, guinote.match.finished, ...
const SubjectPrefix = "guinote.match."

// Subject returns the NATS subject for a lifecycle kind.
func Subject(kind game.LifecycleKind) string {
	return SubjectPrefix + string(kind)
}

type publishConn interface {
	Publish(subj string, data []byte) error
}

// Publisher publishes lifecycle events. A nil Publisher drops them.
type Publisher struct {
	conn publishConn
	nc   *nats.Conn
}

// Connect dials url with reconnect handling.
func Connect(url string) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("guinote"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("Disconnected from NATS.")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("Reconnected to NATS at %s.", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed.")
		}),
		nats.Timeout(10 * time.Second),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: nc, nc: nc}, nil
}

// Publish encodes ev and publishes it. nats buffers outgoing messages, so this
// does not wait on the network and is safe to call with a match lock held.
func (p *Publisher) Publish(ev game.LifecycleEvent) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Errorf("Failed to encode lifecycle event %s for match %s.", ev.Kind, ev.MatchID)
		return
	}
	if err := p.conn.Publish(Subject(ev.Kind), data); err != nil {
		log.WithError(err).Warnf("Failed to publish lifecycle event %s for match %s.", ev.Kind, ev.MatchID)
		return
	}
	log.Debugf("Published %s for match %s.", Subject(ev.Kind), ev.MatchID)
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
