// Package store persists match aggregates between actions and across restarts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	engine "github.com/sotacaballorey/guinote/engine"
	"github.com/sotacaballorey/guinote/internal/models"
)

// ErrNotFound is returned when a match id has no stored record.
var ErrNotFound = errors.New("match not found")

// PlayerRecord is the stored form of one seat.
type PlayerRecord struct {
	ID        uuid.UUID     `json:"id"`
	Username  string        `json:"username"`
	Team      int           `json:"team"`
	Hand      []engine.Card `json:"hand"`
	Connected bool          `json:"connected"`
}

// MatchRecord is the stored form of a match. GameState is the actor's state
// blob, already serialized by its owner.
type MatchRecord struct {
	ID         uuid.UUID          `json:"id"`
	ChatID     uuid.UUID          `json:"chatId"`
	Capacity   int                `json:"capacity"`
	State      string             `json:"state"`
	Team1Score int                `json:"team1Score"`
	Team2Score int                `json:"team2Score"`
	Revueltas  bool               `json:"revueltas"`
	Config     models.MatchConfig `json:"config"`
	GameState  json.RawMessage    `json:"gameState,omitempty"`
	Players    []PlayerRecord     `json:"players"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// MatchStore is the persistence boundary used by the match actor and registry.
type MatchStore interface {
	// Load reads a record. Returns ErrNotFound if absent.
	Load(ctx context.Context, id uuid.UUID) (*MatchRecord, error)
	// Save writes the full record, replacing any previous version.
	Save(ctx context.Context, rec *MatchRecord) error
	// Refresh extends the record's retention without rewriting it.
	Refresh(ctx context.Context, id uuid.UUID) error
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns the ids of all stored records.
	List(ctx context.Context) ([]uuid.UUID, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
