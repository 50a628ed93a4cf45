package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository reads the friendships table. Rows are stored in either direction.
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository creates a repository on pool.
func NewFriendRepository(pool *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: pool}
}

// AreFriends reports whether a and b are friends.
func (r *FriendRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE (user_a = $1 AND user_b = $2) OR (user_a = $2 AND user_b = $1)
		)`, a, b).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query friendship: %w", err)
	}
	return exists, nil
}

// AddFriendship stores a friendship. Adding an existing one is a no-op.
func (r *FriendRepository) AddFriendship(ctx context.Context, a, b uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO friendships (user_a, user_b) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, a, b)
	return err
}
