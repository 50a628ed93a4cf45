// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Rdb is the shared redis client. Nil disables the action log.
var Rdb *redis.Client

// actionLogTTL bounds how long a match's action log is kept.
const actionLogTTL = 24 * time.Hour

// ConnectRedis creates the shared client and verifies connectivity.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	Rdb = client
	log.Infof("Connected to redis at %s", addr)
	return client, nil
}

// MatchActionRecord is one entry of a match's action log.
type MatchActionRecord struct {
	MatchID       uuid.UUID              `json:"matchId"`
	ActionIndex   int                    `json:"actionIndex"`
	ActorUserID   uuid.UUID              `json:"actorUserId"` // Nil for system events
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"` // unix millis
}

// ActionLogKey returns the redis list holding a match's actions.
func ActionLogKey(matchID uuid.UUID) string {
	return "guinote:match:" + matchID.String() + ":actions"
}

// PublishMatchAction appends rec to the match's action list.
func PublishMatchAction(ctx context.Context, rec MatchActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	key := ActionLogKey(rec.MatchID)
	pipe := Rdb.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, actionLogTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push action %d: %w", rec.ActionIndex, err)
	}
	return nil
}
