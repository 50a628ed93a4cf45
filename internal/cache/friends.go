package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

// FriendSource answers whether two users are friends.
type FriendSource interface {
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type pairKey [2]uuid.UUID

// orderedPair makes (a,b) and (b,a) share a cache slot.
func orderedPair(a, b uuid.UUID) pairKey {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return pairKey{a, b}
			}
			return pairKey{b, a}
		}
	}
	return pairKey{a, b}
}

// FriendCache memoizes friendship answers in an ARC cache.
type FriendCache struct {
	src   FriendSource
	cache *lru.ARCCache
}

// NewFriendCache wraps src with a cache of the given size.
func NewFriendCache(src FriendSource, size int) (*FriendCache, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %v", err)
	}
	return &FriendCache{src: src, cache: c}, nil
}

// AreFriends consults the cache first. Errors are not cached.
func (c *FriendCache) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	key := orderedPair(a, b)
	if v, ok := c.cache.Get(key); ok {
		return v.(bool), nil
	}
	ok, err := c.src.AreFriends(ctx, a, b)
	if err != nil {
		return false, err
	}
	c.cache.Add(key, ok)
	return ok, nil
}

// Forget drops the cached answer for a pair, e.g. after a friendship change.
func (c *FriendCache) Forget(a, b uuid.UUID) {
	c.cache.Remove(orderedPair(a, b))
}
