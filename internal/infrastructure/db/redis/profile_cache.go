package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidhub/platform-api/internal/core/domain"
)

const profileTTL = 30 * time.Second

// ProfileCache caches computed channel profiles for a short TTL.
// Key format: profile:<channel_username>:<viewer_id> — the viewer is part of
// the key because is_subscribed is viewer-specific.
type ProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a ProfileCache wrapping the given Redis client.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

// Get returns the cached profile, or nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, channel, viewer string) (*domain.ChannelProfile, error) {
	raw, err := c.client.Get(ctx, c.key(channel, viewer)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile cache get: %w", err)
	}

	var p domain.ChannelProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("profile cache decode: %w", err)
	}
	return &p, nil
}

// Set stores the profile (expires after profileTTL).
func (c *ProfileCache) Set(ctx context.Context, channel, viewer string, p *domain.ChannelProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(channel, viewer), raw, profileTTL).Err()
}

func (c *ProfileCache) key(channel, viewer string) string {
	return fmt.Sprintf("profile:%s:%s", channel, viewer)
}
