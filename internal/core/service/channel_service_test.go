package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidhub/platform-api/internal/core/domain"
)

type stubGraph struct {
	profile *domain.ChannelProfile
	history []domain.VideoWithOwner
	err     error
	calls   int
}

func (g *stubGraph) ChannelProfile(_ context.Context, _, _ string) (*domain.ChannelProfile, error) {
	g.calls++
	return g.profile, g.err
}

func (g *stubGraph) WatchHistory(_ context.Context, _ string) ([]domain.VideoWithOwner, error) {
	return g.history, g.err
}

type stubCache struct {
	entries map[string]*domain.ChannelProfile
	getErr  error
	setErr  error
	sets    int
}

func (c *stubCache) key(channel, viewer string) string { return channel + "|" + viewer }

func (c *stubCache) Get(_ context.Context, channel, viewer string) (*domain.ChannelProfile, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[c.key(channel, viewer)], nil
}

func (c *stubCache) Set(_ context.Context, channel, viewer string, p *domain.ChannelProfile) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	if c.entries == nil {
		c.entries = map[string]*domain.ChannelProfile{}
	}
	c.entries[c.key(channel, viewer)] = p
	return nil
}

func TestGetChannelProfileValidation(t *testing.T) {
	svc := NewChannelService(&stubGraph{}, nil, zerolog.Nop())

	_, err := svc.GetChannelProfile(context.Background(), "viewer", "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetChannelProfileCacheMissThenHit(t *testing.T) {
	graph := &stubGraph{profile: &domain.ChannelProfile{Username: "alice", SubscribersCount: 3}}
	cache := &stubCache{}
	svc := NewChannelService(graph, cache, zerolog.Nop())

	// Miss: store queried, result written through.
	p, err := svc.GetChannelProfile(context.Background(), "viewer", "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.SubscribersCount)
	assert.Equal(t, 1, graph.calls)
	assert.Equal(t, 1, cache.sets)

	// Hit: the engine is not consulted again. Lookup key is lower-cased.
	p, err = svc.GetChannelProfile(context.Background(), "viewer", "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 1, graph.calls)
}

func TestGetChannelProfileCacheErrorsDegrade(t *testing.T) {
	graph := &stubGraph{profile: &domain.ChannelProfile{Username: "alice"}}
	cache := &stubCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	svc := NewChannelService(graph, cache, zerolog.Nop())

	p, err := svc.GetChannelProfile(context.Background(), "viewer", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
}

func TestGetChannelProfileNotFound(t *testing.T) {
	graph := &stubGraph{err: domain.ErrUserNotFound}
	svc := NewChannelService(graph, nil, zerolog.Nop())

	_, err := svc.GetChannelProfile(context.Background(), "viewer", "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetWatchHistoryEmptyIsSlice(t *testing.T) {
	svc := NewChannelService(&stubGraph{history: nil}, nil, zerolog.Nop())

	history, err := svc.GetWatchHistory(context.Background(), "viewer")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestGetWatchHistoryPreservesOrder(t *testing.T) {
	graph := &stubGraph{history: []domain.VideoWithOwner{
		{Video: domain.Video{ID: "v1"}},
		{Video: domain.Video{ID: "v2"}},
	}}
	svc := NewChannelService(graph, nil, zerolog.Nop())

	history, err := svc.GetWatchHistory(context.Background(), "viewer")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "v1", history[0].Video.ID)
	assert.Equal(t, "v2", history[1].Video.ID)
}
