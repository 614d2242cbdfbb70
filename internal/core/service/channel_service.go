package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

// ProfileCache abstracts the read-side cache (Redis). A nil cache disables
// caching; cache errors degrade to the store and are never surfaced.
type ProfileCache interface {
	Get(ctx context.Context, channel, viewer string) (*domain.ChannelProfile, error)
	Set(ctx context.Context, channel, viewer string, p *domain.ChannelProfile) error
}

// ChannelService fronts the graph query engine with input validation and a
// short-lived profile cache.
type ChannelService struct {
	graph ports.GraphQueryEngine
	cache ProfileCache
	log   zerolog.Logger
}

func NewChannelService(graph ports.GraphQueryEngine, cache ProfileCache, log zerolog.Logger) *ChannelService {
	return &ChannelService{graph: graph, cache: cache, log: log}
}

// GetChannelProfile returns the public channel view plus derived graph
// fields. Counts follow the raw edge set: duplicate subscription edges are
// counted as stored, not deduplicated — the edge writer owns uniqueness.
func (s *ChannelService) GetChannelProfile(ctx context.Context, viewerID, channelUsername string) (*domain.ChannelProfile, error) {
	username := strings.ToLower(strings.TrimSpace(channelUsername))
	if username == "" {
		return nil, fmt.Errorf("%w: channel username is required", domain.ErrValidation)
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, username, viewerID); err != nil {
			s.log.Warn().Err(err).Str("channel", username).Msg("profile cache read failed, querying store")
		} else if cached != nil {
			return cached, nil
		}
	}

	profile, err := s.graph.ChannelProfile(ctx, viewerID, username)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, username, viewerID, profile); err != nil {
			s.log.Warn().Err(err).Str("channel", username).Msg("profile cache write failed")
		}
	}

	return profile, nil
}

// GetWatchHistory returns the viewer's watched videos, each joined to its
// owner, in stored order. An empty history is an empty slice, not an error.
func (s *ChannelService) GetWatchHistory(ctx context.Context, viewerID string) ([]domain.VideoWithOwner, error) {
	history, err := s.graph.WatchHistory(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.VideoWithOwner{}
	}
	return history, nil
}
