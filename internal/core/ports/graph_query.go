package ports

import (
	"context"

	"github.com/vidhub/platform-api/internal/core/domain"
)

// GraphQueryEngine answers read-side social-graph questions. Implementations
// express the joins natively (aggregation pipelines against the document
// store); the field exclusions and the first-owner tie-break are part of the
// contract, not the storage technology.
type GraphQueryEngine interface {
	// ChannelProfile resolves the user matching channelUsername
	// (case-insensitive) and computes subscriber count, subscribed-to count,
	// and whether viewerID holds an edge to the channel.
	ChannelProfile(ctx context.Context, viewerID, channelUsername string) (*domain.ChannelProfile, error)
	// WatchHistory resolves the viewer's stored video-id list in order and
	// joins each entry to its video and the video's owner.
	WatchHistory(ctx context.Context, viewerID string) ([]domain.VideoWithOwner, error)
}
