package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidhub/platform-api/internal/api/metrics"
	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/infrastructure/queue"
)

// ChannelQueries is the read-side contract the handler consumes.
type ChannelQueries interface {
	GetChannelProfile(ctx context.Context, viewerID, channelUsername string) (*domain.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, viewerID string) ([]domain.VideoWithOwner, error)
}

// HistoryEnqueuer is the interface the handler uses to record watched
// videos. Enqueue reports false when the append was dropped because the
// responsible worker's buffer is full.
type HistoryEnqueuer interface {
	Enqueue(a queue.HistoryAppend) bool
}

// ChannelHandler serves the social-graph read endpoints and the
// watch-history append.
type ChannelHandler struct {
	channels ChannelQueries
	history  HistoryEnqueuer
}

func NewChannelHandler(channels ChannelQueries, history HistoryEnqueuer) *ChannelHandler {
	return &ChannelHandler{channels: channels, history: history}
}

// GetChannelProfile returns a channel's public view with derived graph
// fields, parameterized by the caller for is_subscribed.
//
// @Summary      Get a channel profile
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Channel username (case-insensitive)"
// @Success      200       {object}  apiResponse
// @Failure      400       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/v1/channels/{username} [get]
func (h *ChannelHandler) GetChannelProfile(c echo.Context) error {
	viewerID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	start := time.Now()
	profile, err := h.channels.GetChannelProfile(c.Request().Context(), viewerID, c.Param("username"))
	metrics.GraphQueryDuration.WithLabelValues("channel_profile").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Data:    profile,
		Message: "channel profile",
	})
}

// GetWatchHistory returns the caller's watched videos joined to their owners,
// in stored order.
//
// @Summary      Get the caller's watch history
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/v1/users/history [get]
func (h *ChannelHandler) GetWatchHistory(c echo.Context) error {
	viewerID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	start := time.Now()
	history, err := h.channels.GetWatchHistory(c.Request().Context(), viewerID)
	metrics.GraphQueryDuration.WithLabelValues("watch_history").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Data:    history,
		Message: "watch history",
	})
}

// AddWatchHistory records a watched video. The append is applied
// asynchronously; 202 acknowledges the enqueue, not the write.
//
// @Summary      Record a watched video
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        video_id  path      string  true  "Video id"
// @Success      202       {object}  apiResponse
// @Failure      401       {object}  errorResponse
// @Failure      503       {object}  errorResponse
// @Router       /api/v1/users/history/{video_id} [post]
func (h *ChannelHandler) AddWatchHistory(c echo.Context) error {
	viewerID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	videoID := c.Param("video_id")
	if videoID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "video id is required")
	}

	if !h.history.Enqueue(queue.HistoryAppend{UserID: viewerID, VideoID: videoID}) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "watch history queue is full")
	}
	return c.JSON(http.StatusAccepted, apiResponse{
		Status:  http.StatusAccepted,
		Message: "watch history update queued",
	})
}
