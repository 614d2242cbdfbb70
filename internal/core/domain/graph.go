package domain

import "time"

// Subscription is a directed edge: Subscriber follows Channel. Both sides are
// user ids. The edge collection is written by the subscription management
// service; this API only reads it.
type Subscription struct {
	Subscriber string
	Channel    string
	CreatedAt  time.Time
}

// Video is an owned content item referenced from a user's watch history.
// Read-only here; the video service owns its lifecycle.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"created_at"`
}

// VideoOwner is the minimal projection of a video's owning user exposed in
// watch-history results.
type VideoOwner struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// VideoWithOwner joins a watched video to its owner. The owner is a single
// record: when the join yields several candidates the first one wins.
type VideoWithOwner struct {
	Video Video      `json:"video"`
	Owner VideoOwner `json:"owner"`
}

// ChannelProfile is the public view of a channel plus the derived
// social-graph fields. Derived counts follow the raw edge set: duplicate
// subscription edges are counted as-is.
type ChannelProfile struct {
	Username         string `json:"username"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	AvatarURL        string `json:"avatar_url"`
	CoverImageURL    string `json:"cover_image_url,omitempty"`
	SubscribersCount int64  `json:"subscribers_count"`
	SubscribedTo     int64  `json:"subscribed_to_count"`
	IsSubscribed     bool   `json:"is_subscribed"`
}
