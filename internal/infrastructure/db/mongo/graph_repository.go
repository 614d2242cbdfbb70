package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidhub/platform-api/internal/core/domain"
)

const (
	collectionSubscriptions = "subscriptions"
	collectionVideos        = "videos"
)

// GraphRepository answers social-graph queries with aggregation pipelines
// rooted at the users collection. The store has no join operator, so the
// joins are explicit $lookup stages; the nested owner projection runs as a
// correlated sub-pipeline.
type GraphRepository struct {
	users *mongo.Collection
}

func NewGraphRepository(db *mongo.Database) *GraphRepository {
	return &GraphRepository{users: db.Collection(collectionUsers)}
}

type channelProfileRow struct {
	Username         string `bson:"username"`
	FullName         string `bson:"full_name"`
	Email            string `bson:"email"`
	AvatarURL        string `bson:"avatar_url"`
	CoverImageURL    string `bson:"cover_image_url"`
	SubscribersCount int64  `bson:"subscribers_count"`
	SubscribedTo     int64  `bson:"subscribed_to_count"`
	IsSubscribed     bool   `bson:"is_subscribed"`
}

type videoOwnerRow struct {
	Username  string `bson:"username"`
	FullName  string `bson:"full_name"`
	AvatarURL string `bson:"avatar_url"`
}

type watchedVideoRow struct {
	ID           primitive.ObjectID `bson:"_id"`
	OwnerID      primitive.ObjectID `bson:"owner_id"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	ThumbnailURL string             `bson:"thumbnail_url"`
	Duration     float64            `bson:"duration"`
	Views        int64              `bson:"views"`
	CreatedAt    primitive.DateTime `bson:"created_at"`
	Owner        videoOwnerRow      `bson:"owner"`
}

type watchHistoryRow struct {
	WatchHistory []watchedVideoRow `bson:"watch_history"`
}

// channelProfilePipeline builds the profile aggregation: match the channel,
// pull both edge directions, derive the counts and the viewer's membership,
// and project only the public fields. Counts are $size over the raw lookup
// result, so duplicate edges double-count by design of the edge writer.
func channelProfilePipeline(username string, viewer interface{}) []bson.M {
	return []bson.M{
		{"$match": bson.M{"username": username}},
		{"$lookup": bson.M{
			"from":         collectionSubscriptions,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}},
		{"$lookup": bson.M{
			"from":         collectionSubscriptions,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribed_to",
		}},
		{"$addFields": bson.M{
			"subscribers_count":   bson.M{"$size": "$subscribers"},
			"subscribed_to_count": bson.M{"$size": "$subscribed_to"},
			"is_subscribed":       bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
		}},
		{"$project": bson.M{
			"_id":                 0,
			"username":            1,
			"full_name":           1,
			"email":               1,
			"avatar_url":          1,
			"cover_image_url":     1,
			"subscribers_count":   1,
			"subscribed_to_count": 1,
			"is_subscribed":       1,
		}},
	}
}

// watchHistoryPipeline builds the nested join: the viewer's id list is looked
// up against videos, and each video runs a correlated sub-lookup that
// projects its owner down to the three public fields and collapses the
// result to a single document with $first. $lookup returns its matches in
// unspecified order and collapses duplicate local ids, so a final stage walks
// the stored id list and rebuilds the array in watch order, skipping ids
// whose video no longer exists.
func watchHistoryPipeline(viewer primitive.ObjectID) []bson.M {
	return []bson.M{
		{"$match": bson.M{"_id": viewer}},
		{"$lookup": bson.M{
			"from":         collectionVideos,
			"localField":   "watch_history",
			"foreignField": "_id",
			"as":           "watched",
			"pipeline": []bson.M{
				{"$lookup": bson.M{
					"from":         collectionUsers,
					"localField":   "owner_id",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": []bson.M{
						{"$project": bson.M{
							"_id":        0,
							"username":   1,
							"full_name":  1,
							"avatar_url": 1,
						}},
					},
				}},
				{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}},
		{"$addFields": bson.M{"watch_history": bson.M{
			"$filter": bson.M{
				"input": bson.M{"$map": bson.M{
					"input": "$watch_history",
					"as":    "id",
					"in": bson.M{"$let": bson.M{
						"vars": bson.M{"idx": bson.M{"$indexOfArray": bson.A{"$watched._id", "$$id"}}},
						"in": bson.M{"$cond": bson.A{
							bson.M{"$gte": bson.A{"$$idx", 0}},
							bson.M{"$arrayElemAt": bson.A{"$watched", "$$idx"}},
							nil,
						}},
					}},
				}},
				"as":   "video",
				"cond": bson.M{"$ne": bson.A{"$$video", nil}},
			},
		}}},
		{"$project": bson.M{"_id": 0, "watch_history": 1}},
	}
}

func (r *GraphRepository) ChannelProfile(ctx context.Context, viewerID, channelUsername string) (*domain.ChannelProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// An unresolvable viewer id still yields a profile, just with
	// is_subscribed=false: the literal can never match an edge.
	var viewer interface{} = ""
	if oid, err := primitive.ObjectIDFromHex(viewerID); err == nil {
		viewer = oid
	}

	cur, err := r.users.Aggregate(ctx, channelProfilePipeline(channelUsername, viewer))
	if err != nil {
		return nil, fmt.Errorf("channel profile: %w", err)
	}
	defer cur.Close(ctx)

	var rows []channelProfileRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("channel profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrUserNotFound
	}

	row := rows[0]
	return &domain.ChannelProfile{
		Username:         row.Username,
		FullName:         row.FullName,
		Email:            row.Email,
		AvatarURL:        row.AvatarURL,
		CoverImageURL:    row.CoverImageURL,
		SubscribersCount: row.SubscribersCount,
		SubscribedTo:     row.SubscribedTo,
		IsSubscribed:     row.IsSubscribed,
	}, nil
}

func (r *GraphRepository) WatchHistory(ctx context.Context, viewerID string) ([]domain.VideoWithOwner, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(viewerID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	cur, err := r.users.Aggregate(ctx, watchHistoryPipeline(oid))
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	defer cur.Close(ctx)

	var rows []watchHistoryRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrUserNotFound
	}

	history := make([]domain.VideoWithOwner, 0, len(rows[0].WatchHistory))
	for _, v := range rows[0].WatchHistory {
		history = append(history, domain.VideoWithOwner{
			Video: domain.Video{
				ID:           v.ID.Hex(),
				OwnerID:      v.OwnerID.Hex(),
				Title:        v.Title,
				Description:  v.Description,
				ThumbnailURL: v.ThumbnailURL,
				Duration:     v.Duration,
				Views:        v.Views,
				CreatedAt:    v.CreatedAt.Time().UTC(),
			},
			Owner: domain.VideoOwner{
				Username:  v.Owner.Username,
				FullName:  v.Owner.FullName,
				AvatarURL: v.Owner.AvatarURL,
			},
		})
	}
	return history, nil
}
