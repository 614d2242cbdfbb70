package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Username      string               `bson:"username"`
	Email         string               `bson:"email"`
	FullName      string               `bson:"full_name"`
	AvatarURL     string               `bson:"avatar_url"`
	CoverImageURL string               `bson:"cover_image_url,omitempty"`
	PasswordHash  string               `bson:"password_hash"`
	RefreshToken  string               `bson:"refresh_token,omitempty"`
	WatchHistory  []primitive.ObjectID `bson:"watch_history,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	var history []string
	for _, id := range mu.WatchHistory {
		history = append(history, id.Hex())
	}
	return &domain.User{
		ID:            mu.ID.Hex(),
		Username:      mu.Username,
		Email:         mu.Email,
		FullName:      mu.FullName,
		AvatarURL:     mu.AvatarURL,
		CoverImageURL: mu.CoverImageURL,
		PasswordHash:  mu.PasswordHash,
		RefreshToken:  mu.RefreshToken,
		WatchHistory:  history,
		CreatedAt:     mu.CreatedAt,
		UpdatedAt:     mu.UpdatedAt,
	}
}

// Create inserts the user document and fetches it back so the caller gets
// the assigned id. Unique-index violations on username or email map to
// domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := mongoUser{
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		PasswordHash:  user.PasswordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, mapWriteError("insert user", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected inserted id type %T", res.InsertedID)
	}
	return r.findByObjectID(ctx, oid)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findByObjectID(ctx, oid)
}

func (r *UserRepository) findByObjectID(ctx context.Context, oid primitive.ObjectID) (*domain.User, error) {
	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// FindByIdentity looks a user up by username or email. Usernames are stored
// lower-cased, so an exact match here is case-insensitive from the caller's
// perspective.
func (r *UserRepository) FindByIdentity(ctx context.Context, username, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, domain.ErrUserNotFound
	}

	var mu mongoUser
	if err := r.col.FindOne(ctx, bson.M{"$or": or}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// SetRefreshToken overwrites the single refresh-token slot. Empty clears it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	return r.setFields(ctx, userID, bson.M{"refresh_token": token})
}

// RotateRefreshToken swaps the slot from current to next in one write. The
// filter carries the expected current value, so the update only matches when
// no other rotation got there first; a miss on an existing user means the
// presented token is stale.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, userID, current, next string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "refresh_token": current},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now().UTC()}},
	)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrTokenMismatch
		}
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return r.setFields(ctx, userID, bson.M{"password_hash": hash})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, patch ports.ProfilePatch) (*domain.User, error) {
	set := bson.M{}
	if patch.FullName != "" {
		set["full_name"] = patch.FullName
	}
	if patch.Email != "" {
		set["email"] = patch.Email
	}
	return r.setFieldsReturning(ctx, userID, set)
}

func (r *UserRepository) SetAvatarURL(ctx context.Context, userID, url string) (*domain.User, error) {
	return r.setFieldsReturning(ctx, userID, bson.M{"avatar_url": url})
}

func (r *UserRepository) SetCoverImageURL(ctx context.Context, userID, url string) (*domain.User, error) {
	return r.setFieldsReturning(ctx, userID, bson.M{"cover_image_url": url})
}

// AppendWatchHistory pushes a video id onto the ordered history list.
func (r *UserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	vid, err := primitive.ObjectIDFromHex(videoID)
	if err != nil {
		return fmt.Errorf("%w: malformed video id", domain.ErrValidation)
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$push": bson.M{"watch_history": vid}},
	)
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) setFields(ctx context.Context, userID string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	set["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) setFieldsReturning(ctx context.Context, userID string, set bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoUser
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		return nil, mapWriteError("update user", err)
	}
	return mu.toDomain(), nil
}

// mapWriteError converts driver errors from user writes to domain sentinels.
// Unique-index violations (username, email) surface as ErrUserExists whether
// they come from an insert or a profile update.
func mapWriteError(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrUserExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

// EnsureIndexes creates the unique identity indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
