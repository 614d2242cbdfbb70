package ports

import (
	"context"

	"github.com/vidhub/platform-api/internal/core/domain"
)

// ProfilePatch carries the account fields a user may update in place. Empty
// strings mean "leave unchanged".
type ProfilePatch struct {
	FullName string
	Email    string
}

// UserRepository defines the persistence contract for user identity records.
// Refresh-token and password writes are targeted field updates and bypass the
// full-document validation a create goes through.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByIdentity looks a user up by username or email; callers supply at
	// least one. Username matching is against the stored lower-cased value.
	FindByIdentity(ctx context.Context, username, email string) (*domain.User, error)
	// SetRefreshToken overwrites the single refresh-token slot. An empty
	// token clears it.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken replaces current with next in one compare-and-swap
	// write. It fails with domain.ErrTokenMismatch when the stored slot no
	// longer holds current.
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*domain.User, error)
	SetAvatarURL(ctx context.Context, userID, url string) (*domain.User, error)
	SetCoverImageURL(ctx context.Context, userID, url string) (*domain.User, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
