package ports

import (
	"context"

	"github.com/vidhub/platform-api/internal/core/domain"
)

// RegisterInput carries everything registration needs. Avatar is required,
// cover image optional; both are local temp-file paths produced by the
// transport layer's multipart handling.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput identifies the account by username or email; at least one must
// be set.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is what a successful login or refresh hands back to transport:
// the sanitized user plus both tokens (returned in the body and mirrored as
// cookies by the handler).
type LoginResult struct {
	User   *domain.Profile
	Tokens domain.TokenPair
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Profile, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, userID string) error
	// RefreshSession verifies the presented refresh token, rotates the stored
	// slot, and issues a fresh pair. A token from a prior rotation fails with
	// domain.ErrTokenMismatch.
	RefreshSession(ctx context.Context, refreshToken string) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateAccount(ctx context.Context, userID string, patch ProfilePatch) (*domain.Profile, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*domain.Profile, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*domain.Profile, error)
}
