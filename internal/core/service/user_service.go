package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

// UserService implements the session lifecycle: registration, login, token
// rotation, logout, and the profile mutations that hang off an account.
type UserService struct {
	repo   ports.UserRepository
	tokens ports.TokenIssuer
	media  ports.MediaStore
	logger zerolog.Logger

	// revokeOnPasswordChange clears the refresh-token slot when the password
	// changes, forcing a re-login. Off by default: existing sessions survive
	// a password change unless the deployment opts in.
	revokeOnPasswordChange bool
}

func NewUserService(repo ports.UserRepository, tokens ports.TokenIssuer, media ports.MediaStore, revokeOnPasswordChange bool, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:                   repo,
		tokens:                 tokens,
		media:                  media,
		revokeOnPasswordChange: revokeOnPasswordChange,
		logger:                 logger,
	}
}

// Register creates a new account. The avatar upload must succeed before any
// document is written; the cover image is optional and defaults to empty.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Profile, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: username, email, full name and password are required", domain.ErrValidation)
	}
	if in.AvatarPath == "" {
		return nil, fmt.Errorf("%w: avatar file is required", domain.ErrValidation)
	}

	// Conflict check on either identity field before touching object storage.
	if existing, err := s.repo.FindByIdentity(ctx, username, email); err == nil && existing != nil {
		return nil, domain.ErrUserExists
	} else if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	avatarURL := s.media.Upload(ctx, in.AvatarPath)
	if avatarURL == "" {
		return nil, fmt.Errorf("%w: avatar upload failed", domain.ErrUpstream)
	}

	coverURL := ""
	if in.CoverImagePath != "" {
		coverURL = s.media.Upload(ctx, in.CoverImagePath)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  string(hash),
	})
	if err != nil {
		return nil, err
	}

	// Re-fetch to confirm the record is durably readable. A miss here is a
	// store inconsistency worth surfacing, not swallowing.
	stored, err := s.repo.FindByID(ctx, created.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: created user not readable", domain.ErrInternal)
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", stored.ID).Str("username", stored.Username).Msg("user registered")
	return stored.Sanitize(), nil
}

// Login authenticates by username or email and mints a fresh token pair.
// Persisting the refresh token overwrites any prior slot value, so logging in
// invalidates the previous session's refresh token.
func (s *UserService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return nil, fmt.Errorf("%w: username or email is required", domain.ErrValidation)
	}

	user, err := s.repo.FindByIdentity(ctx, username, email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user logged in")
	return &ports.LoginResult{User: user.Sanitize(), Tokens: pair}, nil
}

// Logout clears the stored refresh token; the handler clears the cookies.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

// RefreshSession rotates the refresh token and issues a new pair. The rotation
// is a compare-and-swap at the store: the write only matches when the slot
// still holds the presented token, so of two concurrent refreshes exactly one
// succeeds and the other sees ErrTokenMismatch.
func (s *UserService) RefreshSession(ctx context.Context, refreshToken string) (*ports.LoginResult, error) {
	userID, err := s.tokens.Verify(refreshToken, ports.TokenRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrTokenMismatch) {
			s.logger.Warn().Str("user_id", user.ID).Msg("stale refresh token presented")
		}
		return nil, err
	}

	return &ports.LoginResult{User: user.Sanitize(), Tokens: pair}, nil
}

// ChangePassword verifies the current password before writing the new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrValidation)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	if s.revokeOnPasswordChange {
		if err := s.repo.SetRefreshToken(ctx, userID, ""); err != nil {
			return err
		}
	}

	s.logger.Info().Str("user_id", userID).Bool("sessions_revoked", s.revokeOnPasswordChange).Msg("password changed")
	return nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID string, patch ports.ProfilePatch) (*domain.Profile, error) {
	patch.FullName = strings.TrimSpace(patch.FullName)
	patch.Email = strings.TrimSpace(patch.Email)
	if patch.FullName == "" && patch.Email == "" {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*domain.Profile, error) {
	user, err := s.updateImage(ctx, userID, localPath, s.repo.SetAvatarURL)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*domain.Profile, error) {
	return s.updateImage(ctx, userID, localPath, s.repo.SetCoverImageURL)
}

func (s *UserService) updateImage(ctx context.Context, userID, localPath string, write func(context.Context, string, string) (*domain.User, error)) (*domain.Profile, error) {
	if localPath == "" {
		return nil, fmt.Errorf("%w: image file is required", domain.ErrValidation)
	}

	url := s.media.Upload(ctx, localPath)
	if url == "" {
		return nil, fmt.Errorf("%w: image upload failed", domain.ErrUpstream)
	}

	user, err := write(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *UserService) mintPair(user *domain.User) (domain.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
