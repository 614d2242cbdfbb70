package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

// memoryRepo is an in-memory UserRepository for service tests. It enforces
// the same identity uniqueness and compare-and-swap rotation semantics as the
// Mongo implementation.
type memoryRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]*domain.User{}}
}

func (r *memoryRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	cp := *user
	cp.ID = strconv.Itoa(r.nextID)
	cp.CreatedAt = time.Now()
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) FindByIdentity(_ context.Context, username, email string) (*domain.User, error) {
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryRepo) SetRefreshToken(_ context.Context, userID, token string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *memoryRepo) RotateRefreshToken(_ context.Context, userID, current, next string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.RefreshToken != current {
		return domain.ErrTokenMismatch
	}
	u.RefreshToken = next
	return nil
}

func (r *memoryRepo) SetPasswordHash(_ context.Context, userID, hash string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *memoryRepo) UpdateProfile(_ context.Context, userID string, patch ports.ProfilePatch) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.FullName != "" {
		u.FullName = patch.FullName
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) SetAvatarURL(_ context.Context, userID, url string) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.AvatarURL = url
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) SetCoverImageURL(_ context.Context, userID, url string) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.CoverImageURL = url
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.WatchHistory = append(u.WatchHistory, videoID)
	return nil
}

// fakeMedia returns canned URLs per local path; paths in fail return "".
type fakeMedia struct {
	uploads []string
	fail    map[string]bool
}

func (m *fakeMedia) Upload(_ context.Context, localPath string) string {
	m.uploads = append(m.uploads, localPath)
	if m.fail[localPath] {
		return ""
	}
	return "https://media.test/" + localPath
}

func newTestUserService(t *testing.T, revoke bool) (*UserService, *memoryRepo, *fakeMedia) {
	t.Helper()
	repo := newMemoryRepo()
	media := &fakeMedia{fail: map[string]bool{}}
	tokens := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewUserService(repo, tokens, media, revoke, zerolog.Nop()), repo, media
}

func registerInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username:   "Alice",
		Email:      "alice@example.com",
		FullName:   "Alice Mayer",
		Password:   "hunter22",
		AvatarPath: "avatar.png",
	}
}

func TestRegisterLowercasesUsername(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)

	profile, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "https://media.test/avatar.png", profile.AvatarURL)
	assert.Empty(t, profile.CoverImageURL)
	assert.NotEmpty(t, profile.ID)
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)

	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	// Same username, different casing and email.
	in := registerInput()
	in.Username = "ALICE"
	in.Email = "other@example.com"
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrUserExists)

	// Same email, different username.
	in = registerInput()
	in.Username = "bob"
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)

	cases := []func(*ports.RegisterInput){
		func(in *ports.RegisterInput) { in.Username = "  " },
		func(in *ports.RegisterInput) { in.Email = "" },
		func(in *ports.RegisterInput) { in.FullName = "" },
		func(in *ports.RegisterInput) { in.Password = " " },
		func(in *ports.RegisterInput) { in.AvatarPath = "" },
	}
	for i, mutate := range cases {
		in := registerInput()
		mutate(&in)
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrValidation, "case %d", i)
	}
}

func TestRegisterAvatarUploadFailure(t *testing.T) {
	svc, repo, media := newTestUserService(t, false)
	media.fail["avatar.png"] = true

	_, err := svc.Register(context.Background(), registerInput())
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Empty(t, repo.users, "no document written on upload failure")
}

func TestRegisterOptionalCoverImage(t *testing.T) {
	svc, _, media := newTestUserService(t, false)

	in := registerInput()
	in.CoverImagePath = "cover.jpg"
	profile, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "https://media.test/cover.jpg", profile.CoverImageURL)
	assert.Equal(t, []string{"avatar.png", "cover.jpg"}, media.uploads)

	// A failed cover upload degrades to empty, it does not block signup.
	in = registerInput()
	in.Username = "bob"
	in.Email = "bob@example.com"
	in.CoverImagePath = "broken.jpg"
	media.fail["broken.jpg"] = true
	profile, err = svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, profile.CoverImageURL)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc, repo, _ := newTestUserService(t, false)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), ports.LoginInput{Username: "Alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	// The stored slot holds exactly the returned refresh token.
	stored := repo.users[res.User.ID]
	assert.Equal(t, res.Tokens.RefreshToken, stored.RefreshToken)

	res2, err := svc.Login(context.Background(), ports.LoginInput{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, res2.User.ID)
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), ports.LoginInput{Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Login(context.Background(), ports.LoginInput{Username: "nobody", Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo, _ := newTestUserService(t, false)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshSession(context.Background(), login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)
	assert.Equal(t, refreshed.Tokens.RefreshToken, repo.users[login.User.ID].RefreshToken)

	// The pre-rotation token is no longer in the slot: replaying it fails.
	_, err = svc.RefreshSession(context.Background(), login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenMismatch)

	// The winner's token keeps working.
	_, err = svc.RefreshSession(context.Background(), refreshed.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.RefreshSession(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// An access token is not a refresh token.
	_, err = svc.RefreshSession(context.Background(), login.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestLogoutClearsSlot(t *testing.T) {
	svc, repo, _ := newTestUserService(t, false)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.User.ID))
	assert.Empty(t, repo.users[login.User.ID].RefreshToken)

	// A refresh with the pre-logout token no longer matches the slot.
	_, err = svc.RefreshSession(context.Background(), login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenMismatch)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)
	profile, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), profile.ID, "wrong", "newpass99")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), profile.ID, "hunter22", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.ChangePassword(context.Background(), profile.ID, "hunter22", "newpass99"))

	_, err = svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "newpass99"})
	assert.NoError(t, err)
}

func TestChangePasswordRevokesSessionsWhenEnabled(t *testing.T) {
	svc, repo, _ := newTestUserService(t, true)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), login.User.ID, "hunter22", "newpass99"))
	assert.Empty(t, repo.users[login.User.ID].RefreshToken)
}

func TestChangePasswordKeepsSessionsByDefault(t *testing.T) {
	svc, repo, _ := newTestUserService(t, false)
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), ports.LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), login.User.ID, "hunter22", "newpass99"))
	assert.Equal(t, login.Tokens.RefreshToken, repo.users[login.User.ID].RefreshToken)
}

func TestUpdateAccount(t *testing.T) {
	svc, _, _ := newTestUserService(t, false)
	profile, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = svc.UpdateAccount(context.Background(), profile.ID, ports.ProfilePatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := svc.UpdateAccount(context.Background(), profile.ID, ports.ProfilePatch{FullName: "Alice M."})
	require.NoError(t, err)
	assert.Equal(t, "Alice M.", updated.FullName)
	assert.Equal(t, profile.Email, updated.Email)
}

func TestUpdateImages(t *testing.T) {
	svc, _, media := newTestUserService(t, false)
	profile, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	updated, err := svc.UpdateAvatar(context.Background(), profile.ID, "new-avatar.png")
	require.NoError(t, err)
	assert.Equal(t, "https://media.test/new-avatar.png", updated.AvatarURL)

	updated, err = svc.UpdateCoverImage(context.Background(), profile.ID, "new-cover.png")
	require.NoError(t, err)
	assert.Equal(t, "https://media.test/new-cover.png", updated.CoverImageURL)

	_, err = svc.UpdateAvatar(context.Background(), profile.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	media.fail["bad.png"] = true
	_, err = svc.UpdateAvatar(context.Background(), profile.ID, "bad.png")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestSanitizeNeverExposesSecrets(t *testing.T) {
	u := &domain.User{
		ID:           "1",
		Username:     "alice",
		PasswordHash: "$2a$10$secret",
		RefreshToken: "refresh-token",
		WatchHistory: []string{"v1"},
	}
	p := u.Sanitize()

	// Profile has no fields for hash, token, or history; round-trip through
	// the struct confirms the projection carries only public data.
	assert.Equal(t, "alice", p.Username)
	assert.NotPanics(t, func() { _ = fmt.Sprintf("%+v", p) })
	s := fmt.Sprintf("%+v", *p)
	assert.NotContains(t, s, "secret")
	assert.NotContains(t, s, "refresh-token")
	assert.NotContains(t, s, "v1")
}
