package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vidhub/platform-api/internal/api/metrics"
	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

// UserHandler handles the account and session lifecycle endpoints.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register creates a new account from a multipart form.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        username   formData  string  true   "Username (stored lower-cased)"
// @Param        email      formData  string  true   "Email address"
// @Param        full_name  formData  string  true   "Display name"
// @Param        password   formData  string  true   "Password"
// @Param        avatar     formData  file    true   "Avatar image"
// @Param        cover_image formData file    false  "Cover image"
// @Success      201  {object}  apiResponse
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/v1/users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	avatarPath, err := saveFormFile(c, "avatar")
	if err != nil {
		return err
	}
	defer removeTempFile(avatarPath)

	// Optional part: absent cover image is an empty path, not an error.
	coverPath, _ := saveFormFile(c, "cover_image")
	if coverPath != "" {
		defer removeTempFile(coverPath)
	}

	profile, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		Password:       req.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, apiResponse{
		Status:  http.StatusCreated,
		Data:    profile,
		Message: "user registered successfully",
	})
}

// Login authenticates by username or email and issues a token pair. The
// tokens travel in the body and as HttpOnly cookies.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials (username or email)"
// @Success      200   {object}  apiResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.users.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResultLabel(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	setTokenCookies(c, result.Tokens)
	return c.JSON(http.StatusOK, apiResponse{
		Status: http.StatusOK,
		Data: sessionResponse{
			User:         result.User,
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
		},
		Message: "logged in successfully",
	})
}

// Logout clears the stored refresh token and expires both cookies.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.users.Logout(c.Request().Context(), userID); err != nil {
		return err
	}

	clearTokenCookies(c)
	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Message: "logged out successfully",
	})
}

// Refresh rotates the refresh token and issues a new pair. The presented
// token is read from the cookie first, then the request body.
//
// @Summary      Refresh the session tokens
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token (optional when the cookie is set)"
// @Success      200   {object}  apiResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/v1/users/refresh-token [post]
func (h *UserHandler) Refresh(c echo.Context) error {
	refreshToken := ""
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	result, err := h.users.RefreshSession(c.Request().Context(), refreshToken)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(refreshResultLabel(err)).Inc()
		return err
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	setTokenCookies(c, result.Tokens)
	return c.JSON(http.StatusOK, apiResponse{
		Status: http.StatusOK,
		Data: sessionResponse{
			User:         result.User,
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
		},
		Message: "session refreshed",
	})
}

// ChangePassword verifies the current password before writing the new one.
//
// @Summary      Change the caller's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  apiResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/v1/users/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Message: "password changed successfully",
	})
}

// Me returns the caller's sanitized profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.users.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Data:    profile,
		Message: "current user",
	})
}

// UpdateAccount patches the caller's full name and/or email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "Fields to update"
// @Success      200   {object}  apiResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/v1/users/me [patch]
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.users.UpdateAccount(c.Request().Context(), userID, ports.ProfilePatch{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Data:    profile,
		Message: "account updated",
	})
}

// UpdateAvatar replaces the caller's avatar image.
//
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "New avatar image"
// @Success      200  {object}  apiResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/v1/users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.users.UpdateAvatar)
}

// UpdateCoverImage replaces the caller's cover image.
//
// @Summary      Update cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        cover_image  formData  file  true  "New cover image"
// @Success      200  {object}  apiResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/v1/users/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "cover_image", h.users.UpdateCoverImage)
}

func (h *UserHandler) updateImage(c echo.Context, field string, update func(ctx context.Context, userID, path string) (*domain.Profile, error)) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	path, err := saveFormFile(c, field)
	if err != nil {
		return err
	}
	defer removeTempFile(path)

	profile, err := update(c.Request().Context(), userID, path)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status:  http.StatusOK,
		Data:    profile,
		Message: field + " updated",
	})
}

func loginResultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func refreshResultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}

// removeTempFile deletes a saved multipart part. The media store already
// removes files it was handed, so on the happy path the file is gone by the
// time the deferred call runs; this catches every path that returns before
// reaching the store.
func removeTempFile(path string) {
	_ = os.Remove(path)
}

// saveFormFile writes the named multipart file part to a temp file and
// returns its path. The media store removes the file after the upload
// attempt, success or not.
func saveFormFile(c echo.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, field+" file is required")
	}
	return writeTempFile(fh)
}

func writeTempFile(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
