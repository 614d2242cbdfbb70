package handler

import "github.com/vidhub/platform-api/internal/core/domain"

// errorResponse documents the error envelope in swagger annotations; the
// actual rendering happens in the central error handler.
type errorResponse struct {
	Error string `json:"error"`
}

// apiResponse is the success envelope every 2xx response uses.
type apiResponse struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// --- Request types ---

// Registration arrives as multipart/form-data: text fields here, avatar and
// cover image as file parts.
type registerRequest struct {
	Username string `form:"username" validate:"required,min=3"`
	Email    string `form:"email"    validate:"required,email"`
	FullName string `form:"full_name" validate:"required"`
	Password string `form:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6"`
}

type updateAccountRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// --- Response types ---

type sessionResponse struct {
	User         *domain.Profile `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}
