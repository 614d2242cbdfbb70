package domain

import "errors"

var ErrValidation = errors.New("invalid input")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenMismatch means the presented refresh token is not the one currently
// stored on the user record. Rotation overwrites the slot, so any token from
// a prior issuance hits this. Transported as 401, kept distinct so tests and
// logs can tell a stale token from a forged one.
var ErrTokenMismatch = errors.New("refresh token mismatch")

var ErrUpstream = errors.New("upstream dependency failed")
var ErrInternal = errors.New("internal inconsistency")
