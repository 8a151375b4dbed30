package auth

import (
	"errors"

	"tutora/backend/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = domain.ErrUnauthenticated
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("password reset token is invalid or expired")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)
