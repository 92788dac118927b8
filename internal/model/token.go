package model

import "github.com/google/uuid"

// Principal identifies the authenticated caller of an editor operation.
type Principal struct {
	UserID   uuid.UUID
	Username string
}

// TokenManager generates and validates access/refresh tokens.
type TokenManager interface {
	GenerateAccessToken(user User) (string, error)
	GenerateRefreshToken(user User) (token string, jti string, err error)
	ParseAccessToken(token string) (Principal, error)
	ParseRefreshToken(token string) (principal Principal, jti string, err error)
}
