package domain

import (
	"context"
	"time"
)

// User is an account known to the development auth server.
type User struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserRepository defines the contract for user lookups. It lives in the
// domain because it's a requirement OF the domain, not of the storage
// implementation.
type UserRepository interface {
	SignUp(ctx context.Context, username, password string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
}

// Token is a signed session credential issued after a successful sign-in.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *User) (Token, error)
}
