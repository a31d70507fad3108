// Package user defines the identity model shared by authorization checks
// across the API. Account registration and login live outside this service;
// callers are resolved from pre-issued API tokens.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// Role determines which endpoints a user may call.
type Role string

const (
	// RoleUser is a buyer: owns a cart, checks out, confirms deliveries.
	RoleUser Role = "user"
	// RoleJastiper is a courier: accepts pending orders and advances them.
	RoleJastiper Role = "jastiper"
	// RoleAdmin manages the catalog and can read any order.
	RoleAdmin Role = "admin"
)

// User is the resolved identity of an API caller.
type User struct {
	ID       int64
	Username string
	Role     Role
}

// Repository resolves callers from token hashes and creates accounts
// (the latter is used by seeding only).
type Repository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*User, error)
	Create(ctx context.Context, username string, role Role, tokenHash string) (*User, error)
}
