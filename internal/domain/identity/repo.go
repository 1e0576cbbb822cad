package identity

import (
	"context"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
}
