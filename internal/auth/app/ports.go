package app

import (
	"context"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/auth/domain"
)

type UserRepo interface {
	// Create fails with ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
}

type Tokens interface {
	Issue(userID string) (token string, expires time.Time, err error)
	Verify(token string) (userID string, err error)
}
