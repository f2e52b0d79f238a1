package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/auth/app"
	"github.com/dwikikusuma/shoping-live/internal/auth/infra/gormstore"
	"github.com/dwikikusuma/shoping-live/internal/auth/infra/memory"
	"github.com/dwikikusuma/shoping-live/internal/auth/token"
	"github.com/dwikikusuma/shoping-live/pkg/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func repos(t *testing.T) map[string]app.UserRepo {
	return map[string]app.UserRepo{
		"memory": memory.NewUserRepo(),
		"gorm":   gormstore.NewUserRepo(dbtest.Open(t)),
	}
}

func TestRegisterLoginSession(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := app.NewService(repo, token.NewSigner("secret", time.Hour), bcrypt.MinCost)

			reg, err := svc.Register(ctx, "Test User", " Test@Example.com ", "password123")
			require.NoError(t, err)
			assert.Equal(t, "test@example.com", reg.User.Email)
			assert.NotEmpty(t, reg.Token)

			_, err = svc.Register(ctx, "Again", "test@example.com", "password123")
			assert.ErrorIs(t, err, app.ErrEmailTaken)

			login, err := svc.Login(ctx, "TEST@example.com", "password123")
			require.NoError(t, err)
			assert.Equal(t, reg.User.ID, login.User.ID)

			_, err = svc.Login(ctx, "test@example.com", "wrong-password")
			assert.ErrorIs(t, err, app.ErrInvalidCredentials)
			_, err = svc.Login(ctx, "nobody@example.com", "password123")
			assert.ErrorIs(t, err, app.ErrInvalidCredentials)

			userID, err := svc.Authenticate(ctx, login.Token)
			require.NoError(t, err)
			assert.Equal(t, reg.User.ID, userID)

			profile, err := svc.CurrentUser(ctx, login.Token)
			require.NoError(t, err)
			assert.Equal(t, "Test User", profile.Name)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := app.NewService(memory.NewUserRepo(), token.NewSigner("secret", time.Hour), bcrypt.MinCost)
	ctx := context.Background()

	cases := map[string][3]string{
		"missing name":   {"", "a@b.co", "secret1"},
		"bad email":      {"A", "not-an-email", "secret1"},
		"short password": {"A", "a@b.co", "12345"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in[0], in[1], in[2])
			assert.ErrorIs(t, err, app.ErrInvalidInput)
		})
	}
}

func TestAuthenticateRejects(t *testing.T) {
	svc := app.NewService(memory.NewUserRepo(), token.NewSigner("secret", time.Hour), bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, app.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, app.ErrUnauthenticated)

	// Well signed but the user does not exist.
	tok, _, err := token.NewSigner("secret", time.Hour).Issue("ghost")
	require.NoError(t, err)
	_, err = svc.CurrentUser(ctx, tok)
	assert.ErrorIs(t, err, app.ErrUnauthenticated)
}
