package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandlerExecute(t *testing.T) {
	repo, cleanup := setupUsersRepo(t)
	defer cleanup()

	ctx := context.Background()
	handler := users.NewRegisterUserHandler(repo)

	t.Run("registers a new account", func(t *testing.T) {
		record, err := handler.Execute(ctx, users.RegisterUserMessage{
			Username: "ada",
			Email:    "ada@example.com",
			Password: "correct horse battery staple",
		})

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.NotZero(t, record.ID)
		assert.Equal(t, "ada", record.Username)
		assert.Equal(t, "ada@example.com", record.Email)
		assert.True(t, record.Active)

		assert.NotEqual(t, "correct horse battery staple", record.PasswordHash)
		assert.NoError(t, users.ComparePasswordAndHash("correct horse battery staple", record.PasswordHash))
	})

	t.Run("derives the username from the email local part", func(t *testing.T) {
		record, err := handler.Execute(ctx, users.RegisterUserMessage{
			Email:    "grace@example.com",
			Password: "s3cret-enough",
		})

		require.NoError(t, err)
		assert.Equal(t, "grace", record.Username)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := handler.Execute(ctx, users.RegisterUserMessage{
			Username: "ada2",
			Email:    "ada@example.com",
			Password: "another password",
		})

		require.Error(t, err)
		assert.True(t, users.IsDuplicateUserError(err))
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		_, err := handler.Execute(ctx, users.RegisterUserMessage{
			Username: "ada",
			Email:    "ada+second@example.com",
			Password: "another password",
		})

		require.Error(t, err)
		assert.True(t, users.IsDuplicateUserError(err))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := handler.Execute(ctx, users.RegisterUserMessage{
			Username: "joan",
			Email:    "joan@example.com",
			Password: "",
		})

		require.Error(t, err)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := handler.Execute(cancelled, users.RegisterUserMessage{
			Username: "never",
			Email:    "never@example.com",
			Password: "whatever",
		})

		require.Error(t, err)
	})
}

func TestRegisterUserHandlerRegisterUser(t *testing.T) {
	repo, cleanup := setupUsersRepo(t)
	defer cleanup()

	ctx := context.Background()
	handler := users.NewRegisterUserHandler(repo)

	record, err := handler.RegisterUser(ctx, "joan", "joan@example.com", "plenty-good-password")
	require.NoError(t, err)
	assert.Equal(t, "joan", record.Username)

	found, err := repo.Users().GetByEmail(ctx, "joan@example.com")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
}
