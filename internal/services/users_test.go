package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, SignupInput{
		FirstName: "Лев",
		LastName:  "Толстой",
		Username:  "leo",
		Email:     "leo@example.com",
		Password:  "war-and-peace",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "war-and-peace", user.Password)

	got, err := env.users.Authenticate(ctx, "leo", "war-and-peace")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.users.Authenticate(ctx, "leo", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "nobody", "war-and-peace")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	byID, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "leo", byID.Username)
	_, err = env.users.GetByID(ctx, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := SignupInput{Username: "leo", Password: "long-enough"}

	_, err := env.users.Register(ctx, in)
	require.NoError(t, err)
	_, err = env.users.Register(ctx, in)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"blank username", SignupInput{Username: " ", Password: "long-enough"}, "username"},
		{"bad username", SignupInput{Username: "with space", Password: "long-enough"}, "username"},
		{"short password", SignupInput{Username: "leo", Password: "short"}, "password"},
		{"bad email", SignupInput{Username: "leo", Email: "nope", Password: "long-enough"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.users.Register(context.Background(), tc.in)
			ve, ok := AsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestLoginWithGoogle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Register(ctx, SignupInput{Username: "anna", Password: "long-enough"})
	require.NoError(t, err)

	profile := GoogleProfile{ID: "g-1", Email: "anna@gmail.com", VerifiedEmail: true, GivenName: "Анна"}
	user, err := env.users.LoginWithGoogle(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "anna2", user.Username, "taken username gets a suffix")
	assert.Equal(t, "g-1", user.GoogleID)
	assert.Equal(t, "Анна", user.FirstName)

	again, err := env.users.LoginWithGoogle(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, err = env.users.LoginWithGoogle(ctx, GoogleProfile{ID: "g-2", Email: "x@gmail.com"})
	assert.ErrorIs(t, err, ErrUnverifiedEmail)
}

func TestLoginWithGoogleLinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	existing, err := env.users.Register(ctx, SignupInput{Username: "leo", Email: "leo@example.com", Password: "long-enough"})
	require.NoError(t, err)

	user, err := env.users.LoginWithGoogle(ctx, GoogleProfile{ID: "g-9", Email: "leo@example.com", VerifiedEmail: true})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)

	linked, err := env.users.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-9", linked.GoogleID)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.users.Register(ctx, SignupInput{Username: "leo", Password: "war-and-peace"})
	require.NoError(t, err)

	err = env.users.ChangePassword(ctx, user.ID, PasswordChangeInput{
		OldPassword: "wrong", NewPassword: "anna-karenina", NewPassword2: "anna-karenina",
	})
	ve, ok := AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "old_password", ve.Field)

	err = env.users.ChangePassword(ctx, user.ID, PasswordChangeInput{
		OldPassword: "war-and-peace", NewPassword: "anna-karenina", NewPassword2: "anna-karenin",
	})
	ve, ok = AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "new_password2", ve.Field)

	require.NoError(t, env.users.ChangePassword(ctx, user.ID, PasswordChangeInput{
		OldPassword: "war-and-peace", NewPassword: "anna-karenina", NewPassword2: "anna-karenina",
	}))
	_, err = env.users.Authenticate(ctx, "leo", "war-and-peace")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "leo", "anna-karenina")
	assert.NoError(t, err)
}
