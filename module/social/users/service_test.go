package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup/module/social/model"
	"linkup/tools/errs"
	"linkup/tools/security"
)

func newTestService() *Service {
	return NewService(NewMemStore(), security.DefaultOptions([]byte("test-secret")))
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Username: "alice", Password: "s3cret", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, model.OnlinePrivacyPublic, u.OnlinePrivacy)
	assert.NotEqual(t, "s3cret", u.Password, "password must be stored hashed")

	logged, token, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	require.NotEmpty(t, token)

	// the token round-trips through the verifier
	sub, err := security.Verify(security.DefaultOptions([]byte("test-secret")), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.Equal(t, errs.CodeUnauthorized, errs.Code(err))

	_, _, err = svc.Login(ctx, "nobody", "s3cret")
	assert.Equal(t, errs.CodeUnauthorized, errs.Code(err))
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "", Password: "x"})
	assert.Equal(t, errs.CodeBadRequest, errs.Code(err))

	_, err = svc.Signup(ctx, SignupInput{Username: "x", Password: ""})
	assert.Equal(t, errs.CodeBadRequest, errs.Code(err))
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Username: "alice", Password: "a"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, SignupInput{Username: "alice", Password: "b"})
	assert.Equal(t, errs.CodeConflict, errs.Code(err))
}

func TestDisplayNameFallsBackToUsername(t *testing.T) {
	svc := newTestService()
	u, err := svc.Signup(context.Background(), SignupInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.DisplayName)
	assert.Equal(t, "bob", u.Name())
}
