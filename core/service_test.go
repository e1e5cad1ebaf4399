package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableUsers fails every email lookup with err.
type unreachableUsers struct {
	memUsers
	err error
}

func (u unreachableUsers) FindByEmail(context.Context, string) (*UserRecord, error) {
	return nil, u.err
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewRepositoryAuthService(memUsers{newMemDB()})
	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateReportsLookupFailure(t *testing.T) {
	down := errors.New("connection refused")
	svc := NewRepositoryAuthService(unreachableUsers{memUsers: memUsers{newMemDB()}, err: down})

	_, err := svc.Authenticate(context.Background(), "amy@example.com", "secret1")
	require.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
