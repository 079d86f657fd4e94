package account

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cv-platform/internal/apperr"
	"cv-platform/internal/model"
	"cv-platform/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, BcryptHasher{Cost: bcrypt.MinCost}, nil), store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService(t)

	id, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret1", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = svc.Register(ctx, RegisterInput{Email: "A@X.com ", Password: "secret1", FirstName: "Ada", LastName: "Lovelace"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	_, err = svc.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrAuthFailure)

	user, err := svc.Authenticate(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.RoleCandidate, user.Role)
	require.NotNil(t, user.LastLogin)
	assert.NotEqual(t, "secret1", user.PasswordHash)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	_, err := svc.Authenticate(context.Background(), "ghost@x.com", "whatever")
	assert.ErrorIs(t, err, apperr.ErrAuthFailure)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	cases := map[string]struct {
		in   RegisterInput
		want error
	}{
		"missing email":  {RegisterInput{Password: "secret1", FirstName: "A", LastName: "B"}, apperr.ErrValidation},
		"bad email":      {RegisterInput{Email: "nope", Password: "secret1", FirstName: "A", LastName: "B"}, apperr.ErrValidation},
		"missing last":   {RegisterInput{Email: "a@x.com", Password: "secret1", FirstName: "A"}, apperr.ErrValidation},
		"short password": {RegisterInput{Email: "a@x.com", Password: strings.Repeat("x", MinPasswordLength-1), FirstName: "A", LastName: "B"}, apperr.ErrWeakPassword},
		"unknown role":   {RegisterInput{Email: "a@x.com", Password: "secret1", FirstName: "A", LastName: "B", Role: "admin"}, apperr.ErrValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)

	store := &stubStore{user: model.User{ID: 7, Email: "a@x.com", PasswordHash: hash, IsActive: false}}
	svc := NewService(store, hasher, nil)

	_, err = svc.Authenticate(context.Background(), "a@x.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrAuthFailure)
	assert.Zero(t, store.touched)
}

func TestAuthenticatePropagatesStoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	svc := NewService(&stubStore{err: boom}, nil, nil)
	_, err := svc.Authenticate(context.Background(), "a@x.com", "secret1")
	assert.ErrorIs(t, err, boom)
}

type stubStore struct {
	user    model.User
	err     error
	touched int
}

func (s *stubStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.err
}

func (s *stubStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	if s.err != nil {
		return model.User{}, s.err
	}
	if s.user.Email != email {
		return model.User{}, apperr.NotFound("user", email)
	}
	return s.user, nil
}

func (s *stubStore) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	s.touched++
	return nil
}
