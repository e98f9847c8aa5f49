package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
	"bjjvisits-backend/pkg/logger"
)

// fakeUserRepo is an in-memory UserRepository for auth tests
type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) { return nil, nil }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.users[email], nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error { return nil }

func (r *fakeUserRepo) Delete(_ context.Context, id string) error { return nil }

func setupAuth(t *testing.T) (*fakeUserRepo, *domain.User, *Service) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:           "user-1",
		Name:         "Sales Rep",
		Email:        "sales@bjjvisits.com",
		PasswordHash: string(hash),
		Role:         domain.RoleSalesperson,
		Active:       true,
	}
	repo := &fakeUserRepo{users: map[string]*domain.User{user.Email: user}}

	log, err := logger.New("error")
	require.NoError(t, err)

	svc := NewService(repo, "test-secret", log).(*Service)
	return repo, user, svc
}

func TestLoginAndValidate(t *testing.T) {
	_, user, svc := setupAuth(t)
	ctx := context.Background()

	token, loggedIn, err := svc.Login(ctx, user.Email, "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.RoleSalesperson, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, user, svc := setupAuth(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", user.Email, "incorrect"},
		{"unknown email", "nobody@bjjvisits.com", "correct horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tt.email, tt.password)
			require.Error(t, err)
			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeAuthentication, appErr.Type)
		})
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	_, user, svc := setupAuth(t)
	user.Active = false

	_, _, err := svc.Login(context.Background(), user.Email, "correct horse")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeAuthentication, appErr.Type)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, _, svc := setupAuth(t)

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := svc.ValidateToken(context.Background(), token)
		assert.Error(t, err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	_, user, svc := setupAuth(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, user.Email, "correct horse")
	require.NoError(t, err)

	log, err := logger.New("error")
	require.NoError(t, err)
	other := NewService(&fakeUserRepo{users: map[string]*domain.User{}}, "different-secret", log)

	_, err = other.ValidateToken(ctx, token)
	assert.Error(t, err)
}
