package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clarion-hms/clarion/internal/shared"
)

type memoryRepo struct {
	users map[string]*User
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if user, ok := r.users[email]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func repoWithUser(t *testing.T, email, password string, active bool) *memoryRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &memoryRepo{users: map[string]*User{
		email: {ID: 1, Name: "Dr. Mensah", Email: email, PasswordHash: string(hash), IsActive: active},
	}}
}

func TestAuthenticateSuccess(t *testing.T) {
	svc := NewService(repoWithUser(t, "mensah@clinic.test", "correct-horse", true))
	user, err := svc.Authenticate(context.Background(), "mensah@clinic.test", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := NewService(repoWithUser(t, "mensah@clinic.test", "correct-horse", true))
	_, err := svc.Authenticate(context.Background(), "mensah@clinic.test", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := NewService(&memoryRepo{users: map[string]*User{}})
	_, err := svc.Authenticate(context.Background(), "nobody@clinic.test", "whatever")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	svc := NewService(repoWithUser(t, "mensah@clinic.test", "correct-horse", false))
	_, err := svc.Authenticate(context.Background(), "mensah@clinic.test", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
