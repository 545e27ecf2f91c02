package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/storage"
)

type memoryUsers struct {
	byEmail map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*models.User{}}
}

func (m *memoryUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrNotFound
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)
	user := &models.User{ID: "u1", Email: "alice@example.com"}

	token, err := manager.Generate(user)
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	manager := NewJWTManager("test-secret-key", time.Hour)
	user := &models.User{ID: "u1", Email: "alice@example.com"}

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := manager.Generate(user)
		require.NoError(t, err)
		_, err = NewJWTManager("other-secret", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewJWTManager("test-secret-key", -time.Minute).Generate(user)
		require.NoError(t, err)
		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUsers())

	user, err := authn.Register(ctx, "alice@example.com", "Alice", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	got, err := authn.Authenticate(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = authn.Authenticate(ctx, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authn.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordRegisterValidation(t *testing.T) {
	ctx := context.Background()
	authn := NewPasswordAuthenticator(newMemoryUsers())

	_, err := authn.Register(ctx, "alice@example.com", "Alice", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = authn.Register(ctx, "alice@example.com", "Alice", "long enough password")
	require.NoError(t, err)

	_, err = authn.Register(ctx, "alice@example.com", "Alice", "another password")
	assert.ErrorIs(t, err, ErrEmailExists)
}
