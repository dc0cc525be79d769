package user

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret#123")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("Secret#123", hash))
	assert.False(t, CheckPasswordHash("secret#123", hash))
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Abcdef1!"))
	assert.False(t, StrongPassword("abcdef1!"), "no upper")
	assert.False(t, StrongPassword("ABCDEF1!"), "no lower")
	assert.False(t, StrongPassword("Abcdefg!"), "no digit")
	assert.False(t, StrongPassword("Abcdefg1"), "no symbol")
}

func TestJWT(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "testsecret")

		token, err := GenerateJWT(42, string(RoleAdmin), "admin@example.com")
		require.NoError(t, err)

		claims, err := ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "ADMIN", claims.Role)
		assert.Equal(t, "admin@example.com", claims.Email)
	})

	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := GenerateJWT(1, string(RoleCustomer), "a@b.co")
		assert.ErrorIs(t, err, ErrMissingJWTSecret)

		_, err = ParseJWT("anything")
		assert.ErrorIs(t, err, ErrMissingJWTSecret)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "one")
		token, err := GenerateJWT(1, string(RoleCustomer), "a@b.co")
		require.NoError(t, err)

		t.Setenv("JWT_SECRET", "two")
		_, err = ParseJWT(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "testsecret")
		claims := CustomClaims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("testsecret"))
		require.NoError(t, err)

		_, err = ParseJWT(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("NoUserID", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "testsecret")
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{}).SignedString([]byte("testsecret"))
		require.NoError(t, err)

		_, err = ParseJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
