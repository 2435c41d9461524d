package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		UserID:  "user-1",
		Email:   "user@example.com",
		SpaceID: "space-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cardpilot",
			Audience:  jwt.ClaimStrings{"cardpilot-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{
		SecretKey: testSecret,
		Issuer:    "cardpilot",
		Audience:  []string{"cardpilot-api"},
	})
	require.NoError(t, err)
	return v
}

func TestJWTValidator_ValidateToken_Success(t *testing.T) {
	// Arrange
	v := newValidator(t)
	token := signToken(t, testSecret, validClaims())

	// Act
	claims, err := v.ValidateToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "space-1", claims.SpaceID)
}

func TestJWTValidator_ValidateToken_BearerPrefixStripped(t *testing.T) {
	v := newValidator(t)
	token := signToken(t, testSecret, validClaims())

	claims, err := v.ValidateToken("Bearer " + token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestJWTValidator_ValidateToken_Expired(t *testing.T) {
	// Arrange
	v := newValidator(t)
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := signToken(t, testSecret, claims)

	// Act
	_, err := v.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTValidator_ValidateToken_WrongSecret(t *testing.T) {
	v := newValidator(t)
	token := signToken(t, "other-secret", validClaims())

	_, err := v.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWTValidator_ValidateToken_WrongIssuer(t *testing.T) {
	v := newValidator(t)
	claims := validClaims()
	claims.Issuer = "someone-else"
	token := signToken(t, testSecret, claims)

	_, err := v.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestJWTValidator_ValidateToken_MissingUserID(t *testing.T) {
	v := newValidator(t)
	claims := validClaims()
	claims.UserID = ""
	token := signToken(t, testSecret, claims)

	_, err := v.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestJWTValidator_ValidateToken_Empty(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateToken("")

	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTokenContext_RoundTrip(t *testing.T) {
	// Arrange
	ctx := SetTokenInContext(context.Background(), "tok-123")

	// Act
	token, ok := TokenFromContext(ctx)

	// Assert
	assert.True(t, ok)
	assert.Equal(t, "tok-123", token)

	_, ok = TokenFromContext(context.Background())
	assert.False(t, ok)
}

func TestUserContext_RoundTrip(t *testing.T) {
	// Arrange
	user := &UserContext{UserID: "user-1", SpaceID: "space-1"}
	ctx := SetUserInContext(context.Background(), user)

	// Act
	got, err := GetUserFromContext(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
