package service

import (
	"testing"
	"time"

	"eventhub/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	raw, err := tokens.Issue(model.User{ID: "user-1", Role: model.RoleAdmin})
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	tokens.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	raw, err := tokens.Issue(model.User{ID: "user-1", Role: model.RoleStudent})
	require.NoError(t, err)

	tokens.nowFunc = time.Now
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestTokenService_WrongSecret(t *testing.T) {
	raw, err := NewTokenService("secret", time.Hour).Issue(model.User{ID: "user-1", Role: model.RoleStudent})
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RequiresSubjectAndRole(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	raw, err := tokens.Issue(model.User{ID: "", Role: model.RoleStudent})
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	raw, err = tokens.Issue(model.User{ID: "user-1", Role: "root"})
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
