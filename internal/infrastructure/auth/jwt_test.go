package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grndstats/backend/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.AdminConfig{
		JWTSecret:  testSecret,
		Issuer:     "test-issuer",
		Expiration: 15 * time.Minute,
	})
}

func TestNewJWTService(t *testing.T) {
	svc := newTestJWTService()

	assert.True(t, svc.Enabled())
	assert.Equal(t, []byte(testSecret), svc.secret)
	assert.Equal(t, "test-issuer", svc.issuer)
	assert.Equal(t, 15*time.Minute, svc.expiration)

	assert.False(t, NewJWTService(config.AdminConfig{}).Enabled())
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestJWTService()

	issued, err := svc.Issue("ops", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 5*time.Second)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.GetRemainingTTL(), 14*time.Minute)
}

func TestIssue_CustomTTL(t *testing.T) {
	svc := newTestJWTService()

	issued, err := svc.Issue("ops", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)
}

func TestIssue_UniqueIDs(t *testing.T) {
	svc := newTestJWTService()

	a, err := svc.Issue("ops", 0)
	require.NoError(t, err)
	b, err := svc.Issue("ops", 0)
	require.NoError(t, err)

	ca, err := svc.Validate(a.Token)
	require.NoError(t, err)
	cb, err := svc.Validate(b.Token)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := svc.Issue("ops", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	issued, err := svc.Issue("ops", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(issued.Token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidate_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.Validate("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	other := NewJWTService(config.AdminConfig{
		JWTSecret:  "another-secret-key-of-32-characters",
		Issuer:     "test-issuer",
		Expiration: time.Minute,
	})
	issued, err := other.Issue("ops", 0)
	require.NoError(t, err)

	_, err = newTestJWTService().Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.AdminConfig{
		JWTSecret:  testSecret,
		Issuer:     "someone-else",
		Expiration: time.Minute,
	})
	issued, err := other.Issue("ops", 0)
	require.NoError(t, err)

	_, err = newTestJWTService().Validate(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_MissingAdminRole(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Audience:  jwt.ClaimStrings{"test-issuer"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: "viewer",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Audience:  jwt.ClaimStrings{"test-issuer"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Role: RoleAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMissingSecret(t *testing.T) {
	svc := NewJWTService(config.AdminConfig{Issuer: "x"})

	_, err := svc.Issue("ops", 0)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = svc.Validate("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
