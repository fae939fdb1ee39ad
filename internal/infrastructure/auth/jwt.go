package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/grndstats/backend/internal/infrastructure/config"
)

// RoleAdmin is the only role the API issues
const RoleAdmin = "admin"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrNotAdmin         = errors.New("token does not carry the admin role")
	ErrMissingSecret    = errors.New("admin jwt secret is not configured")
)

// Claims represents the admin token claims
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssuedToken is a signed admin token
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // Bearer
}

// JWTService issues and validates admin tokens for the maintenance endpoints
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.AdminConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
		now:        time.Now,
	}
}

// Enabled reports whether a signing secret is configured
func (s *JWTService) Enabled() bool {
	return len(s.secret) > 0
}

// Issue signs an admin token for subject. ttl <= 0 uses the configured
// expiration.
func (s *JWTService) Issue(subject string, ttl time.Duration) (*IssuedToken, error) {
	if !s.Enabled() {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = s.expiration
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: RoleAdmin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: now.Add(ttl), TokenType: "Bearer"}, nil
}

// Validate parses tokenString and requires the admin role
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
