package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "dataridge/internal/errors"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

// AccessClaims is the claim set of a bearer access token.
type AccessClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set of a refresh token.
type RefreshClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access and refresh tokens with independent secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewTokenIssuer creates a token issuer. The two secrets must differ in production.
func NewTokenIssuer(accessSecret, refreshSecret string) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// IssueAccessToken generates a new access token for the user.
func (s *TokenIssuer) IssueAccessToken(userID uuid.UUID, email string) (string, error) {
	claims := &AccessClaims{
		UserID:           userID,
		Email:            email,
		RegisteredClaims: s.registered(userID, AccessTokenExpiry),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken generates a new refresh token carrying only the user id.
func (s *TokenIssuer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	registered := s.registered(userID, RefreshTokenExpiry)
	registered.ID = uuid.NewString()
	claims := &RefreshClaims{
		UserID:           userID,
		RegisteredClaims: registered,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return token, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *TokenIssuer) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (s *TokenIssuer) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenIssuer) registered(userID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

// parse verifies signature and expiry. A token maps to ExpiredToken only when
// expiry is its sole defect; a forged token that is also expired is InvalidToken.
func parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors == jwt.ValidationErrorExpired {
			return apperrors.ExpiredToken(err)
		}
		return apperrors.InvalidToken(err)
	}
	if !token.Valid {
		return apperrors.InvalidToken(errors.New("token not valid"))
	}
	return nil
}
