package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	apperrors "dataridge/internal/errors"
)

const (
	// RefreshCookieName is the cookie carrying the refresh token.
	RefreshCookieName = "refreshToken"
	// RefreshCookiePath restricts the cookie to the refresh endpoint.
	RefreshCookiePath = "/token/refresh"
)

var errBadCookieSignature = errors.New("refresh cookie signature mismatch")

// SessionTransport moves the refresh token through a signed HTTP-only cookie.
type SessionTransport struct {
	secret []byte
	secure bool
}

// NewSessionTransport creates a transport signing cookies with secret.
func NewSessionTransport(secret string, secure bool) *SessionTransport {
	return &SessionTransport{secret: []byte(secret), secure: secure}
}

// RefreshCookie builds the cookie that carries refreshToken.
func (t *SessionTransport) RefreshCookie(refreshToken string) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    t.sign(refreshToken),
		Path:     RefreshCookiePath,
		MaxAge:   int(RefreshTokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearedCookie expires the refresh cookie with the scope used to set it.
func (t *SessionTransport) ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// RefreshToken extracts and verifies the refresh token from the request cookie.
func (t *SessionTransport) RefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.Authentication("Refresh token missing.")
	}
	return t.unsign(cookie.Value)
}

func (t *SessionTransport) sign(value string) string {
	return value + "." + t.mac(value)
}

func (t *SessionTransport) unsign(signed string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", apperrors.InvalidToken(errBadCookieSignature)
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(t.mac(value))) {
		return "", apperrors.InvalidToken(errBadCookieSignature)
	}
	return value, nil
}

func (t *SessionTransport) mac(value string) string {
	h := hmac.New(sha256.New, t.secret)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
