// Package auth provides session tokens, password hashing, the redirect
// allow-list and GitHub sign-in for SnipStash.
//
// SESSION TOKENS:
// A session is a row in the sessions table plus a signed HS256 JWT carried in
// an HttpOnly cookie. The JWT names the account ("sub") and the session row
// ("jti"):
//
//	{"iss":"snipstash","sub":"<account id>","jti":"<session id>","exp":...}
//
// The signature proves the token was issued by this server; the row lets a
// sign-out revoke the token before it expires. Resolving a session therefore
// needs both: Validate here, then a lookup by SessionID (see service.AuthService).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "snipstash"

// ErrTokenExpired is returned by Validate for a well-signed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies session tokens with an HMAC key.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given signing key.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: signing key must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Claims identifies the account and session a token was issued for.
type Claims struct {
	AccountID string
	SessionID string
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for sessionID owned by accountID, valid for ttl.
func (s *TokenService) Generate(accountID, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature, issuer, algorithm and expiry of tokenStr.
//
// jwt.WithValidMethods pins HS256 so a token declaring "alg":"none" (or an
// asymmetric algorithm keyed with our secret) is rejected.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" || c.ID == "" {
		return nil, errors.New("auth: token is missing subject or session id")
	}

	return &Claims{
		AccountID: c.Subject,
		SessionID: c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
