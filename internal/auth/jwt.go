// Package auth provides password hashing and the signed session token used to
// remember a logged-in admin.
//
// SESSION FLOW:
//  1. POST /api/auth/login checks username + password (bcrypt) and that the
//     admin is active
//  2. The server signs a JWT whose subject is the admin id and stores it in
//     the HttpOnly "session" cookie
//  3. The admin page and /api/auth/me read the cookie, validate the JWT and
//     look the admin up again, so deactivation takes effect immediately
//  4. POST /api/auth/logout clears the cookie
//
// WHY JWT?
// The token is self-verifying: its HMAC signature proves the server issued
// it, so no session table is needed. The cost is that a token cannot be
// revoked before it expires, which is why the admin record is re-read on use.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"42","jti":"cq1f...","iss":"whispering-network","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "whispering-network"

// DefaultSessionTTL is used when NewTokenService is given a zero ttl.
const DefaultSessionTTL = 12 * time.Hour

// TokenService signs and validates session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports how long issued tokens stay valid. The session cookie uses
// the same lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue signs a token for adminID that expires after the service TTL.
func (s *TokenService) Issue(adminID int64) (string, error) {
	return s.IssueWithDuration(adminID, s.ttl)
}

// IssueWithDuration signs a token with a custom lifetime. Tests use it to
// produce already-expired tokens.
func (s *TokenService) IssueWithDuration(adminID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(adminID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the admin id it was issued for.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Token is not expired
//   - Issuer is "whispering-network"
//   - Algorithm is HS256, so a token signed with "none" is rejected
func (s *TokenService) Validate(tokenStr string) (int64, error) {
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
			return 0, fmt.Errorf("auth: token expired")
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid token claims")
	}

	adminID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || adminID <= 0 {
		return 0, fmt.Errorf("auth: token has no valid subject")
	}
	return adminID, nil
}
