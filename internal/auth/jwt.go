// Package auth provides the admin's access tokens, password hashing and the
// bearer gate that protects mutating routes.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The admin UI POSTs username + password (form-encoded) to /api/auth/login
//  2. The server verifies the bcrypt hash and issues a signed access token
//  3. The UI sends "Authorization: Bearer <token>" on every mutating request
//  4. RequireAuth verifies the token, loads the credential and puts it in the
//     request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless - the server doesn't need to store session
// data. All the information needed (username, expiry) is inside the signed token.
// The signature ensures nobody can tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"admin@medassoc.com","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The subject is the username, not the record id, so tokens keep working when
// the same credential is re-seeded into a different store.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required in the "iss" claim.
const Issuer = "medassoc"

// MinSecretLength is the shortest configured secret NewTokenService accepts.
const MinSecretLength = 16

// ErrInvalidToken is returned by Verify for every failure. The cause (bad
// signature, expiry, wrong algorithm) is deliberately not exposed.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens, and the
// lifetime stamped into every token it issues.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService.
//
// An empty secret means "generate one": 32 random bytes that live as long as
// the process. Tokens then stop verifying after a restart, which is the
// documented behaviour when SECRET_KEY is unset. A configured secret shorter
// than MinSecretLength is rejected.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}

	key := []byte(secret)
	if secret == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("auth: generating secret: %w", err)
		}
	} else if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: secret must be at least %d characters", MinSecretLength)
	}

	return &TokenService{secret: key, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of tokens from Issue.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for username with the configured lifetime.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple - good for a single-process deployment
func (s *TokenService) Issue(username string) (string, error) {
	return s.IssueWithTTL(username, s.ttl)
}

// IssueWithTTL creates a token with a custom lifetime.
// Used in tests to mint already-expired tokens.
func (s *TokenService) IssueWithTTL(username string, ttl time.Duration) (string, error) {
	if username == "" {
		return "", errors.New("auth: token subject must not be empty")
	}
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and verifies a token and returns its subject (the username).
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches "medassoc"
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
