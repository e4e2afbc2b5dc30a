// Package apitest is an in-memory stand-in for the SnipCity snippets API.
//
// It speaks the same wire format as the real server (JSON bodies, "_id"
// keys, comma-delimited tags, {"error","message"} envelopes) so the API
// client, the list synchronizer and the REPL can be tested end to end
// without a network or a database:
//
//	api := apitest.New(logger)
//	srv := httptest.NewServer(api)
//	defer srv.Close()
//
//	token := api.AddUser(model.User{ID: "u1", Username: "ada"})
//	client, _ := snippets.NewClient(srv.URL, store, snippets.Options{}, logger)
//
// Tokens are real HS256 JWTs, so everything the client does with them
// (reading "sub" and "email", noticing expiry) behaves as in production.
package apitest

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "snipcity-apitest"

// TokenService signs and checks the bearer tokens the fake API accepts.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("apitest: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims mirrors what the website puts in a token: the user id in "sub"
// plus the email, so a token-only sign-in can still learn who it is.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Issue signs a token for userID that expires after ttl.
// A negative ttl yields an already-expired token, which is handy in tests.
func (s *TokenService) Issue(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("apitest: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer and expiry and returns the user id.
//
// jwt.WithValidMethods pins HS256 so a token claiming "alg":"none" is
// rejected before the key func runs.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("apitest: token expired")
		}
		return "", fmt.Errorf("apitest: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", errors.New("apitest: invalid token claims")
	}
	return c.Subject, nil
}
