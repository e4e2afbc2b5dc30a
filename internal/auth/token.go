// Package auth implements the client side of SnipCity sign-in.
//
// SIGN-IN FLOW OVERVIEW:
//  1. The client starts a loopback HTTP listener on 127.0.0.1 and mints a
//     random state value
//  2. It opens the browser at WEB_BASE_URL/signin/vscode with the listener's
//     callback URL and the state
//  3. The user signs in on the website (Google or GitHub, the website's job)
//  4. The website redirects the browser to the callback with token, and
//     usually email and id
//  5. The callback verifies the state, hands the credentials to the Service,
//     which persists them in the session store
//
// The token is opaque to the protocol. When it happens to be a JWT (it is,
// today) Inspect can read its claims to fill in a missing user id or email
// and to notice expiry locally, but the client never VERIFIES the signature;
// only the API can do that, and it does on every request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect for tokens that are not parseable JWTs.
// Callers treat it as "no extra information", never as a failure.
var ErrNotJWT = errors.New("auth: token is not a JWT")

// Claims is what the client can learn from a token without the server.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time // zero when the token carries no "exp"
}

// Expired reports whether the token's expiry is at or before now.
// Tokens without an expiry never expire locally.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// tokenClaims is the JWT payload the website issues. The user id lives in
// "sub" for newer tokens and in a custom "id" claim for older ones.
type tokenClaims struct {
	jwt.RegisteredClaims
	LegacyID string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Inspect decodes a token's claims WITHOUT verifying its signature.
//
// WHY UNVERIFIED?
// The client does not hold the server's signing key and has no reason to:
// a forged token gains nothing locally, since every API call is checked by the
// server. The claims are only used for display and for skipping requests
// that would certainly fail with 401.
func Inspect(token string) (Claims, error) {
	parser := jwt.NewParser()

	var c tokenClaims
	if _, _, err := parser.ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	claims := Claims{
		UserID: c.Subject,
		Email:  c.Email,
	}
	if claims.UserID == "" {
		claims.UserID = c.LegacyID
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims, nil
}
