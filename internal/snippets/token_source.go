package snippets

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/auth"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/session"
)

// sessionTokenSource adapts a session.Store to oauth2.TokenSource.
//
// The website issues long-lived bearer tokens and there is no refresh
// endpoint, so this source never refreshes anything: it hands out whatever
// the store holds, or refuses.
type sessionTokenSource struct {
	store session.Store
	now   func() time.Time
}

var _ oauth2.TokenSource = (*sessionTokenSource)(nil)

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	// oauth2.TokenSource has no context parameter; reading a local SQLite
	// row does not need one.
	raw, err := s.store.Token(context.Background())
	if err != nil {
		return nil, apperror.SessionStore(err)
	}
	if raw == "" {
		return nil, apperror.Unauthorized("you are not signed in")
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}

	claims, err := auth.Inspect(raw)
	switch {
	case err == nil:
		if claims.Expired(s.now()) {
			return nil, apperror.Unauthorized("your session has expired, please sign in again")
		}
		tok.Expiry = claims.ExpiresAt
	case errors.Is(err, auth.ErrNotJWT):
		// opaque token: the server is the only judge
	default:
		return nil, err
	}
	return tok, nil
}
