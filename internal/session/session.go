// Package session persists the signed-in user's credentials.
//
// WHAT IS A SESSION HERE?
// The SnipCity website hands the client an opaque bearer token (plus, usually,
// the user's id and email) at the end of the browser sign-in. That triple is
// all the client knows about "who am I". It must survive restarts, so it is
// written to a small SQLite database instead of being kept in memory.
//
// CONCURRENCY:
// The store is not contended (one interactive user, one process) so the
// only guarantee is last-write-wins. SetCredentials still writes inside a
// transaction so nobody can ever observe a token paired with the previous
// user's id.
package session

import (
	"context"
)

// Session is the persisted credential triple.
// A zero Token means "signed out"; UserID and Email are optional.
type Session struct {
	Token  string
	UserID string
	Email  string
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store is the contract the rest of the client depends on.
//
// Accept interfaces, return structs: the API client, the sign-in flow and the
// REPL all take a Store, while New returns the concrete *SQLiteStore.
type Store interface {
	// Token returns the bearer token, or "" when signed out.
	Token(ctx context.Context) (string, error)
	// Session returns the full credential triple.
	Session(ctx context.Context) (Session, error)
	// SetCredentials replaces the stored session. Empty userID/email are
	// stored as absent (they do not keep a previous user's values).
	SetCredentials(ctx context.Context, token, userID, email string) error
	// ClearCredentials signs the user out.
	ClearCredentials(ctx context.Context) error
	// IsAuthenticated is Token() != "". Read errors count as signed out.
	IsAuthenticated(ctx context.Context) bool
}
