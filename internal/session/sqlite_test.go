package session

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens an in-memory store that disappears with the test.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmptyStoreIsSignedOut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, s.IsAuthenticated(ctx))

	sess, err := s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{}, sess)
	assert.False(t, sess.Authenticated())
}

func TestSetCredentials_AllFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCredentials(ctx, "tok-1", "user-1", "ada@example.com"))

	sess, err := s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok-1", UserID: "user-1", Email: "ada@example.com"}, sess)
	assert.True(t, s.IsAuthenticated(ctx))
}

func TestSetCredentials_TokenOnlyDropsPreviousIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCredentials(ctx, "tok-1", "user-1", "ada@example.com"))
	require.NoError(t, s.SetCredentials(ctx, "tok-2", "", ""))

	sess, err := s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok-2"}, sess)
}

func TestSetCredentials_RejectsEmptyToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCredentials(ctx, "tok-1", "user-1", ""))
	assert.Error(t, s.SetCredentials(ctx, "", "user-2", ""))

	// the failed call must not have touched the stored session
	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestClearCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCredentials(ctx, "tok-1", "user-1", "ada@example.com"))
	require.NoError(t, s.ClearCredentials(ctx))

	sess, err := s.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{}, sess)
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	first, err := New(path, logger)
	require.NoError(t, err)
	require.NoError(t, first.SetCredentials(ctx, "tok-persist", "user-9", ""))
	require.NoError(t, first.Close())

	second, err := New(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	sess, err := second.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok-persist", UserID: "user-9"}, sess)
}

func TestIsAuthenticated_ClosedStoreCountsAsSignedOut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetCredentials(ctx, "tok-1", "", ""))
	require.NoError(t, s.Close())

	assert.False(t, s.IsAuthenticated(ctx))
}
