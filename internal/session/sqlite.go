package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	// The blank import registers the pure-Go "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// Keys of the session table. One row per field keeps the schema trivial and
// lets ClearCredentials be a single DELETE.
const (
	keyToken  = "token"
	keyUserID = "user_id"
	keyEmail  = "email"
)

// compile-time check that *SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the session in a key/value table.
type SQLiteStore struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (creating if needed) the session database at dbPath.
//
// dbPath examples:
//   - "~/.config/snipcity/session.db" → persistent, survives restarts
//   - ":memory:"                      → throwaway, used by tests
//
// SINGLE CONNECTION:
// Every connection to ":memory:" gets its own empty database, so the pool is
// capped at one connection. The client never needs more.
func New(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		// 0700: the file holds a bearer token, other users have no business reading it.
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("session: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: setting WAL mode: %w", err)
	}

	s := &SQLiteStore{conn: conn, logger: logger}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database. Always defer it right after New.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating session table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, keyToken)
}

func (s *SQLiteStore) Session(ctx context.Context) (Session, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key, value FROM session`)
	if err != nil {
		return Session{}, fmt.Errorf("session: reading session: %w", err)
	}
	defer rows.Close()

	var sess Session
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, fmt.Errorf("session: scanning session row: %w", err)
		}
		switch key {
		case keyToken:
			sess.Token = value
		case keyUserID:
			sess.UserID = value
		case keyEmail:
			sess.Email = value
		}
	}
	if err := rows.Err(); err != nil {
		return Session{}, fmt.Errorf("session: iterating session rows: %w", err)
	}

	return sess, nil
}

// SetCredentials replaces the whole session in one transaction.
//
// WHY DELETE FIRST?
// Signing in as a different account with a token-only callback must not leave
// the previous account's user_id behind, so the old rows go before the new
// ones are written.
func (s *SQLiteStore) SetCredentials(ctx context.Context, token, userID, email string) error {
	if token == "" {
		return errors.New("session: token must not be empty")
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: beginning transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("session: clearing previous session: %w", err)
	}

	for _, kv := range [][2]string{{keyToken, token}, {keyUserID, userID}, {keyEmail, email}} {
		if kv[1] == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			kv[0], kv[1],
		); err != nil {
			return fmt.Errorf("session: writing %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("session: committing credentials: %w", err)
	}

	s.logger.Info("session credentials stored",
		slog.Bool("hasUserID", userID != ""),
		slog.Bool("hasEmail", email != ""),
	)
	return nil
}

func (s *SQLiteStore) ClearCredentials(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("session: clearing credentials: %w", err)
	}
	s.logger.Info("session credentials cleared")
	return nil
}

func (s *SQLiteStore) IsAuthenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	if err != nil {
		s.logger.Warn("reading session token failed", slog.String("error", err.Error()))
		return false
	}
	return token != ""
}

// get returns the value for key, or "" when the row does not exist.
func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: reading %s: %w", key, err)
	}
	return value, nil
}
