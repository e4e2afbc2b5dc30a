package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/session"
)

// signInPath is the website page that starts an editor sign-in.
const signInPath = "/signin/vscode"

// BrowserOpener opens a URL in the user's browser.
// main passes browser.OpenURL; tests pass a func that drives the callback.
type BrowserOpener func(url string) error

// ServiceConfig is the slice of config.Config the sign-in flow needs.
type ServiceConfig struct {
	WebBaseURL   string
	CallbackAddr string
	Timeout      time.Duration // how long SignIn waits for the browser
}

// Service orchestrates sign-in and sign-out.
//
// DEPENDENCIES (injected via NewService):
//   - store  session.Store  → where credentials end up
//   - open   BrowserOpener  → how the sign-in page is shown
//   - logger *slog.Logger
type Service struct {
	store  session.Store
	cfg    ServiceConfig
	open   BrowserOpener
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store session.Store, cfg ServiceConfig, open BrowserOpener, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		open:   open,
		logger: logger,
		now:    time.Now,
	}
}

// Identity is the signed-in user as far as the client knows.
type Identity struct {
	session.Session
	ExpiresAt time.Time // zero if unknown
}

// SignInURL builds the website link that starts the handoff.
//
// Example:
//
//	https://snipcity.dev/signin/vscode?from=cli&redirect_uri=http%3A%2F%2F127.0.0.1%3A53121%2Fcallback&state=cv37rs3pp9olc6atsptg
func SignInURL(webBaseURL, callbackURL, state string) (string, error) {
	u, err := url.Parse(strings.TrimRight(webBaseURL, "/") + signInPath)
	if err != nil {
		return "", fmt.Errorf("auth: parsing web base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("auth: web base URL %q must be absolute", webBaseURL)
	}

	q := u.Query()
	q.Set("from", "cli")
	q.Set("redirect_uri", callbackURL)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SignIn runs the full browser handoff and stores the resulting session.
//
// notify (optional) receives the sign-in URL before the browser is opened so
// the REPL can print it. If the browser cannot be launched (SSH session,
// headless box) the user can still copy the link by hand.
func (s *Service) SignIn(ctx context.Context, notify func(link string)) (session.Session, error) {
	// Generate a random, unguessable state value
	state := xid.New().String()

	srv, err := StartCallbackServer(s.cfg.CallbackAddr, state, s.logger)
	if err != nil {
		return session.Session{}, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(shutdownCtx); err != nil {
			s.logger.Warn("closing sign-in callback server", slog.String("error", err.Error()))
		}
	}()

	link, err := SignInURL(s.cfg.WebBaseURL, srv.URL(), state)
	if err != nil {
		return session.Session{}, err
	}

	if notify != nil {
		notify(link)
	}
	if err := s.open(link); err != nil {
		// Not fatal: the link was already shown to the user.
		s.logger.Warn("could not open browser", slog.String("error", err.Error()))
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	cb, err := srv.Wait(ctx)
	if err != nil {
		return session.Session{}, err
	}

	return s.Complete(ctx, cb)
}

// Complete persists credentials delivered by any channel: the loopback
// callback, or a token pasted by hand (`signin <token>` in the REPL).
//
// When the callback omits the user id or email and the token is a JWT, the
// missing fields are filled from its claims. A token that has already expired
// is refused; storing it would only produce 401s.
func (s *Service) Complete(ctx context.Context, cb Callback) (session.Session, error) {
	cb.Token = strings.TrimSpace(cb.Token)
	if cb.Token == "" {
		return session.Session{}, ErrMissingToken
	}

	claims, err := Inspect(cb.Token)
	switch {
	case err == nil:
		if claims.Expired(s.now()) {
			return session.Session{}, apperror.Unauthorized("that sign-in token has already expired, please sign in again")
		}
		if cb.UserID == "" {
			cb.UserID = claims.UserID
		}
		if cb.Email == "" {
			cb.Email = claims.Email
		}
	case errors.Is(err, ErrNotJWT):
		// opaque token: store exactly what we were given
	default:
		return session.Session{}, err
	}

	if err := s.store.SetCredentials(ctx, cb.Token, cb.UserID, cb.Email); err != nil {
		return session.Session{}, fmt.Errorf("auth: storing credentials: %w", err)
	}

	s.logger.Info("signed in", slog.String("userID", cb.UserID))
	return session.Session{Token: cb.Token, UserID: cb.UserID, Email: cb.Email}, nil
}

// SignOut forgets the stored credentials. The token itself stays valid on the
// server until it expires; the client simply stops sending it.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.store.ClearCredentials(ctx); err != nil {
		return fmt.Errorf("auth: signing out: %w", err)
	}
	return nil
}

// WhoAmI returns the stored identity. An unauthenticated store yields
// apperror.ErrUnauthorized.
func (s *Service) WhoAmI(ctx context.Context) (Identity, error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: reading session: %w", err)
	}
	if !sess.Authenticated() {
		return Identity{}, apperror.Unauthorized("not signed in")
	}

	id := Identity{Session: sess}
	if claims, err := Inspect(sess.Token); err == nil {
		id.ExpiresAt = claims.ExpiresAt
	}
	return id, nil
}
