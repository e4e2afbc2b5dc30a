package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/middleware"
)

// CallbackPath is where the website redirects the browser after sign-in.
const CallbackPath = "/callback"

var (
	// ErrDenied means the user cancelled or the website refused the sign-in.
	ErrDenied = errors.New("auth: sign-in was denied")
	// ErrMissingToken means the callback arrived without a token.
	ErrMissingToken = errors.New("auth: callback carried no token")
)

// Callback is what the website hands back. UserID and Email are optional.
type Callback struct {
	Token  string
	UserID string
	Email  string
}

type callbackResult struct {
	cb  Callback
	err error
}

// CallbackServer is a one-shot loopback listener for the sign-in redirect.
//
// LIFECYCLE:
//
//	srv, _ := StartCallbackServer("127.0.0.1:0", state, logger)  // random free port
//	defer srv.Close(ctx)
//	open(SignInURL(web, srv.URL(), state))
//	cb, err := srv.Wait(ctx)
//
// Only the first callback carrying the right state counts. Anything after
// that gets 409 Conflict; anything with the wrong state gets 400 and is
// ignored, so a stray or forged request cannot end the wait.
type CallbackServer struct {
	srv     *http.Server
	ln      net.Listener
	state   string
	logger  *slog.Logger
	results chan callbackResult

	mu   sync.Mutex
	done bool
}

// StartCallbackServer listens on addr and serves CallbackPath in the
// background until Close.
func StartCallbackServer(addr, state string, logger *slog.Logger) (*CallbackServer, error) {
	if state == "" {
		return nil, errors.New("auth: callback state must not be empty")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("auth: listening for sign-in callback on %s: %w", addr, err)
	}

	s := &CallbackServer{
		ln:      ln,
		state:   state,
		logger:  logger,
		results: make(chan callbackResult, 1),
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(logger))
	router.Get(CallbackPath, s.handleCallback)

	s.srv = &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("sign-in callback server stopped", slog.String("error", err.Error()))
		}
	}()

	logger.Debug("sign-in callback server listening", slog.String("addr", ln.Addr().String()))
	return s, nil
}

// URL is the absolute callback URL to pass to the website.
func (s *CallbackServer) URL() string {
	return "http://" + s.ln.Addr().String() + CallbackPath
}

// Wait blocks until a valid callback arrives or ctx ends.
func (s *CallbackServer) Wait(ctx context.Context) (Callback, error) {
	select {
	case res := <-s.results:
		return res.cb, res.err
	case <-ctx.Done():
		return Callback{}, fmt.Errorf("auth: waiting for sign-in callback: %w", ctx.Err())
	}
}

// Close stops the listener, letting an in-flight response finish.
func (s *CallbackServer) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleCallback completes the browser handoff.
//
// HTTP: GET /callback?state=...&token=...&email=...&id=...
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Refuse repeats (the state is single-use)
//  3. Honour an "error" parameter (user denied)
//  4. Require a token, deliver the credentials to Wait
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// --- Step 1: Validate CSRF state ---
	if q.Get("state") != s.state {
		s.logger.Warn("sign-in callback: state mismatch")
		http.Error(w, "invalid sign-in state", http.StatusBadRequest)
		return
	}

	// --- Step 2: single use ---
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		http.Error(w, "sign-in already completed", http.StatusConflict)
		return
	}
	s.done = true
	s.mu.Unlock()

	// --- Step 3: user denied? ---
	if errParam := q.Get("error"); errParam != "" {
		s.logger.Info("sign-in callback: denied", slog.String("error", errParam))
		s.results <- callbackResult{err: fmt.Errorf("%w: %s", ErrDenied, errParam)}
		writeText(w, http.StatusOK, "Sign-in was cancelled. You can close this tab.")
		return
	}

	// --- Step 4: deliver ---
	cb := Callback{
		Token:  q.Get("token"),
		UserID: q.Get("id"),
		Email:  q.Get("email"),
	}
	if cb.Token == "" {
		s.results <- callbackResult{err: ErrMissingToken}
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	s.results <- callbackResult{cb: cb}
	writeText(w, http.StatusOK, "Signed in to SnipCity. You can close this tab and return to your terminal.")
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}
