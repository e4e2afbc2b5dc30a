// Package snippets is the HTTP client for the SnipCity snippets API.
//
// ENDPOINTS (relative to API_BASE_URL):
//
//	POST  /snippets                         → create
//	PATCH /snippets/{id}                    → update
//	GET   /snippets/{id}                    → fetch one
//	GET   /snippets?page=&limit=&scope=     → one page of a listing
//
// AUTHENTICATION:
// Every request goes through an oauth2.Transport. Its TokenSource reads the
// session store on each call, so a sign-in or sign-out takes effect on the
// very next request without rebuilding the client. When there is no token
// the transport fails before dialling and the caller gets
// apperror.ErrUnauthorized.
//
// ERRORS:
// Every method returns an *apperror.AppError (wrapped) on failure:
//
//	401                  → ErrUnauthorized
//	404                  → ErrNotFound
//	other non-2xx        → ErrRemote with the server's message and the status
//	no response at all   → ErrNetwork
//	2xx, undecodable     → ErrRemote
//
// Nothing is retried. A POST that timed out may or may not have created the
// snippet, and only the user can decide whether to submit again.
package snippets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/session"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Options tunes a Client. Zero values fall back to sensible defaults.
type Options struct {
	PageLimit int           // default page size for ListPage; 20 when zero
	Timeout   time.Duration // whole-request timeout; none when zero
	Base      http.RoundTripper
}

// Client talks to the snippets API on behalf of the signed-in user.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	pageLimit int
	logger    *slog.Logger
}

// NewClient builds a Client for baseURL (e.g. "http://localhost:3000/api/vscode").
func NewClient(baseURL string, store session.Store, opts Options, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("snippets: parsing API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("snippets: API base URL %q must be absolute", baseURL)
	}

	if opts.PageLimit <= 0 {
		opts.PageLimit = 20
	}
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Transport: &oauth2.Transport{
				Source: &sessionTokenSource{store: store, now: time.Now},
				Base:   base,
			},
			Timeout: opts.Timeout,
		},
		pageLimit: opts.PageLimit,
		logger:    logger,
	}, nil
}

// PageLimit is the page size ListPage asks for.
func (c *Client) PageLimit() int {
	return c.pageLimit
}

// Create submits a new snippet and returns it as stored by the server.
func (c *Client) Create(ctx context.Context, payload model.SnippetPayload) (*model.Snippet, error) {
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var created model.Snippet
	if err := c.do(ctx, http.MethodPost, "/snippets", nil, payload, &created); err != nil {
		return nil, fmt.Errorf("snippets: creating snippet: %w", err)
	}
	return &created, nil
}

// Update replaces the editable fields of snippet id.
func (c *Client) Update(ctx context.Context, id string, payload model.SnippetPayload) (*model.Snippet, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	var updated model.Snippet
	if err := c.do(ctx, http.MethodPatch, "/snippets/"+url.PathEscape(id), nil, payload, &updated); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("snippets: updating snippet %s: %w", id, err)
	}
	return &updated, nil
}

// GetByID fetches a single snippet.
func (c *Client) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var s model.Snippet
	if err := c.do(ctx, http.MethodGet, "/snippets/"+url.PathEscape(id), nil, nil, &s); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("snippets: fetching snippet %s: %w", id, err)
	}
	return &s, nil
}

// checkID rejects ids that would not stay a single path segment once
// joined onto the base URL.
func checkID(id string) error {
	switch {
	case id == "":
		return apperror.ValidationFailed("id", "snippet id is required")
	case id == "." || id == ".." || strings.Contains(id, "/"):
		return apperror.ValidationFailed("id", fmt.Sprintf("%q is not a snippet id", id))
	}
	return nil
}

// List fetches one page of snippets in the given scope. page is 1-based.
func (c *Client) List(ctx context.Context, page, limit int, scope model.Scope) (*model.PaginatedResult, error) {
	if page < 1 {
		return nil, apperror.ValidationFailed("page", "page must be at least 1")
	}
	if limit < 1 {
		return nil, apperror.ValidationFailed("limit", "limit must be at least 1")
	}
	if _, err := model.ParseScope(string(scope)); err != nil {
		return nil, apperror.ValidationFailed("scope", err.Error())
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("scope", string(scope))

	var result model.PaginatedResult
	if err := c.do(ctx, http.MethodGet, "/snippets", query, nil, &result); err != nil {
		return nil, fmt.Errorf("snippets: listing page %d: %w", page, err)
	}
	if result.Snippets == nil {
		result.Snippets = []model.Snippet{}
	}
	return &result, nil
}

// ListPage is List with the client's configured page size.
// It is the shape listsync.Lister expects.
func (c *Client) ListPage(ctx context.Context, page int, scope model.Scope) (*model.PaginatedResult, error) {
	return c.List(ctx, page, c.pageLimit, scope)
}

// do performs one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	// path arrives with its segments already escaped; JoinPath keeps them.
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// The token source reports a missing or expired session as an
		// *apperror.AppError; everything else is the network's fault.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		c.logger.Debug("api request failed",
			slog.String("method", method),
			slog.String("path", u.Path),
			slog.String("error", err.Error()),
		)
		return apperror.Network(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperror.AppError{
			Err:     apperror.ErrRemote,
			Message: "the server sent a response the client could not read",
			Status:  resp.StatusCode,
			Cause:   err,
		}
	}
	return nil
}

// errorBody is the JSON error envelope. Depending on the route the server
// uses either field.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// errorFromResponse maps a non-2xx response onto the error taxonomy.
func errorFromResponse(resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &eb)

	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if msg == "" {
			msg = "your session is no longer valid, please sign in again"
		}
		return apperror.Unauthorized(msg)
	case http.StatusNotFound:
		if msg == "" {
			msg = http.StatusText(http.StatusNotFound)
		}
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: msg, Status: http.StatusNotFound}
	default:
		return apperror.Remote(resp.StatusCode, msg)
	}
}
