package apitest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/xid"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/middleware"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// Paging limits applied by the list endpoint.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// testSecret signs every token the fake issues. It only has to be long
// enough for NewTokenService.
const testSecret = "apitest-signing-secret-not-for-production"

// failure is a canned response returned instead of serving the next request
// with a matching method.
type failure struct {
	method  string // "" matches any method
	status  int
	message string
}

// Server is the fake API. It implements http.Handler; mount it with
// httptest.NewServer.
type Server struct {
	router chi.Router
	tokens *TokenService
	logger *slog.Logger

	mu       sync.Mutex
	users    map[string]model.User
	snippets []*model.Snippet // creation order, oldest first
	failures []failure
	hits     int
}

// New builds an empty fake API.
func New(logger *slog.Logger) *Server {
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		// testSecret is a constant that satisfies the length check.
		panic(err)
	}

	s := &Server{
		tokens: tokens,
		logger: logger,
		users:  make(map[string]model.User),
	}
	s.router = s.routes()
	return s
}

// routes mirrors the real API's route table.
//
//	GET   /snippets        → handleList
//	POST  /snippets        → handleCreate
//	GET   /snippets/{id}   → handleGet
//	PATCH /snippets/{id}   → handleUpdate
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(s.countAndFail)

	r.Route("/snippets", func(r chi.Router) {
		r.Use(requireAuth(s.tokens))
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Patch("/{id}", s.handleUpdate)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Tokens exposes the signer, e.g. to mint an expired token.
func (s *Server) Tokens() *TokenService {
	return s.tokens
}

// AddUser registers a user and returns a valid one-hour token for them.
// An empty ID is filled with a fresh xid.
func (s *Server) AddUser(u model.User) string {
	if u.ID == "" {
		u.ID = xid.New().String()
	}

	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()

	token, err := s.tokens.Issue(u.ID, u.Email, time.Hour)
	if err != nil {
		panic(err)
	}
	return token
}

// AddSnippet stores a snippet as if authorID had created it and returns the
// stored copy (with its assigned id).
func (s *Server) AddSnippet(authorID string, sn model.Snippet) model.Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sn.ID == "" {
		sn.ID = xid.New().String()
	}
	sn.Author = s.author(authorID)
	stored := sn
	s.snippets = append(s.snippets, &stored)
	return stored
}

// Seed adds n public snippets titled "<prefix> 1".."<prefix> n" by authorID.
// Listing returns them newest first, so "<prefix> n" comes back first.
func (s *Server) Seed(authorID, prefix string, n int) {
	for i := 1; i <= n; i++ {
		s.AddSnippet(authorID, model.Snippet{
			Title:    prefix + " " + strconv.Itoa(i),
			Code:     "fmt.Println(" + strconv.Itoa(i) + ")",
			Language: "go",
			IsPublic: true,
		})
	}
}

// Snippet returns the stored snippet with the given id.
func (s *Server) Snippet(id string) (model.Snippet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sn := s.find(id); sn != nil {
		return *sn, true
	}
	return model.Snippet{}, false
}

// FailNext makes the next request with the given method (any method when
// empty) answer with status and message instead of being served. Calls
// queue up.
func (s *Server) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, status: status, message: message})
}

// All returns every stored snippet, oldest first.
func (s *Server) All() []model.Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Snippet, 0, len(s.snippets))
	for _, sn := range s.snippets {
		out = append(out, *sn)
	}
	return out
}

// Hits is the number of requests received so far.
func (s *Server) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *Server) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits++
		var f *failure
		for i := range s.failures {
			if m := s.failures[i].method; m == "" || m == r.Method {
				picked := s.failures[i]
				f = &picked
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if f != nil {
			writeJSON(w, f.status, errorResponse{Error: "injected", Message: f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleList serves one page.
//
// HTTP: GET /snippets?page=1&limit=20&scope=all
//
// scope=all  → public snippets plus the caller's private ones
// scope=mine → only the caller's snippets
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, apperror.ValidationFailed("page", "page must be a positive integer"))
		return
	}
	limit, err := intParam(q.Get("limit"), DefaultListLimit)
	if err != nil || limit < 1 {
		writeError(w, apperror.ValidationFailed("limit", "limit must be a positive integer"))
		return
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	scope := model.ScopeAll
	if raw := q.Get("scope"); raw != "" {
		if scope, err = model.ParseScope(raw); err != nil {
			writeError(w, apperror.ValidationFailed("scope", err.Error()))
			return
		}
	}

	s.mu.Lock()
	var visible []model.Snippet
	for i := len(s.snippets) - 1; i >= 0; i-- {
		sn := s.snippets[i]
		owned := sn.OwnedBy(userID)
		if owned || (scope == model.ScopeAll && sn.IsPublic) {
			visible = append(visible, *sn)
		}
	}
	s.mu.Unlock()

	total := len(visible)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, model.PaginatedResult{
		Snippets:    append([]model.Snippet{}, visible[start:end]...),
		CurrentPage: page,
		HasNextPage: end < total,
		TotalItems:  total,
		TotalPages:  (total + limit - 1) / limit,
	})
}

// handleCreate stores a new snippet owned by the caller.
//
// HTTP: POST /snippets
// Request body: SnippetPayload
// Response: 201 Created with the stored snippet
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	created := s.AddSnippet(userIDFromContext(r.Context()), model.Snippet{
		Title:       payload.Title,
		Description: payload.Description,
		Code:        payload.Code,
		Language:    payload.Language,
		IsPublic:    payload.IsPublic,
		Tags:        payload.Tags,
	})

	writeJSON(w, http.StatusCreated, created)
}

// handleGet returns one snippet. Someone else's private snippet is reported
// as missing, not forbidden, so ids cannot be probed.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := userIDFromContext(r.Context())

	s.mu.Lock()
	sn := s.find(id)
	var out model.Snippet
	if sn != nil && (sn.IsPublic || sn.OwnedBy(userID)) {
		out = *sn
	}
	s.mu.Unlock()

	if out.ID == "" {
		writeError(w, apperror.NotFound("snippet", id))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpdate replaces the editable fields of the caller's own snippet.
//
// HTTP: PATCH /snippets/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := userIDFromContext(r.Context())

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	sn := s.find(id)
	if sn == nil {
		s.mu.Unlock()
		writeError(w, apperror.NotFound("snippet", id))
		return
	}
	if !sn.OwnedBy(userID) {
		s.mu.Unlock()
		writeError(w, errForbidden)
		return
	}
	sn.Title = payload.Title
	sn.Description = payload.Description
	sn.Code = payload.Code
	sn.Language = payload.Language
	sn.IsPublic = payload.IsPublic
	sn.Tags = payload.Tags
	out := *sn
	s.mu.Unlock()

	s.logger.Debug("apitest: snippet updated", slog.String("id", id))
	writeJSON(w, http.StatusOK, out)
}

// decodePayload parses and validates a create/update body, writing the 400
// itself when it fails.
func decodePayload(w http.ResponseWriter, r *http.Request) (model.SnippetPayload, bool) {
	var p model.SnippetPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "Invalid JSON in request body",
		})
		return p, false
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		writeError(w, err)
		return p, false
	}
	return p, true
}

// find must be called with s.mu held.
func (s *Server) find(id string) *model.Snippet {
	for _, sn := range s.snippets {
		if sn.ID == id {
			return sn
		}
	}
	return nil
}

// author must be called with s.mu held.
func (s *Server) author(id string) model.User {
	if u, ok := s.users[id]; ok {
		return u
	}
	return model.User{ID: id}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
