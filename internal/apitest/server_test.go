package apitest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

func newTestAPI(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	api := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func call(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts, err := NewTokenService(testSecret)
	require.NoError(t, err)

	token, err := ts.Issue("user-1", "ada@example.com", time.Minute)
	require.NoError(t, err)

	userID, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_Rejects(t *testing.T) {
	ts, _ := NewTokenService(testSecret)
	other, _ := NewTokenService("a-completely-different-secret")

	expired, _ := ts.Issue("user-1", "", -time.Minute)
	foreign, _ := other.Issue("user-1", "", time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", foreign},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	assert.Error(t, err)
}

func TestServer_RequiresBearer(t *testing.T) {
	_, srv := newTestAPI(t)

	resp := call(t, http.MethodGet, srv.URL+"/snippets", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, http.MethodGet, srv.URL+"/snippets", "nonsense", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_ListPagesNewestFirst(t *testing.T) {
	api, srv := newTestAPI(t)
	token := api.AddUser(model.User{ID: "u1"})
	api.Seed("u1", "Snippet", 25)

	resp := call(t, http.MethodGet, srv.URL+"/snippets?page=2&limit=20", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page model.PaginatedResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Snippets, 5)
	assert.Equal(t, "Snippet 5", page.Snippets[0].Title)
	assert.False(t, page.HasNextPage)
	assert.Equal(t, 25, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
}

func TestServer_ScopeMine(t *testing.T) {
	api, srv := newTestAPI(t)
	token := api.AddUser(model.User{ID: "u1"})
	api.AddUser(model.User{ID: "u2"})
	api.Seed("u2", "Theirs", 3)
	api.AddSnippet("u1", model.Snippet{Title: "Mine", Language: "go"})

	resp := call(t, http.MethodGet, srv.URL+"/snippets?scope=mine", token, "")
	var page model.PaginatedResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Snippets, 1)
	assert.Equal(t, "Mine", page.Snippets[0].Title)
}

func TestServer_UpdateOthersSnippetForbidden(t *testing.T) {
	api, srv := newTestAPI(t)
	token := api.AddUser(model.User{ID: "u1"})
	theirs := api.AddSnippet("u2", model.Snippet{Title: "Theirs", Language: "go", IsPublic: true})

	resp := call(t, http.MethodPatch, srv.URL+"/snippets/"+theirs.ID, token,
		`{"title":"Hijacked","language":"go","code":""}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	stored, _ := api.Snippet(theirs.ID)
	assert.Equal(t, "Theirs", stored.Title)
}

func TestServer_CreateValidates(t *testing.T) {
	api, srv := newTestAPI(t)
	token := api.AddUser(model.User{ID: "u1"})

	resp := call(t, http.MethodPost, srv.URL+"/snippets", token, `{"title":"  ","language":"go"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error)
}

func TestServer_FailNext(t *testing.T) {
	api, srv := newTestAPI(t)
	token := api.AddUser(model.User{ID: "u1"})
	api.FailNext(http.MethodGet, http.StatusInternalServerError, "database on fire")

	resp := call(t, http.MethodGet, srv.URL+"/snippets", token, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = call(t, http.MethodGet, srv.URL+"/snippets", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, api.Hits())
}
