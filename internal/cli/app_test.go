package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apitest"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/auth"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/listsync"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/session"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/snippets"
)

const testWeb = "https://snipcity.test"

// harness wires a real App to the fake API, with the clipboard, browser and
// terminal stubbed out.
type harness struct {
	api       *apitest.Server
	apiURL    string
	store     *session.SQLiteStore
	token     string // a valid token for user "me"
	clipboard string
	opened    []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := apitest.New(logger)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := session.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := &harness{
		api:    api,
		apiURL: srv.URL,
		store:  store,
		token: api.AddUser(model.User{ID: "me", Username: "ada", Email: "ada@example.com"}),
	}
	api.AddUser(model.User{ID: "them", Username: "grace"})

	origClip, origOpen, origSize := writeClipboard, openBrowser, getTermSize
	writeClipboard = func(s string) error { h.clipboard = s; return nil }
	openBrowser = func(u string) error { h.opened = append(h.opened, u); return nil }
	getTermSize = func(int) (int, int, error) { return 0, 0, errors.New("not a terminal") }
	t.Cleanup(func() { writeClipboard, openBrowser, getTermSize = origClip, origOpen, origSize })

	return h
}

// run executes the script against a fresh App and returns everything printed.
func (h *harness) run(t *testing.T, lines ...string) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := snippets.NewClient(h.apiURL, h.store, snippets.Options{PageLimit: 20, Timeout: 5 * time.Second}, logger)
	require.NoError(t, err)

	authSvc := auth.NewService(h.store, auth.ServiceConfig{
		WebBaseURL:   testWeb,
		CallbackAddr: "127.0.0.1:0",
		Timeout:      time.Second,
	}, func(string) error { return nil }, logger)

	var out strings.Builder
	app := NewApp(Deps{
		Sync:       listsync.New(client, model.ScopeAll, logger),
		API:        client,
		Auth:       authSvc,
		WebBaseURL: testWeb,
		In:         strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:        &out,
		Logger:     logger,
	})
	require.NoError(t, app.Run(context.Background()))
	return out.String()
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.SetCredentials(context.Background(), h.token, "me", "ada@example.com"))
}

func TestApp_SignedOutStartPromptsForSignIn(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, "whoami")

	assert.Contains(t, out, "you are not signed in")
	assert.Contains(t, out, "Type `signin` to sign in.")
	assert.Zero(t, h.api.Hits(), "no request may be sent without a token")
}

func TestApp_SignInWithTokenThenBrowse(t *testing.T) {
	h := newHarness(t)
	h.api.Seed("them", "Snippet", 25)
	h.api.AddSnippet("me", model.Snippet{Title: "Private thing", Language: "go"})

	out := h.run(t, "signin "+h.token, "more", "more", "mine")

	assert.Contains(t, out, "Signed in as ada@example.com (id me).")
	assert.Contains(t, out, "All snippets")
	assert.Contains(t, out, "  1. Private thing  [go]")
	assert.Contains(t, out, " 21. Snippet 6")
	assert.Contains(t, out, " 26. Snippet 1")
	assert.Contains(t, out, "(26 snippets)")
	assert.Contains(t, out, "No more snippets.")
	assert.Contains(t, out, "My snippets")
	assert.Contains(t, out, "(1 snippets)")

	sess, err := h.store.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "me", sess.UserID)
}

func TestApp_ShowCopyAndWeb(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	s := h.api.AddSnippet("them", model.Snippet{
		Title: "Hello", Language: "go", IsPublic: true,
		Code: "fmt.Println(\"hello\")", Tags: model.Tags{"basics"},
	})

	out := h.run(t, "show 1", "copy 1", "web "+s.ID)

	assert.Contains(t, out, "go · by grace · ▲0 ▼0")
	assert.Contains(t, out, "#basics")
	assert.Contains(t, out, `fmt.Println("hello")`)
	assert.Contains(t, out, `Copied snippet "Hello" to clipboard.`)
	assert.Equal(t, `fmt.Println("hello")`, h.clipboard)
	assert.Equal(t, []string{testWeb + "/snippets/" + s.ID}, h.opened)
}

func TestApp_CreateResyncsList(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.Seed("them", "Snippet", 2)

	out := h.run(t,
		"create",
		"Retry with backoff", // title
		"",                   // description
		"go",                 // language
		"y",                  // public
		"retry, net",         // tags
		"for i := 0; i < 3; i++ {",
		"\tif err := call(); err == nil {",
		"\t\treturn nil",
		"\t}",
		"}",
		".",
	)

	assert.Contains(t, out, `Created snippet "Retry with backoff".`)
	assert.Contains(t, out, "  1. Retry with backoff  [go]")

	stored, ok := h.api.Snippet(findID(t, h, "Retry with backoff"))
	require.True(t, ok)
	assert.Equal(t, "me", stored.Author.ID)
	assert.Equal(t, model.Tags{"retry", "net"}, stored.Tags)
	assert.Equal(t, "for i := 0; i < 3; i++ {\n\tif err := call(); err == nil {\n\t\treturn nil\n\t}\n}", stored.Code)
}

func TestApp_FailedCreateKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.api.FailNext(http.MethodPost, http.StatusInternalServerError, "database on fire")

	out := h.run(t,
		"create", "Draft title", "", "go", "y", "", "x := 1", ".",
		"create", "", "", "", "", "", ".",
	)

	assert.Contains(t, out, "database on fire")
	assert.Contains(t, out, `Resuming your unsaved draft "Draft title".`)
	assert.Contains(t, out, `Created snippet "Draft title".`)

	stored, ok := h.api.Snippet(findID(t, h, "Draft title"))
	require.True(t, ok)
	assert.Equal(t, "x := 1", stored.Code)
}

func TestApp_EditOwnSnippet(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	mine := h.api.AddSnippet("me", model.Snippet{Title: "Old", Language: "go", Code: "old()", IsPublic: true})

	out := h.run(t, "edit 1", "New", "", "", "", "", ".")

	assert.Contains(t, out, `Updated snippet "New".`)
	assert.Contains(t, out, "  1. New  [go]")
	stored, _ := h.api.Snippet(mine.ID)
	assert.Equal(t, "New", stored.Title)
	assert.Equal(t, "old()", stored.Code)
}

func TestApp_EditSomeoneElsesSnippetAsksFirst(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	theirs := h.api.AddSnippet("them", model.Snippet{Title: "Theirs", Language: "go", IsPublic: true})

	out := h.run(t, "edit 1", "n")

	assert.Contains(t, out, `"Theirs" belongs to grace, not you.`)
	assert.NotContains(t, out, "Updated snippet")
	stored, _ := h.api.Snippet(theirs.ID)
	assert.Equal(t, "Theirs", stored.Title)
}

func TestApp_EditSomeoneElsesSnippetServerRefuses(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.AddSnippet("them", model.Snippet{Title: "Theirs", Language: "go", IsPublic: true})

	out := h.run(t, "edit 1", "y", "Mine now", "", "", "", "", ".")

	assert.Contains(t, out, "you can only edit your own snippets")
}

func TestApp_SignOut(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	out := h.run(t, "signout", "whoami")

	assert.Contains(t, out, "Signed out.")
	assert.Contains(t, out, "not signed in")
	assert.False(t, h.store.IsAuthenticated(context.Background()))
}

func TestApp_ToggleToSameMode(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	out := h.run(t, "all")

	assert.Contains(t, out, "Already showing all snippets.")
	assert.Equal(t, 1, h.api.Hits())
}

// findID looks a snippet up by title through the fake API's own listing.
func findID(t *testing.T, h *harness, title string) string {
	t.Helper()
	for _, s := range h.api.All() {
		if s.Title == title {
			return s.ID
		}
	}
	t.Fatalf("no snippet titled %q", title)
	return ""
}
