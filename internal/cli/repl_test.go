package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/ui"
)

// fakeExec records the intents the REPL dispatches.
type fakeExec struct {
	intents  []ui.Intent
	reported []error
	whoamis  int
}

func (f *fakeExec) record(in ui.Intent) error { f.intents = append(f.intents, in); return nil }

func (f *fakeExec) HandleToggleMode(_ context.Context, in ui.ToggleMode) error    { return f.record(in) }
func (f *fakeExec) HandleRefresh(_ context.Context, in ui.RefreshSnippets) error  { return f.record(in) }
func (f *fakeExec) HandleLoadMore(_ context.Context, in ui.LoadMore) error        { return f.record(in) }
func (f *fakeExec) HandleCopy(_ context.Context, in ui.Copy) error                { return f.record(in) }
func (f *fakeExec) HandleOpenSnippet(_ context.Context, in ui.OpenSnippet) error  { return f.record(in) }
func (f *fakeExec) HandleAddSnippet(_ context.Context, in ui.AddSnippet) error    { return f.record(in) }
func (f *fakeExec) HandleEditSnippet(_ context.Context, in ui.EditSnippet) error  { return f.record(in) }
func (f *fakeExec) HandleViewOnWeb(_ context.Context, in ui.ViewOnWeb) error      { return f.record(in) }
func (f *fakeExec) HandleSignIn(_ context.Context, in ui.SignIn) error            { return f.record(in) }
func (f *fakeExec) HandleSignOut(_ context.Context, in ui.SignOut) error          { return f.record(in) }
func (f *fakeExec) HandleResync(_ context.Context, in ui.Resync) error            { return f.record(in) }
func (f *fakeExec) whoami(context.Context) error                                  { f.whoamis++; return nil }
func (f *fakeExec) report(err error)                                              { f.reported = append(f.reported, err) }
func (f *fakeExec) status() string                                                { return "all" }

// resolve knows a two-item list: #1 is "id-1", #2 is "id-2".
func (f *fakeExec) resolve(ref string) (string, error) {
	switch ref {
	case "":
		return "", apperror.ValidationFailed("id", "which snippet?")
	case "1":
		return "id-1", nil
	case "2":
		return "id-2", nil
	case "9":
		return "", apperror.ValidationFailed("id", "there is no snippet #9 in the list")
	}
	return ref, nil
}

func runScript(t *testing.T, exec execIface, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, runREPL(context.Background(), exec, reader, &out))
	return out.String()
}

func TestRunREPL_ParsesCommands(t *testing.T) {
	exec := &fakeExec{}

	out := runScript(t, exec,
		"help",
		"list",
		"mine",
		"all",
		"more",
		"show 2",
		"copy abc123",
		"web 1",
		"edit 1",
		"create",
		"signin",
		"signin tok-123",
		"whoami",
		"signout",
		"refresh",
		"",
		"exit",
		"list",
	)

	assert.Equal(t, []ui.Intent{
		ui.RefreshSnippets{},
		ui.ToggleMode{Mode: model.ScopeMine},
		ui.ToggleMode{Mode: model.ScopeAll},
		ui.LoadMore{},
		ui.OpenSnippet{ID: "id-2"},
		ui.Copy{ID: "abc123"},
		ui.ViewOnWeb{ID: "id-1"},
		ui.EditSnippet{ID: "id-1"},
		ui.AddSnippet{},
		ui.SignIn{},
		ui.SignIn{Token: "tok-123"},
		ui.SignOut{},
		ui.RefreshSnippets{},
	}, exec.intents)
	assert.Equal(t, 1, exec.whoamis)
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "Bye!")
	assert.Empty(t, exec.reported)
}

func TestRunREPL_BadReferencesAreReported(t *testing.T) {
	exec := &fakeExec{}

	runScript(t, exec, "show", "copy 9")

	assert.Empty(t, exec.intents)
	require.Len(t, exec.reported, 2)
	for _, err := range exec.reported {
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	}
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	exec := &fakeExec{}

	out := runScript(t, exec, "frobnicate")

	assert.Contains(t, out, `Unknown command "frobnicate"`)
	assert.Empty(t, exec.intents)
}

func TestRunREPL_EndsOnEOF(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer

	err := runREPL(context.Background(), exec, bufio.NewReader(strings.NewReader("list")), &out)

	require.NoError(t, err)
	assert.Equal(t, []ui.Intent{ui.RefreshSnippets{}}, exec.intents)
}
