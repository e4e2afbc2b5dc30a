package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/auth"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/listsync"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/session"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/ui"
)

// SnippetAPI is the part of the snippets client the REPL calls directly.
// Listing goes through the synchronizer instead.
type SnippetAPI interface {
	Create(ctx context.Context, payload model.SnippetPayload) (*model.Snippet, error)
	Update(ctx context.Context, id string, payload model.SnippetPayload) (*model.Snippet, error)
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
}

// Authenticator is the sign-in surface; *auth.Service satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, notify func(link string)) (session.Session, error)
	Complete(ctx context.Context, cb auth.Callback) (session.Session, error)
	SignOut(ctx context.Context) error
	WhoAmI(ctx context.Context) (auth.Identity, error)
}

// Deps are App's collaborators, all built by main.
type Deps struct {
	Sync       *listsync.Synchronizer
	API        SnippetAPI
	Auth       Authenticator
	WebBaseURL string
	In         io.Reader
	Out        io.Writer
	Logger     *slog.Logger
}

// compile-time check that *App handles every intent
var _ ui.Handler = (*App)(nil)

// App is the REPL's command executor.
type App struct {
	sync   *listsync.Synchronizer
	api    SnippetAPI
	auth   Authenticator
	web    string
	reader *bufio.Reader
	out    io.Writer
	logger *slog.Logger
	panels *ui.Registry

	// rendered is how many list items are already on screen, so LoadMore
	// prints only the new page.
	rendered int
}

func NewApp(d Deps) *App {
	return &App{
		sync:   d.Sync,
		api:    d.API,
		auth:   d.Auth,
		web:    strings.TrimRight(d.WebBaseURL, "/"),
		reader: bufio.NewReader(d.In),
		out:    d.Out,
		logger: d.Logger,
		panels: ui.NewRegistry(),
	}
}

// Run shows the first page (or a sign-in hint) and then reads commands
// until "exit" or end of input.
func (a *App) Run(ctx context.Context) error {
	unsubscribe := a.sync.Subscribe(a.onListEvent)
	defer unsubscribe()
	defer a.panels.CloseAll()

	fmt.Fprintln(a.out, "SnipCity. Type `help` for commands.")
	if err := a.HandleRefresh(ctx, ui.RefreshSnippets{}); err != nil {
		a.report(err)
	}

	return runREPL(ctx, a, a.reader, a.out)
}

// onListEvent re-renders the list whenever the synchronizer commits a page.
func (a *App) onListEvent(e listsync.Event) {
	st := e.State
	if st.Loading {
		return
	}
	if e.Err != nil {
		// the command's caller prints the error itself
		a.rendered = len(st.Items)
		return
	}
	if st.Page > 1 && len(st.Items) >= a.rendered {
		renderItems(a.out, st, a.rendered, terminalWidth())
	} else {
		renderList(a.out, st, terminalWidth())
	}
	a.rendered = len(st.Items)
}

// report prints err in terms the user can act on.
func (a *App) report(err error) {
	if errors.Is(err, listsync.ErrSuperseded) {
		return
	}
	a.logger.Debug("command failed", slog.String("error", err.Error()))
	renderError(a.out, err)
}

// status is shown in the prompt.
func (a *App) status() string {
	return string(a.sync.State().Mode)
}

// resolve turns "3" (a list position) or an id into a snippet id.
func (a *App) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", apperror.ValidationFailed("id", "which snippet? give its number in the list or its id")
	}

	if n, err := strconv.Atoi(ref); err == nil {
		items := a.sync.State().Items
		if n < 1 || n > len(items) {
			return "", apperror.ValidationFailed("id", fmt.Sprintf("there is no snippet #%d in the list", n))
		}
		return items[n-1].ID, nil
	}
	return ref, nil
}

// lookup finds a snippet in the loaded list, falling back to the API.
func (a *App) lookup(ctx context.Context, id string) (*model.Snippet, error) {
	for _, s := range a.sync.State().Items {
		if s.ID == id {
			return &s, nil
		}
	}
	return a.api.GetByID(ctx, id)
}

// snippetURL is the snippet's page on the website.
func (a *App) snippetURL(id string) string {
	return a.web + "/snippets/" + url.PathEscape(id)
}

// whoami prints the signed-in identity.
func (a *App) whoami(ctx context.Context) error {
	id, err := a.auth.WhoAmI(ctx)
	if err != nil {
		return err
	}
	renderIdentity(a.out, id)
	return nil
}
