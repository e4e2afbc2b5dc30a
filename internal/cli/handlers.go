package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/auth"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/ui"
)

func (a *App) HandleToggleMode(ctx context.Context, in ui.ToggleMode) error {
	if a.sync.State().Mode == in.Mode {
		fmt.Fprintf(a.out, "Already showing %s.\n", modeTitle(in.Mode))
		return nil
	}
	_, err := a.sync.ToggleMode(ctx, in.Mode)
	return err
}

func (a *App) HandleRefresh(ctx context.Context, _ ui.RefreshSnippets) error {
	_, err := a.sync.Refresh(ctx)
	return err
}

func (a *App) HandleLoadMore(ctx context.Context, _ ui.LoadMore) error {
	before := a.sync.State()
	if !before.HasMore {
		fmt.Fprintln(a.out, "No more snippets.")
		return nil
	}
	_, err := a.sync.LoadMore(ctx)
	return err
}

func (a *App) HandleResync(ctx context.Context, _ ui.Resync) error {
	_, err := a.sync.ResyncAfterMutation(ctx)
	return err
}

// HandleCopy puts the snippet's code on the system clipboard.
func (a *App) HandleCopy(ctx context.Context, in ui.Copy) error {
	s, err := a.lookup(ctx, in.ID)
	if err != nil {
		return err
	}
	if err := writeClipboard(s.Code); err != nil {
		return fmt.Errorf("cli: copying to clipboard: %w", err)
	}
	fmt.Fprintf(a.out, "Copied snippet %q to clipboard.\n", s.Title)
	return nil
}

// HandleOpenSnippet shows a snippet in the details panel, always fetching a
// fresh copy so vote counts and edits made elsewhere are current.
func (a *App) HandleOpenSnippet(ctx context.Context, in ui.OpenSnippet) error {
	s, err := a.api.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}

	if p, ok := a.panels.Active(ui.PanelDetails); ok {
		p.(*detailsPanel).snippet = s
	}
	p, created, err := a.panels.Open(ui.PanelDetails, func() (ui.Panel, error) {
		return &detailsPanel{out: a.out, snippet: s}, nil
	})
	if err != nil {
		return err
	}
	if created {
		p.Reveal()
	}
	return nil
}

func (a *App) HandleViewOnWeb(_ context.Context, in ui.ViewOnWeb) error {
	link := a.snippetURL(in.ID)
	fmt.Fprintln(a.out, link)
	if err := openBrowser(link); err != nil {
		a.logger.Warn("could not open browser", slog.String("error", err.Error()))
	}
	return nil
}

// HandleAddSnippet creates a snippet from the posted payload, or from the
// create form when there is none. A draft that fails to save stays in the
// create panel and is offered again by the next `create`.
func (a *App) HandleAddSnippet(ctx context.Context, in ui.AddSnippet) error {
	if _, err := a.auth.WhoAmI(ctx); err != nil {
		return err
	}

	p, _, err := a.panels.Open(ui.PanelCreate, func() (ui.Panel, error) {
		return &formPanel{out: a.out}, nil
	})
	if err != nil {
		return err
	}
	form := p.(*formPanel)

	payload := in.Payload
	if payload == nil {
		filled, err := readSnippetForm(a.reader, a.out, form.draft)
		if err != nil {
			return err
		}
		payload = &filled
	}
	form.keep(*payload)

	created, err := a.api.Create(ctx, *payload)
	if err != nil {
		return err
	}
	a.panels.Close(ui.PanelCreate)

	fmt.Fprintf(a.out, "Created snippet %q.\n", created.Title)
	return a.HandleResync(ctx, ui.Resync{})
}

// HandleEditSnippet updates a snippet. Editing someone else's snippet needs
// a confirmation first; the server has the final say either way.
func (a *App) HandleEditSnippet(ctx context.Context, in ui.EditSnippet) error {
	me, err := a.auth.WhoAmI(ctx)
	if err != nil {
		return err
	}

	s, err := a.api.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}

	// one edit panel at a time: opening it for another snippet drops the
	// old draft
	if p, ok := a.panels.Active(ui.PanelEdit); ok && p.(*formPanel).snippetID != s.ID {
		a.panels.Close(ui.PanelEdit)
	}
	p, _, err := a.panels.Open(ui.PanelEdit, func() (ui.Panel, error) {
		return &formPanel{out: a.out, snippetID: s.ID, draft: ptr(model.PayloadFrom(s))}, nil
	})
	if err != nil {
		return err
	}
	form := p.(*formPanel)

	if !s.OwnedBy(me.UserID) {
		ok, err := confirm(a.reader, a.out,
			fmt.Sprintf("%q belongs to %s, not you. The server will probably refuse the change. Edit anyway?", s.Title, authorName(s.Author)))
		if err != nil {
			return err
		}
		if !ok {
			a.panels.Close(ui.PanelEdit)
			return nil
		}
	}

	payload := in.Payload
	if payload == nil {
		filled, err := readSnippetForm(a.reader, a.out, form.draft)
		if err != nil {
			return err
		}
		payload = &filled
	}
	form.keep(*payload)

	updated, err := a.api.Update(ctx, s.ID, *payload)
	if err != nil {
		return err
	}
	a.panels.Close(ui.PanelEdit)

	fmt.Fprintf(a.out, "Updated snippet %q.\n", updated.Title)
	return a.HandleResync(ctx, ui.Resync{})
}

// HandleSignIn stores a pasted token, or runs the browser handoff.
func (a *App) HandleSignIn(ctx context.Context, in ui.SignIn) error {
	var err error
	if in.Token != "" {
		_, err = a.auth.Complete(ctx, auth.Callback{Token: in.Token})
	} else {
		_, err = a.auth.SignIn(ctx, func(link string) {
			fmt.Fprintln(a.out, "Opening your browser to sign in. If it does not open, visit:")
			fmt.Fprintln(a.out, "  "+link)
		})
	}
	if err != nil {
		if errors.Is(err, auth.ErrDenied) {
			fmt.Fprintln(a.out, "Sign-in was cancelled.")
			return nil
		}
		return err
	}

	if err := a.whoami(ctx); err != nil {
		return err
	}
	return a.HandleRefresh(ctx, ui.RefreshSnippets{})
}

// HandleSignOut forgets the session, closes every panel and reloads the
// list, which now ends in Unauthorized: an empty list is the expected view.
func (a *App) HandleSignOut(ctx context.Context, _ ui.SignOut) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	a.panels.CloseAll()
	fmt.Fprintln(a.out, "Signed out.")

	if err := a.HandleRefresh(ctx, ui.RefreshSnippets{}); err != nil && !errors.Is(err, apperror.ErrUnauthorized) {
		return err
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
