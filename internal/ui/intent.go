// Package ui defines what a front end can ask the client to do.
//
// INTENTS:
// Every user action (a REPL command, a message posted by an embedded web
// view) becomes one Intent value. The set is CLOSED: Intent has an
// unexported method, so only this package can add variants, and every
// variant dispatches to its own method on Handler. Adding a variant adds a
// Handler method, which breaks the build of every handler until it copes
// with the new case. No command string is ever matched in a switch outside
// DecodeIntent.
//
//	intent, err := ui.DecodeIntent([]byte(`{"command":"toggleMode","mode":"mine"}`))
//	err = ui.Dispatch(ctx, handler, intent)
package ui

import (
	"context"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// Command names as they appear on the wire.
const (
	CmdToggleMode      = "toggleMode"
	CmdRefreshSnippets = "refreshSnippets"
	CmdLoadMore        = "loadMore"
	CmdCopy            = "copy"
	CmdOpenSnippet     = "openSnippet"
	CmdAddSnippet      = "addSnippet"
	CmdEditSnippet     = "editSnippet"
	CmdViewOnWeb       = "viewOnWeb"
	CmdSignIn          = "signin"
	CmdSignOut         = "signout"
	CmdResync          = "resync"
)

// Intent is one user request. See the package doc for why it is closed.
type Intent interface {
	// Command is the wire name of the intent.
	Command() string
	dispatch(ctx context.Context, h Handler) error
}

// Handler reacts to every kind of Intent.
type Handler interface {
	HandleToggleMode(ctx context.Context, in ToggleMode) error
	HandleRefresh(ctx context.Context, in RefreshSnippets) error
	HandleLoadMore(ctx context.Context, in LoadMore) error
	HandleCopy(ctx context.Context, in Copy) error
	HandleOpenSnippet(ctx context.Context, in OpenSnippet) error
	HandleAddSnippet(ctx context.Context, in AddSnippet) error
	HandleEditSnippet(ctx context.Context, in EditSnippet) error
	HandleViewOnWeb(ctx context.Context, in ViewOnWeb) error
	HandleSignIn(ctx context.Context, in SignIn) error
	HandleSignOut(ctx context.Context, in SignOut) error
	HandleResync(ctx context.Context, in Resync) error
}

// Dispatch routes in to the matching Handler method.
func Dispatch(ctx context.Context, h Handler, in Intent) error {
	return in.dispatch(ctx, h)
}

// ToggleMode switches the list between all snippets and the user's own.
type ToggleMode struct {
	Mode model.Scope `json:"mode"`
}

// RefreshSnippets reloads the list from page 1.
type RefreshSnippets struct{}

// LoadMore appends the next page.
type LoadMore struct{}

// Copy puts a snippet's code on the clipboard.
type Copy struct {
	ID string `json:"id"`
}

// OpenSnippet shows a snippet's details.
type OpenSnippet struct {
	ID string `json:"id"`
}

// AddSnippet creates a snippet. With a nil Payload the front end is asked
// for one (the REPL runs its form); a web view posts the filled form.
type AddSnippet struct {
	Payload *model.SnippetPayload `json:"data,omitempty"`
}

// EditSnippet updates snippet ID, with Payload as for AddSnippet.
type EditSnippet struct {
	ID      string                `json:"id"`
	Payload *model.SnippetPayload `json:"data,omitempty"`
}

// ViewOnWeb opens the snippet's page on the website.
type ViewOnWeb struct {
	ID string `json:"id"`
}

// SignIn starts the browser sign-in, or stores Token directly when given.
type SignIn struct {
	Token string `json:"token,omitempty"`
}

// SignOut forgets the stored credentials.
type SignOut struct{}

// Resync refetches the list after a create or edit made elsewhere.
type Resync struct{}

func (ToggleMode) Command() string      { return CmdToggleMode }
func (RefreshSnippets) Command() string { return CmdRefreshSnippets }
func (LoadMore) Command() string        { return CmdLoadMore }
func (Copy) Command() string            { return CmdCopy }
func (OpenSnippet) Command() string     { return CmdOpenSnippet }
func (AddSnippet) Command() string      { return CmdAddSnippet }
func (EditSnippet) Command() string     { return CmdEditSnippet }
func (ViewOnWeb) Command() string       { return CmdViewOnWeb }
func (SignIn) Command() string          { return CmdSignIn }
func (SignOut) Command() string         { return CmdSignOut }
func (Resync) Command() string          { return CmdResync }

func (in ToggleMode) dispatch(ctx context.Context, h Handler) error {
	return h.HandleToggleMode(ctx, in)
}

func (in RefreshSnippets) dispatch(ctx context.Context, h Handler) error {
	return h.HandleRefresh(ctx, in)
}

func (in LoadMore) dispatch(ctx context.Context, h Handler) error {
	return h.HandleLoadMore(ctx, in)
}

func (in Copy) dispatch(ctx context.Context, h Handler) error {
	return h.HandleCopy(ctx, in)
}

func (in OpenSnippet) dispatch(ctx context.Context, h Handler) error {
	return h.HandleOpenSnippet(ctx, in)
}

func (in AddSnippet) dispatch(ctx context.Context, h Handler) error {
	return h.HandleAddSnippet(ctx, in)
}

func (in EditSnippet) dispatch(ctx context.Context, h Handler) error {
	return h.HandleEditSnippet(ctx, in)
}

func (in ViewOnWeb) dispatch(ctx context.Context, h Handler) error {
	return h.HandleViewOnWeb(ctx, in)
}

func (in SignIn) dispatch(ctx context.Context, h Handler) error {
	return h.HandleSignIn(ctx, in)
}

func (in SignOut) dispatch(ctx context.Context, h Handler) error {
	return h.HandleSignOut(ctx, in)
}

func (in Resync) dispatch(ctx context.Context, h Handler) error {
	return h.HandleResync(ctx, in)
}
