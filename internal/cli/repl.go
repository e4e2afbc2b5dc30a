package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/ui"
)

// execIface is what the REPL needs from App. Tests provide a lightweight
// stub.
type execIface interface {
	ui.Handler
	whoami(ctx context.Context) error
	resolve(ref string) (string, error)
	report(err error)
	status() string
}

const helpText = `Commands:
  list | refresh        reload the list from the first page
  all | mine            show all snippets or only yours
  more                  load the next page
  show <n|id>           show a snippet in full
  copy <n|id>           copy a snippet's code to the clipboard
  web <n|id>            open a snippet on the website
  create                create a snippet
  edit <n|id>           edit a snippet
  signin [token]        sign in with the browser, or with a pasted token
  signout               sign out
  whoami                show who you are signed in as
  help                  show this help
  exit | quit           leave`

// runREPL reads commands from reader until "exit", "quit" or end of input.
//
// Each line is parsed into a ui.Intent and dispatched to a. Errors are
// reported and the loop goes on; only a failure to read input ends it early.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) error {
	for {
		line, err := readLine(reader, w, fmt.Sprintf("snipcity (%s)> ", a.status()))
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help", "?":
			fmt.Fprintln(w, helpText)
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return nil
		case "whoami":
			if err := a.whoami(ctx); err != nil {
				a.report(err)
			}
			continue
		}

		intent, err := parseIntent(a, cmd, args)
		if err != nil {
			a.report(err)
			continue
		}
		if intent == nil {
			fmt.Fprintf(w, "Unknown command %q. Type `help` for the list.\n", cmd)
			continue
		}
		if err := ui.Dispatch(ctx, a, intent); err != nil {
			a.report(err)
		}
	}
}

// parseIntent maps a command line onto an intent. It returns nil, nil for
// an unknown command.
func parseIntent(a execIface, cmd string, args []string) (ui.Intent, error) {
	ref := strings.Join(args, " ")

	switch cmd {
	case "list", "l", "refresh":
		return ui.RefreshSnippets{}, nil
	case "all":
		return ui.ToggleMode{Mode: model.ScopeAll}, nil
	case "mine":
		return ui.ToggleMode{Mode: model.ScopeMine}, nil
	case "more":
		return ui.LoadMore{}, nil
	case "create", "add":
		return ui.AddSnippet{}, nil
	case "signin", "login":
		return ui.SignIn{Token: ref}, nil
	case "signout", "logout":
		return ui.SignOut{}, nil
	case "show", "copy", "web", "edit":
		id, err := a.resolve(ref)
		if err != nil {
			return nil, err
		}
		switch cmd {
		case "show":
			return ui.OpenSnippet{ID: id}, nil
		case "copy":
			return ui.Copy{ID: id}, nil
		case "web":
			return ui.ViewOnWeb{ID: id}, nil
		default:
			return ui.EditSnippet{ID: id}, nil
		}
	}
	return nil, nil
}
