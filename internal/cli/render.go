package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"golang.org/x/term"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/auth"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/listsync"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// Test seams for the outside world. Tests replace them with stubs so they
// never touch the real clipboard, browser or terminal.
var (
	writeClipboard = clipboard.WriteAll
	openBrowser    = browser.OpenURL
	getTermSize    = term.GetSize
)

const (
	defaultWidth = 80
	minWidth     = 40
)

// terminalWidth is the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	w, _, err := getTermSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return max(w, minWidth)
}

func modeTitle(m model.Scope) string {
	if m == model.ScopeMine {
		return "my snippets"
	}
	return "all snippets"
}

func authorName(u model.User) string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	case u.ID != "":
		return u.ID
	}
	return "someone else"
}

// renderList prints the whole list with a heading.
func renderList(w io.Writer, st listsync.ListState, width int) {
	heading := strings.ToUpper(modeTitle(st.Mode)[:1]) + modeTitle(st.Mode)[1:]
	fmt.Fprintf(w, "\n%s\n%s\n", heading, strings.Repeat("─", min(width, utf8.RuneCountInString(heading)+2)))

	if len(st.Items) == 0 {
		if st.Mode == model.ScopeMine {
			fmt.Fprintln(w, "You have no snippets yet. Type `create` to add one.")
		} else {
			fmt.Fprintln(w, "No snippets yet.")
		}
		return
	}
	renderItems(w, st, 0, width)
}

// renderItems prints st.Items[from:] numbered from from+1, then the footer.
func renderItems(w io.Writer, st listsync.ListState, from, width int) {
	for i := from; i < len(st.Items); i++ {
		fmt.Fprintln(w, listLine(i+1, &st.Items[i], width))
	}
	if st.HasMore {
		fmt.Fprintln(w, "… more available, type `more`")
	} else {
		fmt.Fprintf(w, "(%d snippets)\n", len(st.Items))
	}
}

// listLine formats one row:
//
//	  3. Debounce a channel  [go]  ▲4 ▼0  by ada  #concurrency
func listLine(n int, s *model.Snippet, width int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d. %s  [%s]  ▲%d ▼%d", n, s.Title, s.Language, s.Upvotes, s.Downvotes)
	if s.Author.Username != "" {
		b.WriteString("  by " + s.Author.Username)
	}
	if !s.IsPublic {
		b.WriteString("  (private)")
	}
	for _, t := range s.Tags {
		b.WriteString("  #" + t)
	}
	return truncate(b.String(), width)
}

// renderSnippet prints the details view of one snippet.
func renderSnippet(w io.Writer, s *model.Snippet, width int) {
	if s == nil {
		return
	}
	rule := strings.Repeat("─", width)

	fmt.Fprintf(w, "\n%s\n", s.Title)
	fmt.Fprintf(w, "%s · by %s · ▲%d ▼%d", s.Language, authorName(s.Author), s.Upvotes, s.Downvotes)
	if !s.IsPublic {
		fmt.Fprint(w, " · private")
	}
	fmt.Fprintln(w)
	if len(s.Tags) > 0 {
		fmt.Fprintln(w, "#"+strings.Join(s.Tags, " #"))
	}
	if s.Description != "" {
		fmt.Fprintf(w, "\n%s\n", s.Description)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, s.Code)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "id %s\n", s.ID)
}

func renderIdentity(w io.Writer, id auth.Identity) {
	who := id.Email
	if who == "" {
		who = id.UserID
	}
	if who == "" {
		who = "an unknown user"
	}
	fmt.Fprintf(w, "Signed in as %s", who)
	if id.Email != "" && id.UserID != "" {
		fmt.Fprintf(w, " (id %s)", id.UserID)
	}
	fmt.Fprintln(w, ".")
	if !id.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Session expires %s.\n", id.ExpiresAt.Local().Format(time.RFC1123))
	}
}

// renderError prints err according to its category.
func renderError(w io.Writer, err error) {
	var appErr *apperror.AppError
	msg := err.Error()
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		fmt.Fprintf(w, "%s\nType `signin` to sign in.\n", msg)
	case errors.Is(err, apperror.ErrNetwork):
		fmt.Fprintln(w, "Could not reach SnipCity. Check your connection and try again.")
	case errors.Is(err, apperror.ErrValidation):
		if appErr != nil && appErr.Field != "" {
			fmt.Fprintf(w, "Invalid %s: %s\n", appErr.Field, msg)
		} else {
			fmt.Fprintln(w, msg)
		}
	case errors.Is(err, apperror.ErrSession):
		fmt.Fprintf(w, "%s. Try `signout` and `signin` again.\n", msg)
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrRemote):
		fmt.Fprintln(w, msg)
	default:
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
}

// truncate shortens s to width runes, marking the cut with "…".
func truncate(s string, width int) string {
	if width <= 1 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
