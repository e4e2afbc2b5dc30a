package cli

import (
	"fmt"
	"io"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// detailsPanel shows one snippet in full.
type detailsPanel struct {
	out     io.Writer
	snippet *model.Snippet
}

func (p *detailsPanel) Reveal() {
	renderSnippet(p.out, p.snippet, terminalWidth())
}

func (p *detailsPanel) Dispose() {
	p.snippet = nil
}

// formPanel holds the create or edit form between attempts. A draft that
// failed to save (validation, network) survives here until the save
// succeeds or the panel is closed.
type formPanel struct {
	out       io.Writer
	snippetID string // empty for the create form
	draft     *model.SnippetPayload
}

func (p *formPanel) Reveal() {
	if p.draft != nil && p.snippetID == "" {
		fmt.Fprintf(p.out, "Resuming your unsaved draft %q. Press Enter to keep a value.\n", p.draft.Title)
	}
}

func (p *formPanel) Dispose() {
	p.draft = nil
}

// keep remembers payload as the current draft.
func (p *formPanel) keep(payload model.SnippetPayload) {
	p.draft = &payload
}
