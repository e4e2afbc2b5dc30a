package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// codeTerminator ends a multi-line code block. A lone "." is unlikely to be
// a line of real code in any language the site supports.
const codeTerminator = "."

// readLine prints prompt and reads one trimmed line. EOF after some input
// returns that input; EOF with nothing read returns io.EOF.
func readLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// clearValue typed at a prompt empties a field that has a default.
const clearValue = "-"

// readWithDefault is readLine where an empty answer means def and "-"
// means empty.
func readWithDefault(reader *bufio.Reader, w io.Writer, label, def string) (string, error) {
	prompt := label + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, def)
	}
	v, err := readLine(reader, w, prompt)
	if err != nil {
		return "", err
	}
	switch v {
	case "":
		return def, nil
	case clearValue:
		return "", nil
	}
	return v, nil
}

// readCode reads lines until a line holding only ".". Lines are kept
// verbatim apart from the line ending, since indentation matters in code.
// A "." as the very first line keeps def.
func readCode(reader *bufio.Reader, w io.Writer, def string) (string, error) {
	hint := "Code (finish with a line containing only \".\")"
	if def != "" {
		hint = "Code (finish with a line containing only \".\"; a \".\" straight away keeps the current code)"
	}
	if _, err := fmt.Fprintln(w, hint); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == codeTerminator {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if trimmed != "" {
					lines = append(lines, trimmed)
				}
				break
			}
			return "", err
		}
		lines = append(lines, trimmed)
	}

	if len(lines) == 0 {
		return def, nil
	}
	return strings.Join(lines, "\n"), nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func confirm(reader *bufio.Reader, w io.Writer, question string) (bool, error) {
	answer, err := readLine(reader, w, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// readSnippetForm walks the user through every field of a snippet, starting
// from initial when editing or resuming a draft.
func readSnippetForm(reader *bufio.Reader, w io.Writer, initial *model.SnippetPayload) (model.SnippetPayload, error) {
	var p model.SnippetPayload
	if initial != nil {
		p = *initial
	}

	var err error
	if p.Title, err = readWithDefault(reader, w, "Title", p.Title); err != nil {
		return p, err
	}
	if p.Description, err = readWithDefault(reader, w, "Description", p.Description); err != nil {
		return p, err
	}
	if p.Language, err = readWithDefault(reader, w, "Language", p.Language); err != nil {
		return p, err
	}

	public := "n"
	if p.IsPublic || initial == nil {
		public = "y"
	}
	if public, err = readWithDefault(reader, w, "Public (y/n)", public); err != nil {
		return p, err
	}
	p.IsPublic = strings.HasPrefix(strings.ToLower(public), "y")

	tags, err := readWithDefault(reader, w, "Tags (comma separated)", p.Tags.String())
	if err != nil {
		return p, err
	}
	p.Tags = model.ParseTags(tags)

	if p.Code, err = readCode(reader, w, p.Code); err != nil {
		return p, err
	}
	return p, nil
}
