package model

import (
	"strings"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
)

// SnippetPayload is the body of POST /snippets and PATCH /snippets/{id}.
type SnippetPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Language    string `json:"language"`
	IsPublic    bool   `json:"isPublic"`
	Tags        Tags   `json:"tags"`
}

// PayloadFrom copies the editable fields of an existing snippet, giving the
// edit form its starting values.
func PayloadFrom(s *Snippet) SnippetPayload {
	return SnippetPayload{
		Title:       s.Title,
		Description: s.Description,
		Code:        s.Code,
		Language:    s.Language,
		IsPublic:    s.IsPublic,
		Tags:        append(Tags(nil), s.Tags...),
	}
}

// Normalize trims the free-text fields in place. Code is left untouched:
// leading whitespace is meaningful in most languages.
func (p *SnippetPayload) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Language = strings.TrimSpace(p.Language)
	p.Tags = ParseTags(p.Tags.String())
}

// Validate normalises the payload and checks the fields the form requires.
// Lengths are left to the server.
// Returns an *apperror.AppError wrapping apperror.ErrValidation on failure.
func (p *SnippetPayload) Validate() error {
	p.Normalize()

	if p.Title == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if p.Language == "" {
		return apperror.ValidationFailed("language", "snippet language is required")
	}
	return nil
}
