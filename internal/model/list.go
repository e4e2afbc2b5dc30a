package model

import "fmt"

// Scope selects which snippets a list call returns.
//
//   - ScopeAll:  every snippet visible to the caller (public ones plus the
//     caller's own private ones; the server decides)
//   - ScopeMine: only snippets authored by the signed-in user
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeMine Scope = "mine"
)

// ParseScope converts user or wire input into a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeMine:
		return Scope(s), nil
	}
	return "", fmt.Errorf("model: unknown scope %q (want %q or %q)", s, ScopeAll, ScopeMine)
}

// PaginatedResult is one page of GET /snippets.
// CurrentPage is 1-based.
type PaginatedResult struct {
	Snippets    []Snippet `json:"snippets"`
	CurrentPage int       `json:"currentPage"`
	HasNextPage bool      `json:"hasNextPage"`
	TotalItems  int       `json:"totalItems"`
	TotalPages  int       `json:"totalPages"`
}
