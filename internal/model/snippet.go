// Package model defines the data structures shared by the SnipCity client.
//
// These types mirror what the remote snippets API sends and accepts. The API
// is the single source of truth for every field except the ones a user types
// into a create/edit form, so most of what lives here is read-only data that
// we decode, render, and pass along.
//
// WIRE NAMES:
// The API is backed by MongoDB, so identifiers arrive as "_id". Some
// endpoints also echo a plain "id"; Snippet.UnmarshalJSON accepts either.
package model

import (
	"encoding/json"
	"strings"
)

// Snippet is a code snippet as returned by the API.
//
// Author, Upvotes and Downvotes are owned by the server and never sent back.
// Tags are normalised once, at decode time (see Tags), so nothing that renders
// a snippet has to split or trim strings again.
type Snippet struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Code        string `json:"code"`
	Language    string `json:"language"`
	IsPublic    bool   `json:"isPublic"`
	Tags        Tags   `json:"tags,omitempty"`
	Author      User   `json:"author"`
	Upvotes     int    `json:"upvotes"`
	Downvotes   int    `json:"downvotes"`
}

// UnmarshalJSON decodes a snippet, accepting "id" when "_id" is missing.
//
// THE ALIAS TRICK:
// Decoding into `snippetAlias` (same fields, no methods) avoids infinite
// recursion, since json.Unmarshal on *Snippet would call this method again.
func (s *Snippet) UnmarshalJSON(data []byte) error {
	type snippetAlias Snippet
	aux := struct {
		*snippetAlias
		AltID string `json:"id"`
	}{snippetAlias: (*snippetAlias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = aux.AltID
	}
	if s.Upvotes < 0 {
		s.Upvotes = 0
	}
	if s.Downvotes < 0 {
		s.Downvotes = 0
	}
	return nil
}

// OwnedBy reports whether userID authored the snippet.
// An empty userID (anonymous or unknown session) never owns anything.
func (s *Snippet) OwnedBy(userID string) bool {
	return userID != "" && s.Author.ID == userID
}

// Tags is the normalised tag set of a snippet.
//
// On the wire tags are a single comma-delimited string ("go, http,,cli").
// In Go they are a slice of trimmed, non-empty, unique tokens in first-seen
// order: ["go", "http", "cli"].
type Tags []string

// ParseTags splits a comma-delimited tag string into normalised Tags.
// Returns nil for input with no usable tokens.
func ParseTags(raw string) Tags {
	var tags Tags
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// String joins the tags back into the wire form the API expects.
func (t Tags) String() string {
	return strings.Join(t, ",")
}

// MarshalJSON encodes tags as the comma-delimited string the API stores.
func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a comma-delimited string, an array of strings, or
// null. Older API versions sent arrays; every shape ends up normalised.
func (t *Tags) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*t = ParseTags(raw)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = ParseTags(strings.Join(list, ","))
	return nil
}
